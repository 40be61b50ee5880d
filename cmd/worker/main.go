// Package main runs the standalone recording pipeline worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voicescribe/backend/config"
	"github.com/voicescribe/backend/internal/recordings"
	"github.com/voicescribe/backend/internal/summarization"
	"github.com/voicescribe/backend/internal/transcription"
	"github.com/voicescribe/backend/internal/worker"
	"github.com/voicescribe/backend/pkg/database"
	"github.com/voicescribe/backend/pkg/queue"
	"github.com/voicescribe/backend/pkg/redis"
	"github.com/voicescribe/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.AI.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY is required")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		AudioBucket:     cfg.AWS.AudioBucket,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	recRepo := recordings.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	transcriber := transcription.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.TranscribeModel)
	completer := summarization.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.SummaryModel, cfg.AI.MaxTokens)
	processor := worker.NewRecordingProcessor(recRepo, s3Client, transcriber, completer, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("pipeline worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
