// Package main runs the VoiceScribe API server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voicescribe/backend/config"
	"github.com/voicescribe/backend/internal/auth"
	"github.com/voicescribe/backend/internal/middleware"
	"github.com/voicescribe/backend/internal/recordings"
	"github.com/voicescribe/backend/internal/share"
	"github.com/voicescribe/backend/internal/summarization"
	"github.com/voicescribe/backend/internal/transcription"
	"github.com/voicescribe/backend/internal/worker"
	"github.com/voicescribe/backend/pkg/database"
	"github.com/voicescribe/backend/pkg/queue"
	"github.com/voicescribe/backend/pkg/redis"
	"github.com/voicescribe/backend/pkg/response"
	"github.com/voicescribe/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	recordingRepo := recordings.NewRepository(pool)
	recordingHandler := recordings.NewHandler(recordingRepo, s3Client, jobQueue, logger)

	shareRepo := share.NewRepository(pool)
	shareHandler := share.NewHandler(shareRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public share view: the token is the credential.
	shareHandler.RegisterRoutes(router)

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	recordingHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process pipeline worker; deployments that scale processing
	// separately run cmd/worker instead and leave OPENAI_API_KEY unset
	// here.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.AI.APIKey != "" {
		transcriber := transcription.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.TranscribeModel)
		completer := summarization.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.SummaryModel, cfg.AI.MaxTokens)
		processor := worker.NewRecordingProcessor(recordingRepo, s3Client, transcriber, completer, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("pipeline worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
