// Package worker runs the recording pipeline: transcribe the stored
// audio, summarize the transcript, and advance the recording's status
// through transcribing, summarizing, and completed. A failure at any
// stage lands the recording on the terminal error status; such jobs
// are never requeued.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/internal/summarization"
	"github.com/voicescribe/backend/internal/summary"
	"github.com/voicescribe/backend/internal/transcription"
	"github.com/voicescribe/backend/pkg/queue"
)

// Store is the recording persistence the pipeline needs. Repository
// satisfies it in production.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recording, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error
	SetSummary(ctx context.Context, id uuid.UUID, summaryText string) error
}

// AudioStore fetches stored audio by key. storage.S3 satisfies it.
type AudioStore interface {
	DownloadAudio(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Jobs is the queue surface the worker loop consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// RecordingProcessor drives one recording through the pipeline.
type RecordingProcessor struct {
	store       Store
	audio       AudioStore
	transcriber transcription.Transcriber
	completer   summarization.Completer
	jobs        Jobs
	logger      *zap.Logger
}

// NewRecordingProcessor creates a pipeline processor.
func NewRecordingProcessor(store Store, audio AudioStore, transcriber transcription.Transcriber, completer summarization.Completer, jobs Jobs, logger *zap.Logger) *RecordingProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingProcessor{
		store:       store,
		audio:       audio,
		transcriber: transcriber,
		completer:   completer,
		jobs:        jobs,
		logger:      logger,
	}
}

// Process executes one pipeline job. A returned error means the
// pipeline never took ownership of the recording (bad payload, row
// fetch failure) and the job may be retried. Once a stage has run, any
// failure is persisted on the row as status=error and Process returns
// nil so the job is not redelivered.
func (p *RecordingProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeRecordingProcess {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RecordingProcessPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	rec, err := p.store.GetByID(ctx, payload.RecordingID)
	if err != nil {
		return fmt.Errorf("fetch recording %s: %w", payload.RecordingID, err)
	}
	if rec == nil {
		// Row deleted between enqueue and delivery; nothing to do.
		p.logger.Warn("recording gone before processing", zap.String("recording_id", payload.RecordingID.String()))
		return nil
	}
	if models.IsTerminalStatus(rec.Status) {
		p.logger.Info("recording already terminal, skipping",
			zap.String("recording_id", rec.ID.String()),
			zap.String("status", rec.Status))
		return nil
	}

	audioKey := payload.AudioKey
	if audioKey == "" {
		audioKey = rec.AudioKey
	}

	if err := p.run(ctx, rec, audioKey); err != nil {
		p.logger.Error("pipeline failed",
			zap.String("recording_id", rec.ID.String()),
			zap.Error(err))
		if markErr := p.store.SetStatus(ctx, rec.ID, models.StatusError); markErr != nil {
			p.logger.Error("mark error failed",
				zap.String("recording_id", rec.ID.String()),
				zap.Error(markErr))
		}
	}
	return nil
}

// run advances the recording through transcribing, summarizing, and
// completed. Status writes that are independent of the next network
// call are fired concurrently with it and awaited before the stage's
// result is persisted.
func (p *RecordingProcessor) run(ctx context.Context, rec *models.Recording, audioKey string) error {
	id := rec.ID

	statusErr := p.setStatusAsync(ctx, id, models.StatusTranscribing)

	body, contentType, err := p.audio.DownloadAudio(ctx, audioKey)
	if err != nil {
		<-statusErr
		return fmt.Errorf("download audio: %w", err)
	}
	transcript, transcribeErr := p.transcriber.Transcribe(ctx, body, audioFilename(audioKey, contentType))
	body.Close()
	if err := <-statusErr; err != nil {
		return fmt.Errorf("set status transcribing: %w", err)
	}
	if transcribeErr != nil {
		return fmt.Errorf("transcribe: %w", transcribeErr)
	}

	if err := p.store.SetTranscript(ctx, id, transcript); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}
	statusErr = p.setStatusAsync(ctx, id, models.StatusSummarizing)

	doc, summarizeErr := p.summarize(ctx, transcript, rec.Language)
	if err := <-statusErr; err != nil {
		return fmt.Errorf("set status summarizing: %w", err)
	}
	if summarizeErr != nil {
		return fmt.Errorf("summarize: %w", summarizeErr)
	}

	if err := p.store.SetSummary(ctx, id, summary.WithAttribution(doc)); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}
	if err := p.store.SetStatus(ctx, id, models.StatusCompleted); err != nil {
		return fmt.Errorf("set status completed: %w", err)
	}

	p.logger.Info("recording completed", zap.String("recording_id", id.String()))
	return nil
}

// summarize builds the summary document. An empty transcript never
// reaches the model: the all-placeholder document is built locally and
// the recording still completes.
func (p *RecordingProcessor) summarize(ctx context.Context, transcript, language string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return summary.Placeholder(), nil
	}
	system, user := summarization.BuildPrompt(transcript, language)
	return p.completer.Complete(ctx, system, user)
}

// setStatusAsync fires a status write without blocking the caller and
// returns the channel carrying its result.
func (p *RecordingProcessor) setStatusAsync(ctx context.Context, id uuid.UUID, status string) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- p.store.SetStatus(ctx, id, status)
	}()
	return ch
}

// audioFilename derives the upload filename the transcription API sees
// from the storage key, falling back to the content type.
func audioFilename(key, contentType string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		key = key[idx+1:]
	}
	if key != "" && strings.Contains(key, ".") {
		return key
	}
	switch contentType {
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	case "audio/mpeg", "audio/mp3":
		return "audio.mp3"
	case "audio/ogg":
		return "audio.ogg"
	default:
		return "audio.webm"
	}
}

// Run consumes the queue until ctx is cancelled. Infrastructure errors
// from Process are retried with backoff; pipeline failures are already
// persisted on the row and return nil.
func (p *RecordingProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("recording worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
