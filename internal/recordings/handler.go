package recordings

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voicescribe/backend/internal/middleware"
	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/internal/pdf"
	"github.com/voicescribe/backend/pkg/queue"
	"github.com/voicescribe/backend/pkg/response"
	"github.com/voicescribe/backend/pkg/storage"
)

// maxUploadBytes caps one audio upload (2h of compressed audio fits
// comfortably).
const maxUploadBytes = 200 << 20

// Store is the persistence surface the handler needs. Repository
// satisfies it; tests use a fake.
type Store interface {
	Create(ctx context.Context, rec *models.Recording) error
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Recording, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RecordingListItem, error)
	UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (*models.Recording, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (audioKey string, deleted bool, err error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

// BlobStore stores and removes audio objects. storage.S3 satisfies it.
type BlobStore interface {
	UploadAudio(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	DeleteAudio(ctx context.Context, key string) error
}

// Jobs enqueues pipeline work.
type Jobs interface {
	EnqueueRecordingProcess(ctx context.Context, payload queue.RecordingProcessPayload) error
}

// Handler handles the authenticated recording endpoints.
type Handler struct {
	store  Store
	blobs  BlobStore
	jobs   Jobs
	logger *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(store Store, blobs BlobStore, jobs Jobs, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, blobs: blobs, jobs: jobs, logger: logger}
}

// RegisterRoutes mounts the recording endpoints on an authenticated
// router group.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/recordings", h.Upload)
	g.GET("/recordings", h.List)
	g.GET("/recordings/:id", h.Get)
	g.PATCH("/recordings/:id", h.UpdateTitle)
	g.DELETE("/recordings/:id", h.Delete)
	g.GET("/recordings/:id/status", h.Status)
	g.GET("/recordings/:id/pdf", h.ExportPDF)
}

// Upload handles POST /recordings: store the audio blob, create the
// row (status=processing, share token assigned), and enqueue the
// pipeline job. The response carries the full row so the client can
// start polling immediately.
func (h *Handler) Upload(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		response.BadRequest(c, "no audio file provided")
		return
	}
	defer file.Close()
	if header.Size == 0 {
		response.BadRequest(c, "audio file is empty")
		return
	}
	if header.Size > maxUploadBytes {
		response.BadRequest(c, "audio file too large")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = "Untitled Recording"
	}
	language := c.PostForm("language")
	if language == "" || language == "auto" {
		language = "en"
	}
	var duration *int
	if raw := c.PostForm("duration"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
			duration = &secs
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/webm"
	}

	recordingID := uuid.New()
	key := storage.AudioKey(userID.String(), recordingID.String(), storage.ExtensionForContentType(contentType))
	audioURL, err := h.blobs.UploadAudio(c.Request.Context(), key, contentType, file, header.Size)
	if err != nil {
		h.logger.Error("audio upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to store audio")
		return
	}

	rec := &models.Recording{
		ID:       recordingID,
		UserID:   userID,
		Title:    title,
		AudioURL: audioURL,
		AudioKey: key,
		Language: language,
		Status:   models.StatusProcessing,
		Duration: duration,
	}
	if err := h.store.Create(c.Request.Context(), rec); err != nil {
		h.logger.Error("create recording failed", zap.Error(err), zap.String("recording_id", recordingID.String()))
		response.Internal(c, "failed to create recording")
		return
	}

	payload := queue.RecordingProcessPayload{RecordingID: rec.ID, AudioKey: key}
	if err := h.jobs.EnqueueRecordingProcess(c.Request.Context(), payload); err != nil {
		// Without a job the row would sit in processing forever.
		h.logger.Error("enqueue failed", zap.Error(err), zap.String("recording_id", rec.ID.String()))
		if markErr := h.store.SetStatus(c.Request.Context(), rec.ID, models.StatusError); markErr != nil {
			h.logger.Error("mark error failed", zap.Error(markErr), zap.String("recording_id", rec.ID.String()))
		}
		rec.Status = models.StatusError
	}

	response.Created(c, rec)
}

// List handles GET /recordings.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list recordings failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to list recordings")
		return
	}
	response.OK(c, list)
}

// Get handles GET /recordings/:id.
func (h *Handler) Get(c *gin.Context) {
	rec, ok := h.owned(c)
	if !ok {
		return
	}
	response.OK(c, rec)
}

type updateTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateTitle handles PATCH /recordings/:id. Title is the only mutable
// field; concurrent renames are last-write-wins.
func (h *Handler) UpdateTitle(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "recording not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req updateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "title is required")
		return
	}

	rec, err := h.store.UpdateTitle(c.Request.Context(), recordingID, userID, req.Title)
	if err != nil {
		h.logger.Error("update title failed", zap.Error(err), zap.String("recording_id", recordingID.String()))
		response.Internal(c, "failed to update recording")
		return
	}
	if rec == nil {
		response.NotFound(c, "recording not found")
		return
	}
	response.OK(c, rec)
}

// Delete handles DELETE /recordings/:id. The row goes first; the
// stored object is removed best-effort afterwards.
func (h *Handler) Delete(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "recording not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	audioKey, deleted, err := h.store.Delete(c.Request.Context(), recordingID, userID)
	if err != nil {
		h.logger.Error("delete recording failed", zap.Error(err), zap.String("recording_id", recordingID.String()))
		response.Internal(c, "failed to delete recording")
		return
	}
	if !deleted {
		response.NotFound(c, "recording not found")
		return
	}
	if audioKey != "" {
		if err := h.blobs.DeleteAudio(c.Request.Context(), audioKey); err != nil {
			h.logger.Warn("audio object cleanup failed", zap.Error(err), zap.String("key", audioKey))
		}
	}
	response.NoContent(c)
}

// Status handles GET /recordings/:id/status: the poll endpoint, kept
// minimal on purpose.
func (h *Handler) Status(c *gin.Context) {
	rec, ok := h.owned(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"status": rec.Status})
}

// ExportPDF handles GET /recordings/:id/pdf. Available once a
// transcript exists; earlier requests get a 400.
func (h *Handler) ExportPDF(c *gin.Context) {
	rec, ok := h.owned(c)
	if !ok {
		return
	}
	if rec.Transcript == nil {
		response.BadRequest(c, "recording has no transcript yet")
		return
	}

	data, err := pdf.Render(rec)
	if err != nil {
		h.logger.Error("pdf render failed", zap.Error(err), zap.String("recording_id", rec.ID.String()))
		response.Internal(c, "failed to generate PDF")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Title+".pdf"))
	c.Data(200, "application/pdf", data)
}

// owned resolves :id to a recording owned by the caller, replying 404
// otherwise. A non-owned recording is indistinguishable from a missing
// one.
func (h *Handler) owned(c *gin.Context) (*models.Recording, bool) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "recording not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	rec, err := h.store.GetOwned(c.Request.Context(), recordingID, userID)
	if err != nil {
		h.logger.Error("get recording failed", zap.Error(err), zap.String("recording_id", recordingID.String()))
		response.Internal(c, "failed to load recording")
		return nil, false
	}
	if rec == nil {
		response.NotFound(c, "recording not found")
		return nil, false
	}
	return rec, true
}
