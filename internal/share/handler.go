package share

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/pkg/response"
)

// Store resolves share tokens. Repository satisfies it.
type Store interface {
	GetByToken(ctx context.Context, token string) (*models.SharedRecording, error)
}

// Handler serves GET /share/:token.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a share handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the public share endpoint. No auth middleware:
// the token is the whole credential.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/share/:token", h.Get)
}

// Get handles GET /share/:token.
func (h *Handler) Get(c *gin.Context) {
	token := c.Param("token")
	rec, err := h.store.GetByToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("share lookup failed", zap.Error(err))
		response.Internal(c, "failed to load shared recording")
		return
	}
	if rec == nil {
		response.NotFound(c, "shared recording not found")
		return
	}
	response.OK(c, rec)
}
