// Package share serves the unauthenticated, read-only view of a
// recording addressed by its share token.
package share

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicescribe/backend/internal/models"
)

// Repository resolves share tokens to the public projection.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a share repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByToken returns the shared projection for a token, nil when no
// recording carries it. The projection includes the owner's display
// name and nothing else about them.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.SharedRecording, error) {
	const q = `SELECT r.id, r.title, r.transcript, r.summary, r.status, r.created_at, u.full_name
		FROM recordings r
		JOIN users u ON u.id = r.user_id
		WHERE r.share_token = $1`
	var rec models.SharedRecording
	err := r.pool.QueryRow(ctx, q, token).
		Scan(&rec.ID, &rec.Title, &rec.Transcript, &rec.Summary, &rec.Status, &rec.CreatedAt, &rec.Author)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
