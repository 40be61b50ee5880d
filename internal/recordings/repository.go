package recordings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/pkg/utils"
)

const recordingColumns = `id, user_id, title, COALESCE(audio_url,''), COALESCE(audio_key,''), language, status, transcript, summary, duration, share_token, created_at, updated_at`

// Repository handles recording persistence. Owner-facing reads and
// writes are scoped by user_id in SQL, so a recording owned by someone
// else behaves exactly like one that does not exist.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRecording(row pgx.Row) (*models.Recording, error) {
	var rec models.Recording
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.AudioURL, &rec.AudioKey, &rec.Language, &rec.Status,
		&rec.Transcript, &rec.Summary, &rec.Duration, &rec.ShareToken, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Create inserts a new recording with a fresh share token. A token
// collision trips the unique constraint and the insert is retried with
// a new token.
func (r *Repository) Create(ctx context.Context, rec *models.Recording) error {
	const q = `INSERT INTO recordings (id, user_id, title, audio_url, audio_key, language, status, duration, share_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	for attempt := 0; attempt < 3; attempt++ {
		token, err := utils.NewShareToken()
		if err != nil {
			return err
		}
		rec.ShareToken = token
		err = r.pool.QueryRow(ctx, q, rec.ID, rec.UserID, rec.Title, rec.AudioURL, rec.AudioKey, rec.Language, rec.Status, rec.Duration, rec.ShareToken).
			Scan(&rec.CreatedAt, &rec.UpdatedAt)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "recordings_share_token_key" {
			continue
		}
		return err
	}
	return errors.New("share token collision persisted across retries")
}

// GetByID returns a recording regardless of owner. The pipeline worker
// uses this; HTTP handlers use GetOwned. Nil when the row is missing.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1`
	return scanRecording(r.pool.QueryRow(ctx, q, id))
}

// GetOwned returns the recording only when it belongs to userID.
// Non-owned and missing rows are both nil.
func (r *Repository) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1 AND user_id = $2`
	return scanRecording(r.pool.QueryRow(ctx, q, id, userID))
}

// ListByUser returns the caller's recordings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RecordingListItem, error) {
	const q = `SELECT id, title, status, duration, share_token, created_at
		FROM recordings WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.RecordingListItem{}
	for rows.Next() {
		var item models.RecordingListItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Status, &item.Duration, &item.ShareToken, &item.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// UpdateTitle renames an owned recording and returns the updated row.
// Only the title moves; status, transcript, summary, and the share
// token stay as they were. Nil when not owned or missing.
func (r *Repository) UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (*models.Recording, error) {
	const q = `UPDATE recordings SET title = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING ` + recordingColumns
	return scanRecording(r.pool.QueryRow(ctx, q, title, id, userID))
}

// Delete removes an owned recording and reports its audio key so the
// stored object can be cleaned up afterwards.
func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) (audioKey string, deleted bool, err error) {
	const q = `DELETE FROM recordings WHERE id = $1 AND user_id = $2 RETURNING COALESCE(audio_key,'')`
	err = r.pool.QueryRow(ctx, q, id, userID).Scan(&audioKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return audioKey, true, nil
}

// SetStatus advances the pipeline status. Terminal rows never move
// again, which makes a redelivered job's writes harmless.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE recordings SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ($3, $4)`
	_, err := r.pool.Exec(ctx, q, status, id, models.StatusCompleted, models.StatusError)
	return err
}

// SetTranscript stores the transcription output.
func (r *Repository) SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	const q = `UPDATE recordings SET transcript = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, transcript, id)
	return err
}

// SetSummary stores the generated summary document.
func (r *Repository) SetSummary(ctx context.Context, id uuid.UUID, summaryText string) error {
	const q = `UPDATE recordings SET summary = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, summaryText, id)
	return err
}
