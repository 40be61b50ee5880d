package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording pipeline statuses. Transitions only move forward through
// processing -> transcribing -> summarizing -> completed; error is
// reachable from any non-terminal status. Completed and error are
// terminal.
const (
	StatusProcessing   = "processing"
	StatusTranscribing = "transcribing"
	StatusSummarizing  = "summarizing"
	StatusCompleted    = "completed"
	StatusError        = "error"
)

// IsTerminalStatus reports whether no further automatic transition occurs.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusError
}

// StatusRank orders pipeline statuses for forward-only checks.
// Error ranks above every non-terminal status since it is reachable
// from any of them.
func StatusRank(status string) int {
	switch status {
	case StatusProcessing:
		return 0
	case StatusTranscribing:
		return 1
	case StatusSummarizing:
		return 2
	case StatusCompleted, StatusError:
		return 3
	default:
		return -1
	}
}

// Recording is one captured audio session and its processing output.
// Transcript is set once transcription finishes; Summary only when the
// status reaches completed. ShareToken is assigned at creation and
// never changes.
type Recording struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	AudioURL   string    `json:"audio_url,omitempty"`
	AudioKey   string    `json:"-"`
	Language   string    `json:"language"`
	Status     string    `json:"status"`
	Transcript *string   `json:"transcript,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Duration   *int      `json:"duration,omitempty"`
	ShareToken string    `json:"share_token"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordingListItem is the dashboard projection of a recording.
type RecordingListItem struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Duration   *int      `json:"duration,omitempty"`
	ShareToken string    `json:"share_token"`
	CreatedAt  time.Time `json:"created_at"`
}

// SharedRecording is the public read-only projection served to share
// token holders. It carries no owner-identifying fields beyond the
// display name.
type SharedRecording struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Transcript *string   `json:"transcript,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	Author     string    `json:"author"`
}
