package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/internal/summary"
	"github.com/voicescribe/backend/pkg/queue"
)

type fakeStore struct {
	mu         sync.Mutex
	rec        *models.Recording
	getErr     error
	statuses   []string
	transcript string
	summaryDoc string
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.rec == nil || s.rec.ID != id {
		return nil, nil
	}
	cp := *s.rec
	return &cp, nil
}

func (s *fakeStore) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = transcript
	return nil
}

func (s *fakeStore) SetSummary(ctx context.Context, id uuid.UUID, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryDoc = doc
	return nil
}

func (s *fakeStore) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.statuses...)
}

type fakeAudio struct {
	key string
	err error
}

func (a *fakeAudio) DownloadAudio(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if a.err != nil {
		return nil, "", a.err
	}
	a.key = key
	return io.NopCloser(strings.NewReader("pcm-bytes")), "audio/wav", nil
}

type fakeTranscriber struct {
	text     string
	err      error
	filename string
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	t.filename = filename
	if t.err != nil {
		return "", t.err
	}
	io.ReadAll(audio)
	return t.text, nil
}

type fakeCompleter struct {
	doc    string
	err    error
	calls  int
	system string
	user   string
}

func (c *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.calls++
	c.system = system
	c.user = user
	if c.err != nil {
		return "", c.err
	}
	return c.doc, nil
}

func testJob(t *testing.T, id uuid.UUID, key string) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.RecordingProcessPayload{RecordingID: id, AudioKey: key})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &queue.Job{ID: "job-1", Type: queue.JobTypeRecordingProcess, Payload: payload}
}

func newRecording(status string) *models.Recording {
	return &models.Recording{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    "Standup",
		Language: "en",
		Status:   status,
		AudioKey: "recordings/u/r.wav",
	}
}

func TestProcessHappyPath(t *testing.T) {
	rec := newRecording(models.StatusProcessing)
	store := &fakeStore{rec: rec}
	audio := &fakeAudio{}
	tr := &fakeTranscriber{text: "we shipped the release"}
	doc := "## Overview\n\nRelease shipped.\n\n## Key Topics Discussed\n\n- release\n\n## Action Items\n\n_None identified._\n\n## Key Decisions\n\n_None identified._\n\n## Important Details & Notes\n\n_None identified._\n"
	comp := &fakeCompleter{doc: doc}
	p := NewRecordingProcessor(store, audio, tr, comp, nil, nil)

	if err := p.Process(context.Background(), testJob(t, rec.ID, rec.AudioKey)); err != nil {
		t.Fatalf("process: %v", err)
	}

	want := []string{models.StatusTranscribing, models.StatusSummarizing, models.StatusCompleted}
	got := store.history()
	if len(got) != len(want) {
		t.Fatalf("status history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status history = %v, want %v", got, want)
		}
	}
	if store.transcript != "we shipped the release" {
		t.Fatalf("transcript = %q", store.transcript)
	}
	if !strings.HasPrefix(store.summaryDoc, "## Overview") {
		t.Fatalf("summary not persisted: %q", store.summaryDoc)
	}
	if !strings.Contains(store.summaryDoc, "_Summary generated automatically") {
		t.Fatal("attribution line missing from persisted summary")
	}
	if audio.key != rec.AudioKey {
		t.Fatalf("downloaded key = %q, want %q", audio.key, rec.AudioKey)
	}
	if tr.filename != "r.wav" {
		t.Fatalf("transcription filename = %q, want r.wav", tr.filename)
	}
	if !strings.Contains(comp.user, "we shipped the release") {
		t.Fatal("transcript missing from summary prompt")
	}
}

// TestProcessEmptyTranscript verifies a silent recording still
// completes, with the placeholder document and no model call.
func TestProcessEmptyTranscript(t *testing.T) {
	rec := newRecording(models.StatusProcessing)
	store := &fakeStore{rec: rec}
	comp := &fakeCompleter{doc: "should not be used"}
	p := NewRecordingProcessor(store, &fakeAudio{}, &fakeTranscriber{text: "  \n"}, comp, nil, nil)

	if err := p.Process(context.Background(), testJob(t, rec.ID, rec.AudioKey)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if comp.calls != 0 {
		t.Fatalf("completer called %d times for empty transcript", comp.calls)
	}
	if want := summary.WithAttribution(summary.Placeholder()); store.summaryDoc != want {
		t.Fatalf("summary = %q, want placeholder document", store.summaryDoc)
	}
	got := store.history()
	if len(got) == 0 || got[len(got)-1] != models.StatusCompleted {
		t.Fatalf("status history = %v, want completed last", got)
	}
}

func TestProcessSkipsTerminalRecording(t *testing.T) {
	rec := newRecording(models.StatusCompleted)
	store := &fakeStore{rec: rec}
	tr := &fakeTranscriber{text: "unused"}
	p := NewRecordingProcessor(store, &fakeAudio{}, tr, &fakeCompleter{}, nil, nil)

	if err := p.Process(context.Background(), testJob(t, rec.ID, rec.AudioKey)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.history()) != 0 {
		t.Fatalf("terminal recording got status writes: %v", store.history())
	}
	if tr.filename != "" {
		t.Fatal("terminal recording was transcribed")
	}
}

func TestProcessTranscribeFailureMarksError(t *testing.T) {
	rec := newRecording(models.StatusProcessing)
	store := &fakeStore{rec: rec}
	p := NewRecordingProcessor(store, &fakeAudio{}, &fakeTranscriber{err: errors.New("api down")}, &fakeCompleter{}, nil, nil)

	if err := p.Process(context.Background(), testJob(t, rec.ID, rec.AudioKey)); err != nil {
		t.Fatalf("pipeline failures must not surface as job errors, got %v", err)
	}
	got := store.history()
	if len(got) == 0 || got[len(got)-1] != models.StatusError {
		t.Fatalf("status history = %v, want error last", got)
	}
	if store.summaryDoc != "" {
		t.Fatal("summary persisted despite transcription failure")
	}
}

func TestProcessSummarizeFailureKeepsTranscript(t *testing.T) {
	rec := newRecording(models.StatusProcessing)
	store := &fakeStore{rec: rec}
	p := NewRecordingProcessor(store, &fakeAudio{}, &fakeTranscriber{text: "some talk"}, &fakeCompleter{err: errors.New("quota")}, nil, nil)

	if err := p.Process(context.Background(), testJob(t, rec.ID, rec.AudioKey)); err != nil {
		t.Fatalf("pipeline failures must not surface as job errors, got %v", err)
	}
	if store.transcript != "some talk" {
		t.Fatalf("transcript = %q, want persisted before the failure", store.transcript)
	}
	got := store.history()
	if len(got) == 0 || got[len(got)-1] != models.StatusError {
		t.Fatalf("status history = %v, want error last", got)
	}
}

func TestProcessDownloadFailureMarksError(t *testing.T) {
	rec := newRecording(models.StatusProcessing)
	store := &fakeStore{rec: rec}
	p := NewRecordingProcessor(store, &fakeAudio{err: errors.New("no such key")}, &fakeTranscriber{}, &fakeCompleter{}, nil, nil)

	if err := p.Process(context.Background(), testJob(t, rec.ID, rec.AudioKey)); err != nil {
		t.Fatalf("process: %v", err)
	}
	got := store.history()
	if len(got) == 0 || got[len(got)-1] != models.StatusError {
		t.Fatalf("status history = %v, want error last", got)
	}
}

// TestProcessInfraFailuresAreRetryable: failures before the pipeline
// owns the row surface as errors so the queue can retry them.
func TestProcessInfraFailuresAreRetryable(t *testing.T) {
	store := &fakeStore{getErr: errors.New("db down")}
	p := NewRecordingProcessor(store, &fakeAudio{}, &fakeTranscriber{}, &fakeCompleter{}, nil, nil)

	if err := p.Process(context.Background(), testJob(t, uuid.New(), "k")); err == nil {
		t.Fatal("row fetch failure should be returned for retry")
	}

	bad := &queue.Job{ID: "j", Type: queue.JobTypeRecordingProcess, Payload: json.RawMessage("{")}
	if err := p.Process(context.Background(), bad); err == nil {
		t.Fatal("bad payload should be returned for retry")
	}
}

func TestProcessMissingRecordingIsDropped(t *testing.T) {
	store := &fakeStore{}
	p := NewRecordingProcessor(store, &fakeAudio{}, &fakeTranscriber{}, &fakeCompleter{}, nil, nil)

	if err := p.Process(context.Background(), testJob(t, uuid.New(), "k")); err != nil {
		t.Fatalf("deleted recording should drop the job, got %v", err)
	}
	if len(store.history()) != 0 {
		t.Fatalf("deleted recording got status writes: %v", store.history())
	}
}
