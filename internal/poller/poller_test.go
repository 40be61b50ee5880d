package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voicescribe/backend/internal/models"
)

// scriptedFetch replays a fixed status sequence, then repeats the last
// entry forever. It records how many times it was called.
type scriptedFetch struct {
	mu       sync.Mutex
	statuses []string
	errs     []error
	calls    int
}

func (s *scriptedFetch) fetch(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	return s.statuses[idx], nil
}

func (s *scriptedFetch) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// runPoll drives Poll against a mock clock, advancing it until the
// loop finishes.
func runPoll(t *testing.T, fetch FetchFunc, policy Policy) Result {
	t.Helper()
	mock := clock.NewMock()

	done := make(chan Result, 1)
	go func() {
		res, err := Poll(context.Background(), fetch, policy, mock)
		if err != nil {
			t.Errorf("poll: %v", err)
		}
		done <- res
	}()

	for {
		select {
		case res := <-done:
			return res
		default:
			time.Sleep(time.Millisecond)
			mock.Add(policy.Max)
		}
	}
}

// TestPollStopsOnFifthCall replays the canonical pipeline progression
// and expects polling to end exactly on the call that observes the
// terminal state.
func TestPollStopsOnFifthCall(t *testing.T) {
	fetch := &scriptedFetch{statuses: []string{
		models.StatusProcessing,
		models.StatusProcessing,
		models.StatusTranscribing,
		models.StatusSummarizing,
		models.StatusCompleted,
	}}

	res := runPoll(t, fetch.fetch, DefaultPolicy())

	if res.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	if res.Attempts != 5 || fetch.callCount() != 5 {
		t.Fatalf("attempts = %d, calls = %d, want 5", res.Attempts, fetch.callCount())
	}
	if res.TimedOut {
		t.Fatal("unexpected timeout")
	}
}

// TestPollTimesOutAtBudget verifies a never-terminal sequence stops
// after exactly MaxAttempts fetches and reports a timeout, leaving the
// last observed status for the caller.
func TestPollTimesOutAtBudget(t *testing.T) {
	fetch := &scriptedFetch{statuses: []string{models.StatusTranscribing}}

	res := runPoll(t, fetch.fetch, DefaultPolicy())

	if !res.TimedOut {
		t.Fatal("expected timeout")
	}
	if res.Attempts != 60 || fetch.callCount() != 60 {
		t.Fatalf("attempts = %d, calls = %d, want 60", res.Attempts, fetch.callCount())
	}
	if res.Status != models.StatusTranscribing {
		t.Fatalf("status = %q, want transcribing", res.Status)
	}
}

// TestPollSwallowsTransientErrors checks fetch failures do not stop the
// loop and still count against the attempt budget.
func TestPollSwallowsTransientErrors(t *testing.T) {
	blip := errors.New("network blip")
	fetch := &scriptedFetch{
		statuses: []string{models.StatusProcessing, models.StatusProcessing, models.StatusError},
		errs:     []error{blip, blip, nil},
	}

	res := runPoll(t, fetch.fetch, DefaultPolicy())

	if res.Status != models.StatusError {
		t.Fatalf("status = %q, want error", res.Status)
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", res.Attempts)
	}
}

// TestPollBackoffSchedule pins the interval steps: initial until the
// fifth attempt, mid until the tenth, then capped.
func TestPollBackoffSchedule(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Second},
		{5, time.Second},
		{6, 2 * time.Second},
		{10, 2 * time.Second},
		{11, 3 * time.Second},
		{59, 3 * time.Second},
	}
	for _, tc := range cases {
		if got := p.interval(tc.attempts); got != tc.want {
			t.Fatalf("interval(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}

func TestPollCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := &scriptedFetch{statuses: []string{models.StatusProcessing}}
	_, err := Poll(ctx, fetch.fetch, DefaultPolicy(), clock.NewMock())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
