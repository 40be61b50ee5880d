// Package poller observes a recording job's progress by polling its
// status endpoint with adaptive backoff until a terminal state.
package poller

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voicescribe/backend/internal/models"
)

// FetchFunc returns the current status of the observed recording.
// Errors are treated as transient: the loop swallows them and keeps
// polling within its attempt budget.
type FetchFunc func(ctx context.Context) (string, error)

// Policy is the backoff schedule. Intervals are not a law of the
// domain; callers may tune them.
type Policy struct {
	Initial     time.Duration // interval for the first attempts
	Mid         time.Duration // interval once MidAfter attempts have run
	Max         time.Duration // interval once MaxAfter attempts have run
	MidAfter    int
	MaxAfter    int
	MaxAttempts int // safety bound; exceeding it reports a timeout
}

// DefaultPolicy matches the dashboard's behavior: 1s, 2s after 5
// attempts, capped at 3s after 10, giving up after 60 attempts.
func DefaultPolicy() Policy {
	return Policy{
		Initial:     time.Second,
		Mid:         2 * time.Second,
		Max:         3 * time.Second,
		MidAfter:    5,
		MaxAfter:    10,
		MaxAttempts: 60,
	}
}

// Result is the outcome of a polling run.
type Result struct {
	Status   string // last status observed, if any
	Attempts int
	TimedOut bool // attempt budget exhausted before a terminal state
}

// Poll fetches status until completed or error is observed, the attempt
// budget runs out, or ctx is cancelled. The first fetch happens
// immediately; the clock only paces the attempts after it.
func Poll(ctx context.Context, fetch FetchFunc, policy Policy, clk clock.Clock) (Result, error) {
	if clk == nil {
		clk = clock.New()
	}
	var res Result
	for res.Attempts < policy.MaxAttempts {
		res.Attempts++

		status, err := fetch(ctx)
		if err == nil {
			res.Status = status
			if models.IsTerminalStatus(status) {
				return res, nil
			}
		} else if ctx.Err() != nil {
			return res, ctx.Err()
		}

		if res.Attempts >= policy.MaxAttempts {
			break
		}
		select {
		case <-clk.After(policy.interval(res.Attempts)):
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
	res.TimedOut = true
	return res, nil
}

// interval returns the wait before the next attempt, given how many
// attempts have already run.
func (p Policy) interval(attempts int) time.Duration {
	switch {
	case attempts > p.MaxAfter:
		return p.Max
	case attempts > p.MidAfter:
		return p.Mid
	default:
		return p.Initial
	}
}
