package access

import (
	"context"
	"fmt"
	"time"
)

// MinSimulationInterval is the minimum gap between auto-sourced events for
// one device, measured from the newest event of any source.
const MinSimulationInterval = 5000 * time.Millisecond

// LastEventLookup is the single query the limiter needs.
type LastEventLookup interface {
	LastCreatedAt(ctx context.Context, deviceID string) (time.Time, bool, error)
}

// Throttle is the limiter's verdict.
type Throttle struct {
	Skipped    bool
	RetryAfter time.Duration
}

// RetryAfterMs returns RetryAfter in whole milliseconds, rounded up so a
// caller that waits that long is never early.
func (t Throttle) RetryAfterMs() int64 {
	ms := t.RetryAfter / time.Millisecond
	if t.RetryAfter%time.Millisecond != 0 {
		ms++
	}
	return int64(ms)
}

// RateLimiter throttles simulated access events. It derives its state from
// the event log on every call.
type RateLimiter struct {
	events   LastEventLookup
	interval time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter with MinSimulationInterval.
func NewRateLimiter(events LastEventLookup) *RateLimiter {
	return &RateLimiter{
		events:   events,
		interval: MinSimulationInterval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the limiter clock.
func (l *RateLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// Check reports whether an auto event for deviceID must be skipped.
// A newest event stamped in the future counts as zero elapsed time.
func (l *RateLimiter) Check(ctx context.Context, deviceID string) (Throttle, error) {
	last, ok, err := l.events.LastCreatedAt(ctx, deviceID)
	if err != nil {
		return Throttle{}, fmt.Errorf("checking simulation rate: %w", err)
	}
	if !ok {
		return Throttle{}, nil
	}

	elapsed := l.now().Sub(last)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= l.interval {
		return Throttle{}, nil
	}
	return Throttle{Skipped: true, RetryAfter: l.interval - elapsed}, nil
}
