package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edugate/monitoring-core/internal/settings"
)

type stubLastEvent struct {
	last time.Time
	ok   bool
	err  error
}

func (s stubLastEvent) LastCreatedAt(context.Context, string) (time.Time, bool, error) {
	return s.last, s.ok, s.err
}

func TestRateLimiter_Check(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 10, 0, time.UTC)

	tests := []struct {
		name      string
		lookup    stubLastEvent
		wantSkip  bool
		wantRetry time.Duration
	}{
		{name: "no events", lookup: stubLastEvent{}},
		{name: "just now", lookup: stubLastEvent{last: now, ok: true}, wantSkip: true, wantRetry: 5 * time.Second},
		{name: "1.2s ago", lookup: stubLastEvent{last: now.Add(-1200 * time.Millisecond), ok: true}, wantSkip: true, wantRetry: 3800 * time.Millisecond},
		{name: "4999ms ago", lookup: stubLastEvent{last: now.Add(-4999 * time.Millisecond), ok: true}, wantSkip: true, wantRetry: time.Millisecond},
		{name: "exactly 5s ago", lookup: stubLastEvent{last: now.Add(-5 * time.Second), ok: true}},
		{name: "long ago", lookup: stubLastEvent{last: now.Add(-time.Hour), ok: true}},
		{name: "future timestamp", lookup: stubLastEvent{last: now.Add(time.Minute), ok: true}, wantSkip: true, wantRetry: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewRateLimiter(tt.lookup)
			l.SetClock(func() time.Time { return now })

			got, err := l.Check(context.Background(), "gate-1")
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got.Skipped != tt.wantSkip || got.RetryAfter != tt.wantRetry {
				t.Errorf("Check() = %+v, want skipped=%v retryAfter=%v", got, tt.wantSkip, tt.wantRetry)
			}
		})
	}
}

func TestRateLimiter_Check_LookupError(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := NewRateLimiter(stubLastEvent{err: boom}).Check(context.Background(), "gate-1")
	if !errors.Is(err, boom) {
		t.Errorf("Check() error = %v, want wrapped lookup error", err)
	}
}

func TestThrottle_RetryAfterMs(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int64
	}{
		{0, 0},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{3800 * time.Millisecond, 3800},
	}
	for _, tt := range tests {
		if got := (Throttle{RetryAfter: tt.d}).RetryAfterMs(); got != tt.want {
			t.Errorf("RetryAfterMs(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

// TestRateLimiter_SimulationSequence drives two auto events inside the
// interval and a third after waiting RetryAfter, against the real event log.
func TestRateLimiter_SimulationSequence(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, "gate-1", true, "stu-1", true)
	clock := newFakeClock()

	events := NewSQLiteRepository(db)
	limiter := NewRateLimiter(events)
	limiter.SetClock(clock.Now)
	engine := newSQLiteEngine(db)
	engine.SetClock(clock.Now)

	ctx := context.Background()
	simulate := func() (Throttle, error) {
		th, err := limiter.Check(ctx, "gate-1")
		if err != nil || th.Skipped {
			return th, err
		}
		_, err = engine.Process(ctx, settings.Defaults(), Request{DeviceID: "gate-1", StudentID: "stu-1", Source: SourceAuto})
		return th, err
	}

	if th, err := simulate(); err != nil || th.Skipped {
		t.Fatalf("first simulate = %+v, %v", th, err)
	}

	clock.Advance(1200 * time.Millisecond)
	second, err := simulate()
	if err != nil {
		t.Fatalf("second simulate error = %v", err)
	}
	if !second.Skipped || second.RetryAfterMs() <= 0 {
		t.Fatalf("second simulate = %+v, want skipped with positive retry", second)
	}
	if n := countEvents(t, db); n != 1 {
		t.Fatalf("events after skip = %d, want 1", n)
	}

	clock.Advance(time.Duration(second.RetryAfterMs()) * time.Millisecond)
	if th, err := simulate(); err != nil || th.Skipped {
		t.Fatalf("third simulate = %+v, %v", th, err)
	}
	if n := countEvents(t, db); n != 2 {
		t.Errorf("events after wait = %d, want 2", n)
	}
}

func TestRateLimiter_ManualEventsCountTowardsInterval(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, "gate-1", true, "stu-1", true)
	clock := newFakeClock()

	engine := newSQLiteEngine(db)
	engine.SetClock(clock.Now)
	if _, err := engine.Process(context.Background(), settings.Defaults(), Request{DeviceID: "gate-1", StudentID: "stu-1"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	limiter := NewRateLimiter(NewSQLiteRepository(db))
	limiter.SetClock(clock.Now)
	th, err := limiter.Check(context.Background(), "gate-1")
	if err != nil || !th.Skipped {
		t.Errorf("Check() after manual event = %+v, %v", th, err)
	}
}

func TestRateLimiter_SubMillisecondCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, "gate-1", true, "stu-1", true)
	clock := newFakeClock()
	clock.Advance(600 * time.Microsecond)

	engine := newSQLiteEngine(db)
	engine.SetClock(clock.Now)
	if _, err := engine.Process(context.Background(), settings.Defaults(), Request{DeviceID: "gate-1", StudentID: "stu-1", Source: SourceAuto}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	limiter := NewRateLimiter(NewSQLiteRepository(db))
	limiter.SetClock(clock.Now)

	clock.Advance(4999700 * time.Microsecond)
	th, err := limiter.Check(context.Background(), "gate-1")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !th.Skipped || th.RetryAfter != 300*time.Microsecond || th.RetryAfterMs() != 1 {
		t.Fatalf("Check() at 4999.7ms = %+v, want skipped with 300µs left", th)
	}

	clock.Advance(time.Duration(th.RetryAfterMs()) * time.Millisecond)
	if th, err := limiter.Check(context.Background(), "gate-1"); err != nil || th.Skipped {
		t.Errorf("Check() after waiting RetryAfterMs = %+v, %v", th, err)
	}
}
