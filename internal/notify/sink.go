package notify

import (
	"context"
	"time"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

// Sink observes committed monitoring events.
type Sink interface {
	AccessDecided(ctx context.Context, e access.Event)
	ReadingStored(ctx context.Context, r telemetry.Reading, status telemetry.Status)
	ReadingRejected(ctx context.Context, deviceID, reason string)
	SimulationSkipped(ctx context.Context, deviceID string, retryAfter time.Duration)
}

// Multi forwards every event to each sink in order.
type Multi []Sink

// AccessDecided implements Sink.
func (m Multi) AccessDecided(ctx context.Context, e access.Event) {
	for _, s := range m {
		s.AccessDecided(ctx, e)
	}
}

// ReadingStored implements Sink.
func (m Multi) ReadingStored(ctx context.Context, r telemetry.Reading, status telemetry.Status) {
	for _, s := range m {
		s.ReadingStored(ctx, r, status)
	}
}

// ReadingRejected implements Sink.
func (m Multi) ReadingRejected(ctx context.Context, deviceID, reason string) {
	for _, s := range m {
		s.ReadingRejected(ctx, deviceID, reason)
	}
}

// SimulationSkipped implements Sink.
func (m Multi) SimulationSkipped(ctx context.Context, deviceID string, retryAfter time.Duration) {
	for _, s := range m {
		s.SimulationSkipped(ctx, deviceID, retryAfter)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) AccessDecided(context.Context, access.Event) {}
func (Nop) ReadingStored(context.Context, telemetry.Reading, telemetry.Status) {}
func (Nop) ReadingRejected(context.Context, string, string) {}
func (Nop) SimulationSkipped(context.Context, string, time.Duration) {}
