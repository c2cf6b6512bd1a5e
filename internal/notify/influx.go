package notify

import (
	"context"
	"time"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

// PointWriter is satisfied by *influxdb.Client.
type PointWriter interface {
	WriteReading(deviceID, roomID string, temperature, humidity float64, status string, measuredAt time.Time)
	WriteAccessDecision(deviceID, result, reason, source string, occurredAt time.Time)
}

// InfluxSink mirrors decisions and readings into InfluxDB.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink creates an InfluxSink.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// AccessDecided implements Sink.
func (s *InfluxSink) AccessDecided(_ context.Context, e access.Event) {
	s.w.WriteAccessDecision(e.DeviceID, string(e.Result), string(e.Reason), string(e.Source), e.OccurredAt)
}

// ReadingStored implements Sink.
func (s *InfluxSink) ReadingStored(_ context.Context, r telemetry.Reading, status telemetry.Status) {
	s.w.WriteReading(r.DeviceID, r.RoomID, r.Temperature, r.Humidity, string(status), r.MeasuredAt)
}

// ReadingRejected implements Sink.
func (s *InfluxSink) ReadingRejected(context.Context, string, string) {}

// SimulationSkipped implements Sink.
func (s *InfluxSink) SimulationSkipped(context.Context, string, time.Duration) {}
