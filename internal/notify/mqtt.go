package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/infrastructure/mqtt"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

// Breaker settings for the MQTT publisher.
const (
	breakerFailures = 5
	breakerOpen     = 30 * time.Second
	breakerInterval = time.Minute
)

// Publisher is satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes events as JSON. After breakerFailures consecutive
// publish failures it stops trying for breakerOpen.
type MQTTSink struct {
	pub     Publisher
	qos     byte
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	topics  mqtt.Topics
}

// NewMQTTSink creates an MQTTSink.
func NewMQTTSink(pub Publisher, qos byte, logger *logging.Logger) *MQTTSink {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &MQTTSink{pub: pub, qos: qos, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "mqtt-notify",
		Interval: breakerInterval,
		Timeout:  breakerOpen,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

type accessPayload struct {
	EventID    string    `json:"eventId"`
	DeviceID   string    `json:"deviceId"`
	StudentID  string    `json:"studentId"`
	Result     string    `json:"result"`
	Reason     string    `json:"reason"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurredAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

type readingPayload struct {
	ReadingID   string    `json:"readingId"`
	DeviceID    string    `json:"deviceId"`
	RoomID      string    `json:"roomId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Status      string    `json:"status"`
	MeasuredAt  time.Time `json:"measuredAt"`
}

type skippedPayload struct {
	DeviceID     string `json:"deviceId"`
	RetryAfterMs int64  `json:"retryAfterMs"`
}

// AccessDecided implements Sink.
func (s *MQTTSink) AccessDecided(_ context.Context, e access.Event) {
	s.publish(s.topics.AccessDecision(e.DeviceID), accessPayload{
		EventID:    e.ID,
		DeviceID:   e.DeviceID,
		StudentID:  e.StudentID,
		Result:     string(e.Result),
		Reason:     string(e.Reason),
		Source:     string(e.Source),
		OccurredAt: e.OccurredAt,
		CreatedAt:  e.CreatedAt,
	})
}

// ReadingStored implements Sink.
func (s *MQTTSink) ReadingStored(_ context.Context, r telemetry.Reading, status telemetry.Status) {
	s.publish(s.topics.Telemetry(r.RoomID), readingPayload{
		ReadingID:   r.ID,
		DeviceID:    r.DeviceID,
		RoomID:      r.RoomID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Status:      string(status),
		MeasuredAt:  r.MeasuredAt,
	})
}

// ReadingRejected implements Sink. Rejections are not published.
func (s *MQTTSink) ReadingRejected(context.Context, string, string) {}

// SimulationSkipped implements Sink.
func (s *MQTTSink) SimulationSkipped(_ context.Context, deviceID string, retryAfter time.Duration) {
	s.publish(s.topics.SimulationSkipped(deviceID), skippedPayload{
		DeviceID:     deviceID,
		RetryAfterMs: access.Throttle{RetryAfter: retryAfter}.RetryAfterMs(),
	})
}

func (s *MQTTSink) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding mqtt payload", "topic", topic, "error", err)
		return
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.pub.Publish(topic, payload, s.qos, false)
	})
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Debug("mqtt publish skipped, breaker open", "topic", topic)
	default:
		s.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}
