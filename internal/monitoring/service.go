package monitoring

import (
	"context"
	"time"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/hardware"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/location"
	"github.com/edugate/monitoring-core/internal/notify"
	"github.com/edugate/monitoring-core/internal/settings"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

// Deps are the collaborators of a Service.
type Deps struct {
	Settings settings.Repository
	Devices  *device.IdentityManager
	Rooms    location.Repository
	Engine   *access.Engine
	Limiter  *access.RateLimiter
	Events   access.EventRepository
	Ingestor *telemetry.Ingestor
	Sink     notify.Sink     // optional
	Logger   *logging.Logger // optional
}

// Service implements the monitoring operations.
type Service struct {
	settings settings.Repository
	devices  *device.IdentityManager
	rooms    location.Repository
	engine   *access.Engine
	limiter  *access.RateLimiter
	events   access.EventRepository
	ingestor *telemetry.Ingestor
	sink     notify.Sink
	logger   *logging.Logger
}

// New creates a Service.
func New(deps Deps) *Service {
	s := &Service{
		settings: deps.Settings,
		devices:  deps.Devices,
		rooms:    deps.Rooms,
		engine:   deps.Engine,
		limiter:  deps.Limiter,
		events:   deps.Events,
		ingestor: deps.Ingestor,
		sink:     deps.Sink,
		logger:   deps.Logger,
	}
	if s.sink == nil {
		s.sink = notify.Nop{}
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// SimulationResult is returned by SimulateAccessEvent. Either Skipped is set
// with RetryAfterMs, or Result holds the decision.
type SimulationResult struct {
	Skipped      bool           `json:"skipped"`
	RetryAfterMs int64          `json:"retryAfterMs,omitempty"`
	Result       *access.Result `json:"result,omitempty"`
}

// ProcessAccessEvent decides a manual badge read. It returns an
// apperr.NotFoundError when the device or student does not exist.
func (s *Service) ProcessAccessEvent(ctx context.Context, deviceID, studentID string, occurredAt time.Time, metadata access.Metadata) (access.Result, error) {
	return s.process(ctx, access.Request{
		DeviceID:   deviceID,
		StudentID:  studentID,
		OccurredAt: occurredAt,
		Source:     access.SourceManual,
		Metadata:   metadata,
	})
}

// SimulateAccessEvent generates an auto-sourced event unless the device had
// an event less than access.MinSimulationInterval ago.
func (s *Service) SimulateAccessEvent(ctx context.Context, deviceID, studentID string, metadata access.Metadata) (SimulationResult, error) {
	throttle, err := s.limiter.Check(ctx, deviceID)
	if err != nil {
		return SimulationResult{}, err
	}
	if throttle.Skipped {
		s.sink.SimulationSkipped(ctx, deviceID, throttle.RetryAfter)
		return SimulationResult{Skipped: true, RetryAfterMs: throttle.RetryAfterMs()}, nil
	}

	result, err := s.process(ctx, access.Request{
		DeviceID:  deviceID,
		StudentID: studentID,
		Source:    access.SourceAuto,
		Metadata:  metadata,
	})
	if err != nil {
		return SimulationResult{}, err
	}
	return SimulationResult{Result: &result}, nil
}

func (s *Service) process(ctx context.Context, req access.Request) (access.Result, error) {
	snapshot, err := s.settings.Get(ctx)
	if err != nil {
		return access.Result{}, err
	}

	result, err := s.engine.Process(ctx, snapshot, req)
	if err != nil {
		return access.Result{}, err
	}
	if result.Event != nil {
		s.sink.AccessDecided(ctx, *result.Event)
	}
	return result, nil
}

// ProcessTelemetryReading validates and stores a reading. Rejections are
// reported in the Outcome, not as errors.
func (s *Service) ProcessTelemetryReading(ctx context.Context, deviceID, roomID string, temperature, humidity float64, measuredAt time.Time, metadata telemetry.Metadata) (telemetry.Outcome, error) {
	snapshot, err := s.settings.Get(ctx)
	if err != nil {
		return telemetry.Outcome{}, err
	}

	out, err := s.ingestor.Ingest(ctx, telemetry.Submission{
		DeviceID:    deviceID,
		RoomID:      roomID,
		Temperature: temperature,
		Humidity:    humidity,
		MeasuredAt:  measuredAt,
		Metadata:    metadata,
	})
	if err != nil {
		return telemetry.Outcome{}, err
	}

	if !out.OK {
		s.sink.ReadingRejected(ctx, deviceID, out.Reason)
		return out, nil
	}
	r := *out.Reading
	s.sink.ReadingStored(ctx, r, telemetry.Evaluate(r.Temperature, r.Humidity, snapshot))
	return out, nil
}

// EvaluateReadingStatus classifies a reading against s.
func (s *Service) EvaluateReadingStatus(temperature, humidity float64, snapshot settings.MonitoringSettings) telemetry.Status {
	return telemetry.Evaluate(temperature, humidity, snapshot)
}

// ResolveMonitoringHardwareProfile normalises any stored profile value.
func (s *Service) ResolveMonitoringHardwareProfile(raw any) hardware.Profile {
	return hardware.Resolve(raw)
}

// GenerateDeviceToken returns a fresh 256-bit token.
func (s *Service) GenerateDeviceToken() (string, error) {
	return device.GenerateToken()
}
