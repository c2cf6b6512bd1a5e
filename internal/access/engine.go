package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edugate/monitoring-core/internal/apperr"
	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/settings"
	"github.com/edugate/monitoring-core/internal/student"
)

// DeviceLookup finds the device presenting a badge read.
type DeviceLookup interface {
	GetByID(ctx context.Context, id string) (*device.Device, error)
}

// StudentLookup finds the badge holder.
type StudentLookup interface {
	GetByID(ctx context.Context, id string) (*student.Student, error)
}

// Engine applies the access policy and records every decision.
type Engine struct {
	devices  DeviceLookup
	students StudentLookup
	events   EventRepository
	logger   *logging.Logger
	now      func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(devices DeviceLookup, students StudentLookup, events EventRepository, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		devices:  devices,
		students: students,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for created_at and defaulted occurred_at.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Decide applies the access policy. The device is checked before the
// student, so an inactive gate denies everyone.
func Decide(d *device.Device, s *student.Student, snapshot settings.MonitoringSettings) (Decision, Reason) {
	switch {
	case !d.IsActive:
		return DecisionDeny, ReasonInactiveDevice
	case snapshot.AllowOnlyActiveStudents && !s.IsActive:
		return DecisionDeny, ReasonInactiveStudent
	default:
		return DecisionAllow, ReasonOK
	}
}

// Process decides req against snapshot and appends exactly one event.
// Nothing is written when the device or student does not exist.
func (e *Engine) Process(ctx context.Context, snapshot settings.MonitoringSettings, req Request) (Result, error) {
	if req.Source == "" {
		req.Source = SourceManual
	}
	if !req.Source.Valid() {
		return Result{}, apperr.Invalid("source", fmt.Sprintf("%v: %q", ErrInvalidSource, req.Source))
	}

	dev, err := e.devices.GetByID(ctx, req.DeviceID)
	if errors.Is(err, device.ErrDeviceNotFound) {
		return Result{}, apperr.NotFound("device", req.DeviceID, err)
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading device: %w", err)
	}

	stu, err := e.students.GetByID(ctx, req.StudentID)
	if errors.Is(err, student.ErrStudentNotFound) {
		return Result{}, apperr.NotFound("student", req.StudentID, err)
	}
	if err != nil {
		return Result{}, fmt.Errorf("loading student: %w", err)
	}

	decision, reason := Decide(dev, stu, snapshot)

	now := e.now()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	event := &Event{
		ID:         uuid.NewString(),
		DeviceID:   dev.ID,
		StudentID:  stu.ID,
		Result:     decision,
		Reason:     reason,
		Source:     req.Source,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		Metadata:   req.Metadata,
	}
	if err := e.events.Create(ctx, event); err != nil {
		return Result{}, fmt.Errorf("recording access decision: %w", err)
	}

	result := Result{Decision: decision, Reason: reason, Event: event}
	if decision == DecisionAllow {
		result.UnlockDurationSeconds = snapshot.UnlockDurationSeconds
	}

	e.logger.Debug("access decided",
		"device_id", dev.ID,
		"student_id", stu.ID,
		"result", decision,
		"reason", reason,
		"source", req.Source,
	)
	return result, nil
}
