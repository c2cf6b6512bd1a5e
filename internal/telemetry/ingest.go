package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/location"
	"github.com/edugate/monitoring-core/internal/settings"
)

// Rejection reasons returned in Outcome.Reason.
const (
	ReasonDeviceNotFound     = "device not found"
	ReasonRoomMismatch       = "device is bound to another room"
	ReasonRoomRequired       = "roomId is required for a device without a room"
	ReasonRoomNotFound       = "room not found"
	ReasonRoomInactive       = "room is inactive"
	ReasonInvalidTemperature = "temperature must be a finite number"
	ReasonInvalidHumidity    = "humidity must be a finite number"
)

// DeviceLookup finds the reporting device.
type DeviceLookup interface {
	GetByID(ctx context.Context, id string) (*device.Device, error)
}

// RoomLookup finds an active room.
type RoomLookup interface {
	GetActiveByID(ctx context.Context, id string) (*location.Room, error)
}

// Ingestor validates and stores readings.
type Ingestor struct {
	devices  DeviceLookup
	rooms    RoomLookup
	readings ReadingRepository
	logger   *logging.Logger
	now      func() time.Time
}

// NewIngestor creates an Ingestor.
func NewIngestor(devices DeviceLookup, rooms RoomLookup, readings ReadingRepository, logger *logging.Logger) *Ingestor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ingestor{
		devices:  devices,
		rooms:    rooms,
		readings: readings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for created_at and defaulted measured_at.
func (i *Ingestor) SetClock(now func() time.Time) {
	i.now = now
}

// Ingest validates sub and stores it. Validation failures are reported in the
// Outcome; only storage failures are returned as errors.
func (i *Ingestor) Ingest(ctx context.Context, sub Submission) (Outcome, error) {
	dev, err := i.devices.GetByID(ctx, sub.DeviceID)
	if errors.Is(err, device.ErrDeviceNotFound) {
		return i.reject(sub, ReasonDeviceNotFound), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("loading device: %w", err)
	}

	roomID := sub.RoomID
	switch {
	case dev.RoomID != nil && roomID == "":
		roomID = *dev.RoomID
	case dev.RoomID != nil && roomID != *dev.RoomID:
		return i.reject(sub, ReasonRoomMismatch), nil
	case roomID == "":
		return i.reject(sub, ReasonRoomRequired), nil
	}

	_, err = i.rooms.GetActiveByID(ctx, roomID)
	switch {
	case errors.Is(err, location.ErrRoomNotFound):
		return i.reject(sub, ReasonRoomNotFound), nil
	case errors.Is(err, location.ErrRoomInactive):
		return i.reject(sub, ReasonRoomInactive), nil
	case err != nil:
		return Outcome{}, fmt.Errorf("loading room: %w", err)
	}

	if !finite(sub.Temperature) {
		return i.reject(sub, ReasonInvalidTemperature), nil
	}
	if !finite(sub.Humidity) {
		return i.reject(sub, ReasonInvalidHumidity), nil
	}

	now := i.now()
	measuredAt := sub.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = now
	}

	reading := &Reading{
		ID:          uuid.NewString(),
		DeviceID:    dev.ID,
		RoomID:      roomID,
		Temperature: sub.Temperature,
		Humidity:    sub.Humidity,
		MeasuredAt:  measuredAt,
		CreatedAt:   now,
		Metadata:    sub.Metadata,
	}
	if err := i.readings.Create(ctx, reading); err != nil {
		return Outcome{}, fmt.Errorf("storing telemetry reading: %w", err)
	}
	return Outcome{OK: true, Reading: reading}, nil
}

// Recent lists readings classified under snapshot.
func (i *Ingestor) Recent(ctx context.Context, filter Filter, snapshot settings.MonitoringSettings) (*EvaluatedPage, error) {
	page, err := i.readings.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := &EvaluatedPage{
		Readings: make([]EvaluatedReading, 0, len(page.Readings)),
		Total:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	for _, r := range page.Readings {
		out.Readings = append(out.Readings, EvaluatedReading{
			Reading: r,
			Status:  Evaluate(r.Temperature, r.Humidity, snapshot),
		})
	}
	return out, nil
}

func (i *Ingestor) reject(sub Submission, reason string) Outcome {
	i.logger.Debug("telemetry rejected", "device_id", sub.DeviceID, "room_id", sub.RoomID, "reason", reason)
	return Outcome{OK: false, Reason: reason}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
