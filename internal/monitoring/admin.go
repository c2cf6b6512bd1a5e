package monitoring

import (
	"context"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/hardware"
	"github.com/edugate/monitoring-core/internal/location"
	"github.com/edugate/monitoring-core/internal/settings"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

// Settings returns the current settings snapshot.
func (s *Service) Settings(ctx context.Context) (settings.MonitoringSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings validates and stores next. The hardware profile is
// resolved before it is saved.
func (s *Service) UpdateSettings(ctx context.Context, next settings.MonitoringSettings) (settings.MonitoringSettings, error) {
	stored, err := s.settings.Update(ctx, next)
	if err != nil {
		return settings.MonitoringSettings{}, err
	}
	s.logger.Info("monitoring settings updated",
		"temp_range", []float64{stored.TempMin, stored.TempMax},
		"hum_range", []float64{stored.HumMin, stored.HumMax},
		"allow_only_active_students", stored.AllowOnlyActiveStudents,
	)
	return stored, nil
}

// HardwareProfile returns the resolved profile from the current settings.
func (s *Service) HardwareProfile(ctx context.Context) (hardware.Profile, error) {
	snapshot, err := s.settings.Get(ctx)
	if err != nil {
		return hardware.Profile{}, err
	}
	return snapshot.HardwareProfile, nil
}

// AuthenticateDevice returns the device holding token.
func (s *Service) AuthenticateDevice(ctx context.Context, token string) (*device.Device, error) {
	return s.devices.Authenticate(ctx, token)
}

// GetDevice returns a device.
func (s *Service) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	return s.devices.Get(ctx, id)
}

// ListDevices returns devices matching filter.
func (s *Service) ListDevices(ctx context.Context, filter device.Filter) ([]device.Device, error) {
	return s.devices.List(ctx, filter)
}

// CreateDevice registers d and issues its token. The token is only ever
// returned here and from UpdateDevice with regenerateToken.
func (s *Service) CreateDevice(ctx context.Context, d *device.Device) error {
	return s.devices.Create(ctx, d)
}

// UpdateDevice overwrites d, issuing a new token when regenerateToken is set.
func (s *Service) UpdateDevice(ctx context.Context, d *device.Device, regenerateToken bool) error {
	return s.devices.Update(ctx, d, regenerateToken)
}

// DeleteDevice removes a device without history.
func (s *Service) DeleteDevice(ctx context.Context, id string) error {
	return s.devices.Delete(ctx, id)
}

// ListRooms returns rooms, optionally only active ones.
func (s *Service) ListRooms(ctx context.Context, activeOnly bool) ([]location.Room, error) {
	return s.rooms.List(ctx, activeOnly)
}

// CreateRoom validates and stores a room.
func (s *Service) CreateRoom(ctx context.Context, room *location.Room) error {
	return s.rooms.Create(ctx, room)
}

// ListAccessEvents pages through the access log, newest first.
func (s *Service) ListAccessEvents(ctx context.Context, filter access.Filter) (*access.ListResult, error) {
	return s.events.List(ctx, filter)
}

// ListReadings pages through readings classified under the current settings.
func (s *Service) ListReadings(ctx context.Context, filter telemetry.Filter) (*telemetry.EvaluatedPage, error) {
	snapshot, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ingestor.Recent(ctx, filter, snapshot)
}
