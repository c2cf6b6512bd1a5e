package monitoring

import (
	"database/sql"
	"time"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	"github.com/edugate/monitoring-core/internal/location"
	"github.com/edugate/monitoring-core/internal/notify"
	"github.com/edugate/monitoring-core/internal/settings"
	"github.com/edugate/monitoring-core/internal/student"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

// NewSQLite wires a Service over the SQLite repositories in db.
// settingsRepo may wrap a settings.SQLiteRepository, e.g. with a cache.
func NewSQLite(db *sql.DB, settingsRepo settings.Repository, sink notify.Sink, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}

	devices := device.NewSQLiteRepository(db)
	rooms := location.NewSQLiteRepository(db)
	students := student.NewSQLiteRepository(db)
	events := access.NewSQLiteRepository(db)
	readings := telemetry.NewSQLiteRepository(db)

	return New(Deps{
		Settings: settingsRepo,
		Devices:  device.NewIdentityManager(devices, rooms, logger),
		Rooms:    rooms,
		Engine:   access.NewEngine(devices, students, events, logger),
		Limiter:  access.NewRateLimiter(events),
		Events:   events,
		Ingestor: telemetry.NewIngestor(devices, rooms, readings, logger),
		Sink:     sink,
		Logger:   logger,
	})
}

// SetClock replaces the clock of every time-dependent component.
func (s *Service) SetClock(now func() time.Time) {
	s.engine.SetClock(now)
	s.limiter.SetClock(now)
	s.ingestor.SetClock(now)
}

// OnTokenCollision registers fn to be called on every device token collision.
func (s *Service) OnTokenCollision(fn func()) {
	s.devices.OnTokenCollision(fn)
}
