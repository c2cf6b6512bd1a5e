package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edugate/monitoring-core/internal/hardware"
	"github.com/edugate/monitoring-core/internal/infrastructure/database"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
)

// Repository reads and writes the settings row.
type Repository interface {
	// Get returns a snapshot, creating the row from defaults if needed.
	Get(ctx context.Context) (MonitoringSettings, error)

	// Update validates and replaces the row, returning what was stored.
	Update(ctx context.Context, s MonitoringSettings) (MonitoringSettings, error)

	// Bootstrap creates the row from defaults when it does not exist yet.
	Bootstrap(ctx context.Context) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db       *sql.DB
	defaults MonitoringSettings
	logger   *logging.Logger
}

// NewSQLiteRepository creates a settings repository seeded with defaults.
func NewSQLiteRepository(db *sql.DB, defaults MonitoringSettings) *SQLiteRepository {
	return &SQLiteRepository{db: db, defaults: defaults}
}

// SetLogger sets the logger used to report normalised hardware profiles.
func (r *SQLiteRepository) SetLogger(logger *logging.Logger) {
	r.logger = logger
}

const upsertSettings = `
	INSERT INTO monitoring_settings (
		id, temp_min, temp_max, hum_min, hum_max,
		telemetry_interval_seconds, unlock_duration_seconds,
		allow_only_active_students, hardware_profile, updated_at
	) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Bootstrap inserts the default row. An existing row is left untouched.
func (r *SQLiteRepository) Bootstrap(ctx context.Context) error {
	if err := r.defaults.Validate(); err != nil {
		return fmt.Errorf("bootstrapping settings: %w", err)
	}
	s := r.defaults
	s.HardwareProfile = hardware.Resolve(s.HardwareProfile)
	s.UpdatedAt = time.Now().UTC()

	args, err := settingsArgs(s)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertSettings+` ON CONFLICT(id) DO NOTHING`, args...); err != nil {
		return fmt.Errorf("bootstrapping settings: %w", err)
	}
	return nil
}

// Get returns the stored settings. A stored hardware profile that is
// malformed or outdated is resolved on the way out and a warning logged.
func (r *SQLiteRepository) Get(ctx context.Context) (MonitoringSettings, error) {
	s, err := r.load(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.Bootstrap(ctx); err != nil {
			return MonitoringSettings{}, err
		}
		s, err = r.load(ctx)
	}
	if err != nil {
		return MonitoringSettings{}, fmt.Errorf("querying settings: %w", err)
	}
	return s, nil
}

// Update validates s, resolves its hardware profile and overwrites the row.
func (r *SQLiteRepository) Update(ctx context.Context, s MonitoringSettings) (MonitoringSettings, error) {
	if err := s.Validate(); err != nil {
		return MonitoringSettings{}, err
	}
	s.HardwareProfile = hardware.Resolve(s.HardwareProfile)
	s.UpdatedAt = time.Now().UTC()

	args, err := settingsArgs(s)
	if err != nil {
		return MonitoringSettings{}, err
	}
	const onConflict = ` ON CONFLICT(id) DO UPDATE SET
		temp_min = excluded.temp_min,
		temp_max = excluded.temp_max,
		hum_min = excluded.hum_min,
		hum_max = excluded.hum_max,
		telemetry_interval_seconds = excluded.telemetry_interval_seconds,
		unlock_duration_seconds = excluded.unlock_duration_seconds,
		allow_only_active_students = excluded.allow_only_active_students,
		hardware_profile = excluded.hardware_profile,
		updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, upsertSettings+onConflict, args...); err != nil {
		return MonitoringSettings{}, fmt.Errorf("updating settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) load(ctx context.Context) (MonitoringSettings, error) {
	var s MonitoringSettings
	var allowOnlyActive int
	var profileJSON, updatedAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT temp_min, temp_max, hum_min, hum_max,
			telemetry_interval_seconds, unlock_duration_seconds,
			allow_only_active_students, hardware_profile, updated_at
		FROM monitoring_settings WHERE id = 1`,
	).Scan(&s.TempMin, &s.TempMax, &s.HumMin, &s.HumMax,
		&s.TelemetryIntervalSeconds, &s.UnlockDurationSeconds,
		&allowOnlyActive, &profileJSON, &updatedAt)
	if err != nil {
		return MonitoringSettings{}, err
	}

	s.AllowOnlyActiveStudents = allowOnlyActive == 1
	s.HardwareProfile = hardware.ResolveJSON([]byte(profileJSON))
	if err := hardware.CheckStored([]byte(profileJSON)); err != nil && r.logger != nil {
		r.logger.Warn("stored hardware profile normalised", "error", err, "stored", profileJSON)
	}
	s.UpdatedAt, _ = database.ParseTime(updatedAt) //nolint:errcheck // Written by this package
	return s, nil
}

func settingsArgs(s MonitoringSettings) ([]any, error) {
	profile, err := json.Marshal(s.HardwareProfile)
	if err != nil {
		return nil, fmt.Errorf("encoding hardware profile: %w", err)
	}
	return []any{
		s.TempMin, s.TempMax, s.HumMin, s.HumMax,
		s.TelemetryIntervalSeconds, s.UnlockDurationSeconds,
		database.BoolToInt(s.AllowOnlyActiveStudents), string(profile),
		database.FormatTime(s.UpdatedAt),
	}, nil
}
