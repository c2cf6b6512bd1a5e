package settings

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edugate/monitoring-core/internal/apperr"
	"github.com/edugate/monitoring-core/internal/hardware"
	"github.com/edugate/monitoring-core/internal/infrastructure/config"
	"github.com/edugate/monitoring-core/internal/infrastructure/database"
	"github.com/edugate/monitoring-core/internal/infrastructure/logging"
	_ "github.com/edugate/monitoring-core/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db.DB
}

func TestSQLiteRepository_GetBootstrapsDefaults(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t), Defaults())

	s, err := repo.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := Defaults()
	if s.TempMin != want.TempMin || s.HumMax != want.HumMax || s.UnlockDurationSeconds != want.UnlockDurationSeconds {
		t.Errorf("Get() = %+v, want defaults", s)
	}
	if !s.HardwareProfile.Equal(hardware.Default()) {
		t.Errorf("HardwareProfile = %+v", s.HardwareProfile)
	}
	if s.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestSQLiteRepository_BootstrapKeepsExistingRow(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t), Defaults())
	ctx := context.Background()

	s := Defaults()
	s.UnlockDurationSeconds = 9
	if _, err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := repo.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UnlockDurationSeconds != 9 {
		t.Errorf("Bootstrap() overwrote the row: unlock = %d", got.UnlockDurationSeconds)
	}
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t), Defaults())
	ctx := context.Background()

	s := Defaults()
	s.TempMin, s.TempMax = 20, 24
	s.AllowOnlyActiveStudents = false
	s.HardwareProfile = hardware.Profile{Telemetry: hardware.TelemetryProfile{SensorModel: "sht35", I2CAddress: "0x45"}}

	stored, err := repo.Update(ctx, s)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if stored.HardwareProfile.Telemetry.SensorModel != hardware.SensorSHT35 {
		t.Errorf("Update() did not resolve the profile: %+v", stored.HardwareProfile)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TempMin != 20 || got.TempMax != 24 || got.AllowOnlyActiveStudents {
		t.Errorf("Get() after Update() = %+v", got)
	}
	if !got.HardwareProfile.Equal(stored.HardwareProfile) {
		t.Errorf("stored profile %+v, read back %+v", stored.HardwareProfile, got.HardwareProfile)
	}
	if got.HardwareProfile.Telemetry.I2CAddress != "0x45" {
		t.Errorf("I2CAddress = %q", got.HardwareProfile.Telemetry.I2CAddress)
	}
}

func TestSQLiteRepository_UpdateRejectsInvalid(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t), Defaults())
	ctx := context.Background()

	s := Defaults()
	s.HumMin = 90
	if _, err := repo.Update(ctx, s); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Update() error = %v, want validation error", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.HumMin != 40 {
		t.Errorf("invalid update leaked into storage: humMin = %v", got.HumMin)
	}
}

func TestSQLiteRepository_MalformedStoredProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db, Defaults())

	var buf bytes.Buffer
	repo.SetLogger(logging.NewWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "text"}, "test"))
	ctx := context.Background()

	if err := repo.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE monitoring_settings SET hardware_profile = '{"telemetry": 42' WHERE id = 1`); err != nil {
		t.Fatalf("corrupting profile: %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v, malformed profiles must not fail reads", err)
	}
	if !got.HardwareProfile.Equal(hardware.Default()) {
		t.Errorf("HardwareProfile = %+v, want defaults", got.HardwareProfile)
	}
	if !strings.Contains(buf.String(), "stored hardware profile normalised") {
		t.Errorf("expected warning, log = %q", buf.String())
	}
	if !strings.Contains(buf.String(), apperr.ErrConfig.Error()) {
		t.Errorf("warning does not carry the config error, log = %q", buf.String())
	}
}

func TestSQLiteRepository_BootstrapInvalidDefaults(t *testing.T) {
	bad := Defaults()
	bad.TempMin = 50
	repo := NewSQLiteRepository(setupTestDB(t), bad)

	if err := repo.Bootstrap(context.Background()); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Bootstrap() error = %v, want validation error", err)
	}
}
