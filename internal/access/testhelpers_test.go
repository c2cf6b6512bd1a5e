package access

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/edugate/monitoring-core/internal/device"
	"github.com/edugate/monitoring-core/internal/infrastructure/database"
	"github.com/edugate/monitoring-core/internal/student"
	_ "github.com/edugate/monitoring-core/migrations"
)

// setupTestDB opens a temporary database with the full schema applied.
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

// seed inserts a PORTARIA device and a student.
func seed(t *testing.T, db *sql.DB, deviceID string, deviceActive bool, studentID string, studentActive bool) {
	t.Helper()
	now := database.FormatTime(time.Now())
	if _, err := db.Exec(`INSERT INTO devices (id, name, type, is_active, token, created_at, updated_at)
		VALUES (?, ?, 'PORTARIA', ?, ?, ?, ?)`,
		deviceID, "gate "+deviceID, database.BoolToInt(deviceActive), "token-"+deviceID, now, now); err != nil {
		t.Fatalf("inserting device: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO students (id, name, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		studentID, "student "+studentID, database.BoolToInt(studentActive), now, now); err != nil {
		t.Fatalf("inserting student: %v", err)
	}
}

func countEvents(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM access_events`).Scan(&n); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	return n
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSQLiteEngine(db *sql.DB) *Engine {
	return NewEngine(device.NewSQLiteRepository(db), student.NewSQLiteRepository(db), NewSQLiteRepository(db), nil)
}
