package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edugate/monitoring-core/internal/infrastructure/database"
)

// List page size bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ReadingRepository persists readings. There is no update or delete.
type ReadingRepository interface {
	Create(ctx context.Context, r *Reading) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository implements ReadingRepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new telemetry reading repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create appends r. ID and timestamps must already be set.
func (s *SQLiteRepository) Create(ctx context.Context, r *Reading) error {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling reading metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO telemetry_readings (id, device_id, room_id, temperature, humidity, measured_at, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DeviceID, r.RoomID, r.Temperature, r.Humidity,
		database.FormatTime(r.MeasuredAt), database.FormatTime(r.CreatedAt), string(meta),
	)
	if err != nil {
		return fmt.Errorf("inserting telemetry reading: %w", err)
	}
	return nil
}

// List returns readings matching filter, newest measurement first.
func (s *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "measured_at >= ?")
		args = append(args, database.FormatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, "measured_at < ?")
		args = append(args, database.FormatTime(filter.Until))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM telemetry_readings " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting telemetry readings: %w", err)
	}

	query := `SELECT id, device_id, room_id, temperature, humidity, measured_at, created_at, metadata
		FROM telemetry_readings ` + where + ` ORDER BY measured_at DESC, id LIMIT ? OFFSET ?` //nolint:gosec // WHERE built from parameterised conditions
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying telemetry readings: %w", err)
	}
	defer rows.Close()

	readings := []Reading{}
	for rows.Next() {
		var r Reading
		var measuredAt, createdAt, meta string
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.RoomID, &r.Temperature, &r.Humidity,
			&measuredAt, &createdAt, &meta); err != nil {
			return nil, fmt.Errorf("scanning telemetry reading: %w", err)
		}
		r.MeasuredAt, _ = database.ParseTime(measuredAt) //nolint:errcheck // Written by this package
		r.CreatedAt, _ = database.ParseTime(createdAt)   //nolint:errcheck // Written by this package
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &r.Metadata) //nolint:errcheck // Metadata is informational
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating telemetry readings: %w", err)
	}

	return &ListResult{Readings: readings, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
