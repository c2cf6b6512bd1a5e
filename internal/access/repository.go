package access

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edugate/monitoring-core/internal/infrastructure/database"
)

// List page size bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// EventRepository persists access events. There is no update or delete.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error

	// LastCreatedAt returns the newest created_at for the device, and false
	// when the device has no events.
	LastCreatedAt(ctx context.Context, deviceID string) (time.Time, bool, error)

	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository implements EventRepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new access event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create appends e. ID and timestamps must already be set.
func (r *SQLiteRepository) Create(ctx context.Context, e *Event) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling access event metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO access_events (id, device_id, student_id, result, reason, source, occurred_at, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeviceID, e.StudentID, string(e.Result), string(e.Reason), string(e.Source),
		database.FormatTime(e.OccurredAt), database.FormatTime(e.CreatedAt), string(meta),
	)
	if err != nil {
		return fmt.Errorf("inserting access event: %w", err)
	}
	return nil
}

// LastCreatedAt implements EventRepository.
func (r *SQLiteRepository) LastCreatedAt(ctx context.Context, deviceID string) (time.Time, bool, error) {
	var last sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM access_events WHERE device_id = ?`, deviceID,
	).Scan(&last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying last access event: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}

	t, err := database.ParseTime(last.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing access event timestamp %q: %w", last.String, err)
	}
	return t, true, nil
}

// List returns events matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
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
	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Result != "" {
		conditions = append(conditions, "result = ?")
		args = append(args, string(filter.Result))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, string(filter.Source))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM access_events " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting access events: %w", err)
	}

	query := `SELECT id, device_id, student_id, result, reason, source, occurred_at, created_at, metadata
		FROM access_events ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?` //nolint:gosec // WHERE built from parameterised conditions
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying access events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var result, reason, source, occurredAt, createdAt, meta string
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.StudentID, &result, &reason, &source,
			&occurredAt, &createdAt, &meta); err != nil {
			return nil, fmt.Errorf("scanning access event: %w", err)
		}
		e.Result = Decision(result)
		e.Reason = Reason(reason)
		e.Source = Source(source)
		e.OccurredAt, _ = database.ParseTime(occurredAt) //nolint:errcheck // Written by this package
		e.CreatedAt, _ = database.ParseTime(createdAt)   //nolint:errcheck // Written by this package
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &e.Metadata) //nolint:errcheck // Metadata is informational
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access events: %w", err)
	}

	return &ListResult{Events: events, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
