package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/edugate/monitoring-core/internal/infrastructure/database"
)

// Repository defines device persistence.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Device, error)
	GetByToken(ctx context.Context, token string) (*Device, error)
	List(ctx context.Context, filter Filter) ([]Device, error)

	// Create and Update report a duplicate token as ErrTokenConflict so the
	// caller can retry with a fresh one.
	Create(ctx context.Context, d *Device) error
	Update(ctx context.Context, d *Device) error

	// Delete fails with ErrDeviceInUse while history references the device.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectDevice = `SELECT id, name, type, room_id, is_active, token, created_at, updated_at FROM devices`

// GetByID returns a device or ErrDeviceNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

// GetByToken returns the device holding token or ErrDeviceNotFound.
func (r *SQLiteRepository) GetByToken(ctx context.Context, token string) (*Device, error) {
	return r.getOne(ctx, `WHERE token = ?`, token)
}

func (r *SQLiteRepository) getOne(ctx context.Context, where string, arg string) (*Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, selectDevice+" "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return d, nil
}

// List returns devices matching filter ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Device, error) {
	var conds []string
	var args []any
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.RoomID != "" {
		conds = append(conds, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}

	query := selectDevice
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// Create inserts d as given; ID, token and timestamps must already be set.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, name, type, room_id, is_active, token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, string(d.Type), database.NullableString(d.RoomID),
		database.BoolToInt(d.IsActive), d.Token,
		database.FormatTime(d.CreatedAt), database.FormatTime(d.UpdatedAt),
	)
	if err != nil {
		return classifyWriteError("inserting", d.ID, err)
	}
	return nil
}

// Update overwrites every mutable column of d.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE devices SET name = ?, type = ?, room_id = ?, is_active = ?, token = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, string(d.Type), database.NullableString(d.RoomID),
		database.BoolToInt(d.IsActive), d.Token, database.FormatTime(d.UpdatedAt), d.ID,
	)
	if err != nil {
		return classifyWriteError("updating", d.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device without history.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		if database.IsForeignKeyError(err) {
			return ErrDeviceInUse
		}
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// classifyWriteError maps constraint violations to package errors. Only a
// violation on devices.token is a token conflict; a duplicate primary key
// is a different failure and must not be retried.
func classifyWriteError(op, id string, err error) error {
	switch {
	case database.IsUniqueConstraintError(err, "devices.token"):
		return fmt.Errorf("%s device %s: %w", op, id, ErrTokenConflict)
	case database.IsUniqueConstraintError(err, "devices.id"):
		return fmt.Errorf("%s device %s: %w", op, id, ErrDeviceExists)
	case database.IsForeignKeyError(err):
		return fmt.Errorf("%s device %s: %w", op, id, ErrRoomNotFound)
	default:
		return fmt.Errorf("%s device %s: %w", op, id, err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*Device, error) {
	var d Device
	var typ string
	var roomID sql.NullString
	var active int
	var createdAt, updatedAt string

	if err := s.Scan(&d.ID, &d.Name, &typ, &roomID, &active, &d.Token, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Type = Type(typ)
	if roomID.Valid {
		d.RoomID = &roomID.String
	}
	d.IsActive = active == 1
	d.CreatedAt, _ = database.ParseTime(createdAt) //nolint:errcheck // Written by this package
	d.UpdatedAt, _ = database.ParseTime(updatedAt) //nolint:errcheck // Written by this package
	return &d, nil
}
