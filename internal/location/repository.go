package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edugate/monitoring-core/internal/infrastructure/database"
	"github.com/google/uuid"
)

// Repository defines room persistence.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Room, error)
	GetActiveByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, activeOnly bool) ([]Room, error)
	Create(ctx context.Context, room *Room) error
	Update(ctx context.Context, room *Room) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed room repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectRoom = `SELECT id, name, location, is_active, created_at, updated_at FROM rooms`

// GetByID returns a room regardless of its active flag.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	row := r.db.QueryRowContext(ctx, selectRoom+` WHERE id = ?`, id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying room %s: %w", id, err)
	}
	return room, nil
}

// GetActiveByID returns the room only when it exists and is active.
// A deactivated room yields ErrRoomInactive.
func (r *SQLiteRepository) GetActiveByID(ctx context.Context, id string) (*Room, error) {
	room, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrRoomInactive
	}
	return room, nil
}

// List returns rooms ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, activeOnly bool) ([]Room, error) {
	query := selectRoom
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// Create validates and inserts a room, assigning an ID when empty.
func (r *SQLiteRepository) Create(ctx context.Context, room *Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, location, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Location, database.BoolToInt(room.IsActive),
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return fmt.Errorf("inserting room %s: %w", room.ID, err)
	}
	return nil
}

// Update overwrites name, location and the active flag.
func (r *SQLiteRepository) Update(ctx context.Context, room *Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	room.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, location = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		room.Name, room.Location, database.BoolToInt(room.IsActive),
		database.FormatTime(room.UpdatedAt), room.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner) (*Room, error) {
	var room Room
	var active int
	var createdAt, updatedAt string

	if err := s.Scan(&room.ID, &room.Name, &room.Location, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	room.IsActive = active == 1
	room.CreatedAt, _ = database.ParseTime(createdAt) //nolint:errcheck // Written by this package
	room.UpdatedAt, _ = database.ParseTime(updatedAt) //nolint:errcheck // Written by this package
	return &room, nil
}
