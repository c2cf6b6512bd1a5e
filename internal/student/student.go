// Package student reads the student roster owned by the enrolment system.
//
// The monitoring core never writes students. It only needs to know whether
// a badge holder exists and whether they are currently active.
package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrStudentNotFound is returned when a student ID does not exist.
var ErrStudentNotFound = errors.New("student: not found")

// Student is the subset of the roster the access policy reads.
type Student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Repository looks students up by ID.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Student, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed student repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID returns the student or ErrStudentNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Student, error) {
	var s Student
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_active FROM students WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying student %s: %w", id, err)
	}
	s.IsActive = active == 1
	return &s, nil
}
