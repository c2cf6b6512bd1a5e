package student

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSQLiteRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, name, is_active FROM students").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active"}).AddRow("stu-1", "Ana", 0))

	s, err := repo.GetByID(ctx, "stu-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if s.Name != "Ana" || s.IsActive {
		t.Errorf("GetByID() = %+v", s)
	}

	mock.ExpectQuery("SELECT id, name, is_active FROM students").
		WithArgs("stu-x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active"}))

	if _, err := repo.GetByID(ctx, "stu-x"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrStudentNotFound", err)
	}

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT id, name, is_active FROM students").
		WithArgs("stu-2").
		WillReturnError(boom)

	if _, err := repo.GetByID(ctx, "stu-2"); !errors.Is(err, boom) || errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetByID(db failure) error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
