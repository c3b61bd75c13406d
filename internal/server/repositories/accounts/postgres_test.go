package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+accounts\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)`

	mock.ExpectExec(q).
		WithArgs("pat@x.io", string(models.RolePatient), false, []byte("hash")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Account{
		Email:            "pat@x.io",
		Role:             models.RolePatient,
		TempPasswordHash: []byte("hash"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+email,\s*role,\s*verified,\s*temp_password_hash\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`

	rows := sqlmock.NewRows([]string{"email", "role", "verified", "temp_password_hash"}).
		AddRow("pat@x.io", string(models.RolePatient), false, []byte("hash"))

	mock.ExpectQuery(q).WithArgs("pat@x.io").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "pat@x.io")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != models.RolePatient || got.Verified || string(got.TempPasswordHash) != "hash" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("ghost@x.io").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.io")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestActivate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+accounts\s+SET\s+verified\s*=\s*TRUE,\s*temp_password_hash\s*=\s*NULL\s+WHERE\s+email\s*=\s*\$1`

	mock.ExpectExec(q).WithArgs("pat@x.io").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Activate(context.Background(), "pat@x.io"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivate_MissingRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+accounts`).WithArgs("ghost@x.io").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Activate(context.Background(), "ghost@x.io")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestActivate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+accounts`).WithArgs("pat@x.io").WillReturnError(errors.New("db down"))

	err := repo.Activate(context.Background(), "pat@x.io")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("pat@x.io").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "pat@x.io"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
