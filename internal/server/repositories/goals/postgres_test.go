package goals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

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

func goalRow(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "type_id", "action_id", "rubric_id", "amount_id", "portion_id", "frequency_id",
		"start_date", "deadline", "notification_time", "template", "author_id",
	}).AddRow(id, "t1", "a1", "r1", "m1", "p1", "f1", now, now, now, false, "prof1")
}

func TestCreate_ReturnsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+goals\b.*RETURNING\s+id`

	mock.ExpectQuery(q).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g1"))

	g, err := repo.Create(context.Background(), &models.Goal{TypeID: "t1", AuthorID: "prof1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ID != "g1" {
		t.Fatalf("id not assigned: %+v", g)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestAttach_UsesUnionSemantics(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// The insert must tolerate re-attaching an existing pair.
	q := `(?s)^\s*INSERT\s+INTO\s+patient_goals\b.*ON\s+CONFLICT\s*\(patient_id,\s*goal_id\)\s+DO\s+NOTHING`

	mock.ExpectExec(q).WithArgs("p1", "g1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Attach(context.Background(), "p1", "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDetach_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+patient_goals\s+WHERE\s+patient_id\s*=\s*\$1\s+AND\s+goal_id\s*=\s*\$2`).
		WithArgs("p1", "g1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Detach(context.Background(), "p1", "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListByPatient(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+g\.id,.*JOIN\s+patient_goals\s+pg\s+ON\s+pg\.goal_id\s*=\s*g\.id\s+WHERE\s+pg\.patient_id\s*=\s*\$1`

	mock.ExpectQuery(q).WithArgs("p1").WillReturnRows(goalRow("g1"))

	list, err := repo.ListByPatient(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "g1" {
		t.Fatalf("unexpected rows: %+v", list)
	}
}

func TestListIDsByPatient(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"goal_id"}).AddRow("g1").AddRow("g2")
	mock.ExpectQuery(`SELECT\s+goal_id\s+FROM\s+patient_goals\s+WHERE\s+patient_id\s*=\s*\$1`).
		WithArgs("p1").
		WillReturnRows(rows)

	ids, err := repo.ListIDsByPatient(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "g1" || ids[1] != "g2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestCopyAttachments(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+patient_goals\s*\(patient_id,\s*goal_id\)\s+SELECT\s+\$2,\s*goal_id\s+FROM\s+patient_goals\s+WHERE\s+patient_id\s*=\s*\$1`

	mock.ExpectExec(q).WithArgs("p1", "p1-new").WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.CopyAttachments(context.Background(), "p1", "p1-new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
