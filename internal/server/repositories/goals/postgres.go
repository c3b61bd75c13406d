package goals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const goalColumns = `id, type_id, action_id, rubric_id, amount_id, portion_id, frequency_id,
	 start_date, deadline, notification_time, template, author_id`

func (r *PostgresRepository) Create(ctx context.Context, g *models.Goal) (*models.Goal, error) {

	query :=
		`INSERT INTO goals (type_id, action_id, rubric_id, amount_id, portion_id, frequency_id,
		                    start_date, deadline, notification_time, template, author_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		g.TypeID, g.ActionID, g.RubricID, g.AmountID, g.PortionID, g.FrequencyID,
		g.StartDate, g.Deadline, g.NotificationTime, g.Template, g.AuthorID).Scan(&g.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

	g := &models.Goal{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.TypeID, &g.ActionID, &g.RubricID, &g.AmountID, &g.PortionID, &g.FrequencyID,
		&g.StartDate, &g.Deadline, &g.NotificationTime, &g.Template, &g.AuthorID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListTemplates(ctx context.Context, authorID string) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE template AND author_id = $1`

	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collectGoals(rows)
}

func (r *PostgresRepository) Attach(ctx context.Context, patientID, goalID string) error {
	query :=
		`INSERT INTO patient_goals (patient_id, goal_id) VALUES ($1, $2)
		 ON CONFLICT (patient_id, goal_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, patientID, goalID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Detach(ctx context.Context, patientID, goalID string) error {
	query := `DELETE FROM patient_goals WHERE patient_id = $1 AND goal_id = $2`

	if _, err := r.db.ExecContext(ctx, query, patientID, goalID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Goal, error) {
	query :=
		`SELECT g.id, g.type_id, g.action_id, g.rubric_id, g.amount_id, g.portion_id, g.frequency_id,
		        g.start_date, g.deadline, g.notification_time, g.template, g.author_id
		 FROM goals g
		 JOIN patient_goals pg ON pg.goal_id = g.id
		 WHERE pg.patient_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collectGoals(rows)
}

func (r *PostgresRepository) ListIDsByPatient(ctx context.Context, patientID string) ([]string, error) {
	query := `SELECT goal_id FROM patient_goals WHERE patient_id = $1`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func (r *PostgresRepository) CopyAttachments(ctx context.Context, fromPatientID, toPatientID string) error {
	query :=
		`INSERT INTO patient_goals (patient_id, goal_id)
		 SELECT $2, goal_id FROM patient_goals WHERE patient_id = $1
		 ON CONFLICT (patient_id, goal_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, fromPatientID, toPatientID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func collectGoals(rows *sql.Rows) ([]*models.Goal, error) {
	var result []*models.Goal
	for rows.Next() {
		g := &models.Goal{}
		if err := rows.Scan(
			&g.ID, &g.TypeID, &g.ActionID, &g.RubricID, &g.AmountID, &g.PortionID, &g.FrequencyID,
			&g.StartDate, &g.Deadline, &g.NotificationTime, &g.Template, &g.AuthorID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
