package comments

import (
	"context"
	"fmt"

	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {

	query :=
		`INSERT INTO comments (patient_id, sender_role, body, attachment_key)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.PatientID, c.SenderRole, c.Text, c.AttachmentKey).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]*models.Comment, error) {
	query :=
		`SELECT id, patient_id, sender_role, body, attachment_key, created_at FROM comments
		 WHERE patient_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.PatientID, &c.SenderRole, &c.Text, &c.AttachmentKey, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
