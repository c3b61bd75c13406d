package vocab

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

func (r *PostgresRepository) List(ctx context.Context, kind models.VocabKind) ([]*models.VocabItem, error) {
	query :=
		`SELECT id, kind, label FROM vocab_items
		 WHERE kind = $1
		 ORDER BY label
		 `

	rows, err := r.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.VocabItem
	for rows.Next() {
		item := &models.VocabItem{}
		if err := rows.Scan(&item.ID, &item.Kind, &item.Label); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.VocabItem, error) {
	query := `SELECT id, kind, label FROM vocab_items WHERE id = $1`

	item := &models.VocabItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Kind, &item.Label)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}
