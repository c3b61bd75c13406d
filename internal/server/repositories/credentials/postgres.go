package credentials

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

func (r *PostgresRepository) Create(ctx context.Context, cred *models.Credential) (*models.Credential, error) {

	query :=
		`INSERT INTO credentials (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING uid
		 `

	err := r.db.QueryRowContext(ctx, query, cred.Email, cred.PasswordHash).Scan(&cred.UID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cred, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query :=
		`SELECT uid, email, password_hash FROM credentials
		 WHERE email = $1
		 `
	return r.scan(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByUID(ctx context.Context, uid string) (*models.Credential, error) {
	query :=
		`SELECT uid, email, password_hash FROM credentials
		 WHERE uid = $1
		 `
	return r.scan(r.db.QueryRowContext(ctx, query, uid))
}

func (r *PostgresRepository) scan(row *sql.Row) (*models.Credential, error) {
	cred := &models.Credential{}
	err := row.Scan(&cred.UID, &cred.Email, &cred.PasswordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cred, nil
}
