package accounts

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

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) error {

	query :=
		`INSERT INTO accounts (email, role, verified, temp_password_hash)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query,
		account.Email, account.Role, account.Verified, account.TempPasswordHash)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT email, role, verified, temp_password_hash FROM accounts
		 WHERE email = $1
		 `

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&account.Email, &account.Role, &account.Verified, &account.TempPasswordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) Activate(ctx context.Context, email string) error {
	query :=
		`UPDATE accounts SET verified = TRUE, temp_password_hash = NULL
		 WHERE email = $1
		 `

	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
