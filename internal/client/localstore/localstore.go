// Package localstore is the on-device key-value store: a single sqlite
// table, goose-migrated, used to remember small bits of UI state (the
// selected patient, the stored token pair) across runs.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mkrasovska/nutritrack/internal/client/migrations"
	"github.com/mkrasovska/nutritrack/internal/common"
)

// Well-known keys.
const (
	KeySelectedPatient = "selected_patient"
	KeyCredential      = "credential"
)

type Store struct {
	db *sql.DB
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite file and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening local store: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("error migrating local store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value stored under key, or common.ErrorNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := `select value from kv where key = ?`
	var value []byte
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return value, nil
}

// Set upserts the value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	query := `insert into kv (key, value) values (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert key: %w", err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := `delete from kv where key = ?`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
