package repomanager

import (
	"context"
	"database/sql"

	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/accounts"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/comments"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/credentials"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/goals"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/profiles"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/refreshtokens"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/vocab"
)

// RepositoryManager vends per-collection repositories bound to a DBTX, so
// services can run several repositories against the same transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Goals(db dbx.DBTX) goals.Repository
	Comments(db dbx.DBTX) comments.Repository
	Vocab(db dbx.DBTX) vocab.Repository
}
