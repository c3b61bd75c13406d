// Package accounts stores per-email account metadata: role, verification
// flag, and the provisioner-set temporary password hash.
package accounts

import (
	"context"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// Activate flips verified and clears the temporary password hash.
	// The update is idempotent: re-running it never reintroduces the
	// cleared field.
	Activate(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}
