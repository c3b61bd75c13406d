// Package credentials stores the authentication registrations created by the
// first-login activation flow.
package credentials

import (
	"context"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, cred *models.Credential) (*models.Credential, error)
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetByUID(ctx context.Context, uid string) (*models.Credential, error)
}
