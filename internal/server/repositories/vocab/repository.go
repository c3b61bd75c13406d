// Package vocab reads the controlled-vocabulary lookup collections the goal
// form is built from. Entries are seeded by migration and read-only at
// runtime.
package vocab

import (
	"context"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, kind models.VocabKind) ([]*models.VocabItem, error)
	Get(ctx context.Context, id string) (*models.VocabItem, error)
}
