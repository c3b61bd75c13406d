// Package comments stores the append-only comment threads scoped under
// patients.
package comments

import (
	"context"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	// ListByPatient returns comments newest-first.
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*models.Comment, error)
}
