// Package goals stores goal definitions and the per-patient goal sets.
package goals

import (
	"context"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, g *models.Goal) (*models.Goal, error)
	Get(ctx context.Context, id string) (*models.Goal, error)
	Delete(ctx context.Context, id string) error
	ListTemplates(ctx context.Context, authorID string) ([]*models.Goal, error)

	// Attach unions the goal into the patient's goal set. Attaching an
	// already-attached goal is a no-op, matching array-union semantics.
	Attach(ctx context.Context, patientID, goalID string) error
	// Detach removes the goal reference from the patient's set.
	Detach(ctx context.Context, patientID, goalID string) error
	ListByPatient(ctx context.Context, patientID string) ([]*models.Goal, error)
	ListIDsByPatient(ctx context.Context, patientID string) ([]string, error)
	// CopyAttachments copies the whole goal set of one patient onto another,
	// used by the transfer flow before the source row is deleted.
	CopyAttachments(ctx context.Context, fromPatientID, toPatientID string) error
}
