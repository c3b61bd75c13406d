// Package profiles stores the role-scoped profile collections: admins and
// professionals at the top level, patients nested under their owning
// professional.
package profiles

import (
	"context"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type Repository interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)

	CreateProfessional(ctx context.Context, p *models.Professional) (*models.Professional, error)
	GetProfessional(ctx context.Context, id string) (*models.Professional, error)
	GetProfessionalByEmail(ctx context.Context, email string) (*models.Professional, error)
	ListProfessionals(ctx context.Context) ([]*models.Professional, error)
	DeleteProfessional(ctx context.Context, id string) error

	CreatePatient(ctx context.Context, p *models.Patient) (*models.Patient, error)
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error)
	ListPatients(ctx context.Context, professionalID string) ([]*models.Patient, error)
	UpdatePatient(ctx context.Context, p *models.Patient) error
	DeletePatient(ctx context.Context, id string) error
}
