package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
)

// DirectoryService answers the per-role profile lookups behind session
// resolution. Each lookup has an exactly-one contract: zero matches is
// reported as common.ErrorMissingUser, distinct from transport errors, so
// the client can tell "incorrect credentials" apart from a generic failure.
type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDirectoryService(db *sql.DB, m repomanager.RepositoryManager) *DirectoryService {
	return &DirectoryService{db: db, repomanager: m}
}

func (s *DirectoryService) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin, err := s.repomanager.Profiles(s.db).GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return admin, nil
}

func (s *DirectoryService) ProfessionalByEmail(ctx context.Context, email string) (*models.Professional, error) {
	p, err := s.repomanager.Profiles(s.db).GetProfessionalByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return p, nil
}

// PatientByEmail resolves a patient through its owning professional (the
// two-level lookup) and includes the patient's goal reference set.
func (s *DirectoryService) PatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	p, err := s.repomanager.Profiles(s.db).GetPatientByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupError(err)
	}

	ids, err := s.repomanager.Goals(s.db).ListIDsByPatient(ctx, p.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	p.GoalIDs = ids

	return p, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorMissingUser
	}
	return common.ErrorInternal
}
