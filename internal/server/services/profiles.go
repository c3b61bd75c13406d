package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

// Collection names used for change events and watch subscriptions.
const (
	CollectionProfessionals = "professionals"
	CollectionPatients      = "patients"
	CollectionGoals         = "goals"
	CollectionComments      = "comments"
)

// ProfileService provisions and manages the role-scoped profile collections.
// Provisioning creates the profile document together with its account
// metadata (unverified, with a temporary password) in one transaction.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      watch.Broker
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, b watch.Broker) *ProfileService {
	return &ProfileService{db: db, repomanager: m, broker: b}
}

// ProvisionProfessional creates a professional profile plus its account
// metadata. Only admins call this (enforced at the transport layer).
func (s *ProfileService) ProvisionProfessional(ctx context.Context, p *models.Professional, tempPassword []byte) (*models.Professional, error) {
	hash, err := bcrypt.GenerateFromPassword(tempPassword, bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			Email:            p.Email,
			Role:             models.RoleProfessional,
			TempPasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("error creating account: %v", err)
		}
		if _, err := s.repomanager.Profiles(tx).CreateProfessional(ctx, p); err != nil {
			return fmt.Errorf("error creating professional: %v", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, CollectionProfessionals, p.ID, watch.ChangeAdded)
	return p, nil
}

// ProvisionPatient creates a patient profile under the acting professional
// plus its account metadata.
func (s *ProfileService) ProvisionPatient(ctx context.Context, p *models.Patient, tempPassword []byte) (*models.Patient, error) {
	hash, err := bcrypt.GenerateFromPassword(tempPassword, bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			Email:            p.Email,
			Role:             models.RolePatient,
			TempPasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("error creating account: %v", err)
		}
		if _, err := s.repomanager.Profiles(tx).CreatePatient(ctx, p); err != nil {
			return fmt.Errorf("error creating patient: %v", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, CollectionPatients, p.ID, watch.ChangeAdded)
	return p, nil
}

func (s *ProfileService) ListProfessionals(ctx context.Context) ([]*models.Professional, error) {
	return s.repomanager.Profiles(s.db).ListProfessionals(ctx)
}

func (s *ProfileService) ListPatients(ctx context.Context, professionalID string) ([]*models.Patient, error) {
	return s.repomanager.Profiles(s.db).ListPatients(ctx, professionalID)
}

func (s *ProfileService) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	p, err := s.repomanager.Profiles(s.db).GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorMissingUser
		}
		return nil, common.ErrorInternal
	}

	ids, err := s.repomanager.Goals(s.db).ListIDsByPatient(ctx, id)
	if err != nil {
		return nil, common.ErrorInternal
	}
	p.GoalIDs = ids

	return p, nil
}

func (s *ProfileService) UpdatePatient(ctx context.Context, p *models.Patient) error {
	if err := s.repomanager.Profiles(s.db).UpdatePatient(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, CollectionPatients, p.ID, watch.ChangeModified)
	return nil
}

// DeletePatient removes the patient profile and its account metadata.
func (s *ProfileService) DeletePatient(ctx context.Context, id string) error {
	patient, err := s.repomanager.Profiles(s.db).GetPatient(ctx, id)
	if err != nil {
		return err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Profiles(tx).DeletePatient(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Accounts(tx).Delete(ctx, patient.Email)
	}); err != nil {
		return err
	}

	s.publish(ctx, CollectionPatients, id, watch.ChangeRemoved)
	return nil
}

func (s *ProfileService) publish(ctx context.Context, collection, docID string, kind watch.ChangeKind) {
	// Change events are best-effort; a broker failure must not fail the write.
	_ = s.broker.Publish(ctx, watch.Event{Collection: collection, DocID: docID, Kind: kind})
}
