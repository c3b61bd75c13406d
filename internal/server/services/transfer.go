package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

// TransferOutcome records the result of moving one patient.
type TransferOutcome struct {
	PatientID string
	NewID     string
	Err       error
}

// TransferService moves patients from one professional to another. Each
// patient moves atomically (the copy under the target and the delete of the
// source commit together), but patients are independent: one failed move
// leaves the rest unaffected and is reported in its outcome.
type TransferService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      watch.Broker
}

func NewTransferService(db *sql.DB, m repomanager.RepositoryManager, b watch.Broker) *TransferService {
	return &TransferService{db: db, repomanager: m, broker: b}
}

// Transfer moves the given patients from the acting professional to the
// target professional. The acting professional must own every patient named;
// a patient owned by someone else fails with its own outcome error.
func (s *TransferService) Transfer(ctx context.Context, actingProfID, targetProfID string, patientIDs []string) ([]TransferOutcome, error) {
	if actingProfID == targetProfID {
		return nil, fmt.Errorf("%w: source and target professional are the same", common.ErrorMissingData)
	}

	if _, err := s.repomanager.Profiles(s.db).GetProfessional(ctx, targetProfID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorMissingUser
		}
		return nil, common.ErrorInternal
	}

	outcomes := make([]TransferOutcome, len(patientIDs))
	for i, patientID := range patientIDs {
		newID, err := s.transferOne(ctx, actingProfID, targetProfID, patientID)
		outcomes[i] = TransferOutcome{PatientID: patientID, NewID: newID, Err: err}
		if err == nil {
			s.publish(ctx, CollectionPatients, patientID, watch.ChangeRemoved)
			s.publish(ctx, CollectionPatients, newID, watch.ChangeAdded)
		}
	}

	return outcomes, nil
}

// transferOne copies the patient under the target professional, carries the
// goal set over, and deletes the source row. The copy strictly precedes the
// delete so a failure can never lose the patient.
func (s *TransferService) transferOne(ctx context.Context, actingProfID, targetProfID, patientID string) (string, error) {
	var newID string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		profileRepo := s.repomanager.Profiles(tx)
		goalRepo := s.repomanager.Goals(tx)

		src, err := profileRepo.GetPatient(ctx, patientID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorMissingUser
			}
			return err
		}
		if src.ProfessionalID != actingProfID {
			return common.ErrorUnauthorized
		}

		dst := &models.Patient{
			ProfessionalID: targetProfID,
			Email:          src.Email,
			Name:           src.Name,
			Surname:        src.Surname,
			Phone:          src.Phone,
			BirthDate:      src.BirthDate,
		}
		created, err := profileRepo.CreatePatient(ctx, dst)
		if err != nil {
			return fmt.Errorf("error copying patient: %v", err)
		}
		newID = created.ID

		if err := goalRepo.CopyAttachments(ctx, patientID, newID); err != nil {
			return fmt.Errorf("error copying goals: %v", err)
		}

		if err := profileRepo.DeletePatient(ctx, patientID); err != nil {
			return fmt.Errorf("error removing source patient: %v", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return newID, nil
}

func (s *TransferService) publish(ctx context.Context, collection, docID string, kind watch.ChangeKind) {
	_ = s.broker.Publish(ctx, watch.Event{Collection: collection, DocID: docID, Kind: kind})
}
