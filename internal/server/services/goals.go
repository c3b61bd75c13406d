package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

// AssignOutcome records the result of attaching one goal to one patient
// during a bulk assignment.
type AssignOutcome struct {
	PatientID string
	Err       error
}

// AssignResult aggregates a bulk assignment. Failed counts the outcomes with
// a non-nil error; callers distinguish full success (Failed == 0), partial
// success, and total failure (Failed == len(Outcomes)).
type AssignResult struct {
	Outcomes []AssignOutcome
	Failed   int
}

// AllFailed reports whether not a single patient was updated.
func (r *AssignResult) AllFailed() bool {
	return len(r.Outcomes) > 0 && r.Failed == len(r.Outcomes)
}

// GoalService manages goal definitions, the controlled vocabulary that goal
// forms are built from, and per-patient goal assignment.
type GoalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      watch.Broker
}

func NewGoalService(db *sql.DB, m repomanager.RepositoryManager, b watch.Broker) *GoalService {
	return &GoalService{db: db, repomanager: m, broker: b}
}

// Vocabulary lists the controlled-vocabulary items of one kind (goal types,
// actions, rubrics, amounts, portions or frequencies).
func (s *GoalService) Vocabulary(ctx context.Context, kind models.VocabKind) ([]*models.VocabItem, error) {
	return s.repomanager.Vocab(s.db).List(ctx, kind)
}

// Create validates the goal's vocabulary references and stores it. A goal
// with Template set is a reusable template owned by its author; otherwise it
// is a one-off definition.
func (s *GoalService) Create(ctx context.Context, g *models.Goal) (*models.Goal, error) {
	vocabRepo := s.repomanager.Vocab(s.db)
	refs := []struct {
		id   string
		kind models.VocabKind
	}{
		{g.TypeID, models.VocabType},
		{g.ActionID, models.VocabAction},
		{g.RubricID, models.VocabRubric},
		{g.AmountID, models.VocabAmount},
		{g.PortionID, models.VocabPortion},
		{g.FrequencyID, models.VocabFrequency},
	}
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		item, err := vocabRepo.Get(ctx, ref.id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("%w: unknown vocabulary item %q", common.ErrorMissingData, ref.id)
			}
			return nil, common.ErrorInternal
		}
		if item.Kind != ref.kind {
			return nil, fmt.Errorf("%w: vocabulary item %q is not in %s", common.ErrorMissingData, ref.id, ref.kind)
		}
	}

	created, err := s.repomanager.Goals(s.db).Create(ctx, g)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, CollectionGoals, created.ID, watch.ChangeAdded)
	return created, nil
}

func (s *GoalService) Get(ctx context.Context, id string) (*models.Goal, error) {
	g, err := s.repomanager.Goals(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorMissingData
		}
		return nil, common.ErrorInternal
	}
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Goals(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, CollectionGoals, id, watch.ChangeRemoved)
	return nil
}

// ListTemplates returns the reusable goal templates authored by the given
// professional.
func (s *GoalService) ListTemplates(ctx context.Context, authorID string) ([]*models.Goal, error) {
	return s.repomanager.Goals(s.db).ListTemplates(ctx, authorID)
}

// ListByPatient returns the full goal documents attached to a patient.
func (s *GoalService) ListByPatient(ctx context.Context, patientID string) ([]*models.Goal, error) {
	return s.repomanager.Goals(s.db).ListByPatient(ctx, patientID)
}

// AssignToPatients attaches one goal to many patients owned by the given
// professional, concurrently. Every patient is attempted regardless of other
// patients' failures, and the call returns only after all attempts finish.
// Outcomes preserve the input order.
func (s *GoalService) AssignToPatients(ctx context.Context, goalID, professionalID string, patientIDs []string) (*AssignResult, error) {
	if _, err := s.Get(ctx, goalID); err != nil {
		return nil, err
	}

	outcomes := make([]AssignOutcome, len(patientIDs))

	// The group context is only for the workers; errgroup cancels it once
	// Wait returns, and the change events below still need a live context.
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, patientID := range patientIDs {
		grp.Go(func() error {
			// The outcome slot absorbs the error so one failed patient
			// does not cancel the siblings.
			outcomes[i] = AssignOutcome{PatientID: patientID, Err: s.attachOwned(grpCtx, goalID, professionalID, patientID)}
			return nil
		})
	}
	_ = grp.Wait()

	result := &AssignResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			result.Failed++
		} else {
			s.publish(ctx, CollectionPatients, o.PatientID, watch.ChangeModified)
		}
	}

	return result, nil
}

// attachOwned attaches the goal to one patient after checking the patient
// belongs to the acting professional.
func (s *GoalService) attachOwned(ctx context.Context, goalID, professionalID, patientID string) error {
	p, err := s.repomanager.Profiles(s.db).GetPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorMissingUser
		}
		return err
	}
	if p.ProfessionalID != professionalID {
		return common.ErrorUnauthorized
	}
	return s.repomanager.Goals(s.db).Attach(ctx, patientID, goalID)
}

// Unassign detaches a goal from one patient.
func (s *GoalService) Unassign(ctx context.Context, goalID, patientID string) error {
	if err := s.repomanager.Goals(s.db).Detach(ctx, patientID, goalID); err != nil {
		return err
	}
	s.publish(ctx, CollectionPatients, patientID, watch.ChangeModified)
	return nil
}

func (s *GoalService) publish(ctx context.Context, collection, docID string, kind watch.ChangeKind) {
	_ = s.broker.Publish(ctx, watch.Event{Collection: collection, DocID: docID, Kind: kind})
}
