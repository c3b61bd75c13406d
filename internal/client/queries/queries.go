// Package queries wraps the HTTP API with per-entity fetch helpers backed by
// the shared cache, plus the role-scoped profile resolution used by session
// loading.
package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrasovska/nutritrack/internal/client/api"
	"github.com/mkrasovska/nutritrack/internal/client/cache"
	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/client/session"
	"github.com/mkrasovska/nutritrack/internal/common"
)

type Queries struct {
	api   *api.Client
	cache *cache.Cache
}

func New(apiClient *api.Client, c *cache.Cache) *Queries {
	return &Queries{api: apiClient, cache: c}
}

// ResolveProfile determines which role collection the email belongs to and
// fetches the matching profile. Exactly one role is expected to match; the
// candidates are tried with fixed precedence admin → professional → patient,
// and a missing-user answer from one role falls through to the next. No
// match in any role is missing-user; any other error aborts immediately so a
// transport failure is never mistaken for an unknown account.
func (q *Queries) ResolveProfile(ctx context.Context, email string) (*session.Profile, error) {
	admin, err := q.api.LookupAdmin(ctx, email)
	if err == nil {
		return &session.Profile{Role: models.RoleAdmin, Admin: admin}, nil
	}
	if !errors.Is(err, common.ErrorMissingUser) {
		return nil, err
	}

	professional, err := q.api.LookupProfessional(ctx, email)
	if err == nil {
		return &session.Profile{Role: models.RoleProfessional, Professional: professional}, nil
	}
	if !errors.Is(err, common.ErrorMissingUser) {
		return nil, err
	}

	patient, err := q.api.LookupPatient(ctx, email)
	if err == nil {
		return &session.Profile{Role: models.RolePatient, Patient: patient}, nil
	}
	if !errors.Is(err, common.ErrorMissingUser) {
		return nil, err
	}

	return nil, common.ErrorMissingUser
}

// Cached reads. Keys follow "collection" or "collection/qualifier" so change
// events can invalidate by collection.

func (q *Queries) Patients(ctx context.Context) ([]models.Patient, error) {
	const key = "patients"
	if v, ok := q.cache.Get(key); ok {
		return v.([]models.Patient), nil
	}
	list, err := q.api.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, list)
	return list, nil
}

func (q *Queries) Patient(ctx context.Context, id string) (*models.Patient, error) {
	key := "patients/" + id
	if v, ok := q.cache.Get(key); ok {
		return v.(*models.Patient), nil
	}
	p, err := q.api.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, p)
	return p, nil
}

func (q *Queries) Professionals(ctx context.Context) ([]models.Professional, error) {
	const key = "professionals"
	if v, ok := q.cache.Get(key); ok {
		return v.([]models.Professional), nil
	}
	list, err := q.api.ListProfessionals(ctx)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, list)
	return list, nil
}

func (q *Queries) PatientGoals(ctx context.Context, patientID string) ([]models.Goal, error) {
	key := "goals/patient/" + patientID
	if v, ok := q.cache.Get(key); ok {
		return v.([]models.Goal), nil
	}
	list, err := q.api.ListPatientGoals(ctx, patientID)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, list)
	return list, nil
}

func (q *Queries) GoalTemplates(ctx context.Context) ([]models.Goal, error) {
	const key = "goals/templates"
	if v, ok := q.cache.Get(key); ok {
		return v.([]models.Goal), nil
	}
	list, err := q.api.ListGoalTemplates(ctx)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, list)
	return list, nil
}

func (q *Queries) Vocab(ctx context.Context, kind string) ([]models.VocabItem, error) {
	// Vocabulary is seeded by migration and effectively immutable, so it is
	// cached without a watch subscription.
	key := "vocab/" + kind
	if v, ok := q.cache.Get(key); ok {
		return v.([]models.VocabItem), nil
	}
	list, err := q.api.ListVocab(ctx, kind)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, list)
	return list, nil
}

func (q *Queries) Comments(ctx context.Context, patientID string) ([]models.Comment, error) {
	key := "comments/" + patientID
	if v, ok := q.cache.Get(key); ok {
		return v.([]models.Comment), nil
	}
	list, err := q.api.ListComments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	q.cache.Set(key, list)
	return list, nil
}

// Subscribe opens a change stream for one collection and invalidates the
// matching cache entries on every event, then calls onChange (if set) so a
// screen can refetch. The returned cancel tears the subscription down; it is
// called on screen exit.
func (q *Queries) Subscribe(ctx context.Context, collection string, onChange func(models.ChangeEvent)) (func(), error) {
	events, cancel, err := q.api.Watch(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("error subscribing to %s: %w", collection, err)
	}

	go func() {
		for event := range events {
			q.cache.InvalidateCollection(event.Collection)
			if onChange != nil {
				onChange(event)
			}
		}
	}()

	return cancel, nil
}

// InvalidateAll clears the cache, e.g. on sign-out.
func (q *Queries) InvalidateAll() {
	q.cache.Clear()
}
