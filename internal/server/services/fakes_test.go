package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	accountsrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/accounts"
	commentsrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/comments"
	credentialsrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/credentials"
	goalsrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/goals"
	profilesrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/profiles"
	refreshtokensrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/refreshtokens"
	vocabrepo "github.com/mkrasovska/nutritrack/internal/server/repositories/vocab"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

// --- helpers shared by the service tests ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// fakeBroker records published events so tests can assert on the change feed.
// It also records the context state seen at publish time, since the real
// Redis broker refuses to publish on a cancelled context.
type fakeBroker struct {
	mu      sync.Mutex
	events  []watch.Event
	ctxErrs []error
}

func (b *fakeBroker) Publish(ctx context.Context, event watch.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	b.ctxErrs = append(b.ctxErrs, ctx.Err())
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, collection string) (<-chan watch.Event, func(), error) {
	ch := make(chan watch.Event)
	return ch, func() { close(ch) }, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) published() []watch.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]watch.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *fakeBroker) publishCtxErrs() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]error, len(b.ctxErrs))
	copy(out, b.ctxErrs)
	return out
}

// --- fake repositories ---

type fakeAccountsRepo struct {
	account   *models.Account
	getErr    error
	createErr error

	created   []*models.Account
	activated []string
	deleted   []string

	activateErr error
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAccountsRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.account, nil
}

func (f *fakeAccountsRepo) Activate(ctx context.Context, email string) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, email)
	return nil
}

func (f *fakeAccountsRepo) Delete(ctx context.Context, email string) error {
	f.deleted = append(f.deleted, email)
	return nil
}

type fakeCredentialsRepo struct {
	cred   *models.Credential
	getErr error

	byUID    *models.Credential
	byUIDErr error

	createOut *models.Credential
	createErr error
	created   []*models.Credential
}

func (f *fakeCredentialsRepo) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, c)
	if f.createOut != nil {
		return f.createOut, nil
	}
	return c, nil
}

func (f *fakeCredentialsRepo) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.cred, nil
}

func (f *fakeCredentialsRepo) GetByUID(ctx context.Context, uid string) (*models.Credential, error) {
	if f.byUIDErr != nil {
		return nil, f.byUIDErr
	}
	return f.byUID, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	createErr error
	delErr    error
	deleted   []string
}

func (f *fakeRefreshRepo) Create(ctx context.Context, uid string, token string, validity time.Duration) error {
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

type fakeProfilesRepo struct {
	admin    *models.Admin
	adminErr error

	professional    *models.Professional
	professionalErr error

	professionalByEmail    *models.Professional
	professionalByEmailErr error

	professionals []*models.Professional

	patient    *models.Patient
	patientErr error

	patientByEmail    *models.Patient
	patientByEmailErr error

	patients []*models.Patient

	createProfessionalErr error
	createdProfessionals  []*models.Professional

	createPatientFn func(ctx context.Context, p *models.Patient) (*models.Patient, error)
	createdPatients []*models.Patient

	getPatientFn func(ctx context.Context, id string) (*models.Patient, error)

	updatePatientErr error

	deletePatientFn func(ctx context.Context, id string) error
	deletedPatients []string
}

func (f *fakeProfilesRepo) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return f.admin, nil
}

func (f *fakeProfilesRepo) CreateProfessional(ctx context.Context, p *models.Professional) (*models.Professional, error) {
	if f.createProfessionalErr != nil {
		return nil, f.createProfessionalErr
	}
	f.createdProfessionals = append(f.createdProfessionals, p)
	return p, nil
}

func (f *fakeProfilesRepo) GetProfessional(ctx context.Context, id string) (*models.Professional, error) {
	if f.professionalErr != nil {
		return nil, f.professionalErr
	}
	return f.professional, nil
}

func (f *fakeProfilesRepo) GetProfessionalByEmail(ctx context.Context, email string) (*models.Professional, error) {
	if f.professionalByEmailErr != nil {
		return nil, f.professionalByEmailErr
	}
	return f.professionalByEmail, nil
}

func (f *fakeProfilesRepo) ListProfessionals(ctx context.Context) ([]*models.Professional, error) {
	return f.professionals, nil
}

func (f *fakeProfilesRepo) DeleteProfessional(ctx context.Context, id string) error { return nil }

func (f *fakeProfilesRepo) CreatePatient(ctx context.Context, p *models.Patient) (*models.Patient, error) {
	if f.createPatientFn != nil {
		return f.createPatientFn(ctx, p)
	}
	f.createdPatients = append(f.createdPatients, p)
	return p, nil
}

func (f *fakeProfilesRepo) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	if f.getPatientFn != nil {
		return f.getPatientFn(ctx, id)
	}
	if f.patientErr != nil {
		return nil, f.patientErr
	}
	return f.patient, nil
}

func (f *fakeProfilesRepo) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	if f.patientByEmailErr != nil {
		return nil, f.patientByEmailErr
	}
	return f.patientByEmail, nil
}

func (f *fakeProfilesRepo) ListPatients(ctx context.Context, professionalID string) ([]*models.Patient, error) {
	return f.patients, nil
}

func (f *fakeProfilesRepo) UpdatePatient(ctx context.Context, p *models.Patient) error {
	return f.updatePatientErr
}

func (f *fakeProfilesRepo) DeletePatient(ctx context.Context, id string) error {
	if f.deletePatientFn != nil {
		return f.deletePatientFn(ctx, id)
	}
	f.deletedPatients = append(f.deletedPatients, id)
	return nil
}

type fakeGoalsRepo struct {
	goal   *models.Goal
	getErr error

	createOut *models.Goal
	createErr error
	created   []*models.Goal

	deleteErr error

	templates []*models.Goal
	byPatient []*models.Goal

	ids    []string
	idsErr error

	attachFn func(ctx context.Context, patientID, goalID string) error
	attachMu sync.Mutex
	attached []string

	detachErr error

	copyFn func(ctx context.Context, fromPatientID, toPatientID string) error
}

func (f *fakeGoalsRepo) Create(ctx context.Context, g *models.Goal) (*models.Goal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, g)
	if f.createOut != nil {
		return f.createOut, nil
	}
	return g, nil
}

func (f *fakeGoalsRepo) Get(ctx context.Context, id string) (*models.Goal, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.goal, nil
}

func (f *fakeGoalsRepo) Delete(ctx context.Context, id string) error { return f.deleteErr }

func (f *fakeGoalsRepo) ListTemplates(ctx context.Context, authorID string) ([]*models.Goal, error) {
	return f.templates, nil
}

func (f *fakeGoalsRepo) Attach(ctx context.Context, patientID, goalID string) error {
	f.attachMu.Lock()
	f.attached = append(f.attached, patientID)
	f.attachMu.Unlock()
	if f.attachFn != nil {
		return f.attachFn(ctx, patientID, goalID)
	}
	return nil
}

func (f *fakeGoalsRepo) Detach(ctx context.Context, patientID, goalID string) error {
	return f.detachErr
}

func (f *fakeGoalsRepo) ListByPatient(ctx context.Context, patientID string) ([]*models.Goal, error) {
	return f.byPatient, nil
}

func (f *fakeGoalsRepo) ListIDsByPatient(ctx context.Context, patientID string) ([]string, error) {
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	return f.ids, nil
}

func (f *fakeGoalsRepo) CopyAttachments(ctx context.Context, fromPatientID, toPatientID string) error {
	if f.copyFn != nil {
		return f.copyFn(ctx, fromPatientID, toPatientID)
	}
	return nil
}

func (f *fakeGoalsRepo) attempts() []string {
	f.attachMu.Lock()
	defer f.attachMu.Unlock()
	out := make([]string, len(f.attached))
	copy(out, f.attached)
	return out
}

type fakeCommentsRepo struct {
	createOut *models.Comment
	createErr error
	created   []*models.Comment

	list    []*models.Comment
	listErr error
}

func (f *fakeCommentsRepo) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, c)
	if f.createOut != nil {
		return f.createOut, nil
	}
	return c, nil
}

func (f *fakeCommentsRepo) ListByPatient(ctx context.Context, patientID string, limit int) ([]*models.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

type fakeVocabRepo struct {
	list    []*models.VocabItem
	listErr error

	items  map[string]*models.VocabItem
	getErr error
}

func (f *fakeVocabRepo) List(ctx context.Context, kind models.VocabKind) ([]*models.VocabItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeVocabRepo) Get(ctx context.Context, id string) (*models.VocabItem, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	item, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return item, nil
}

// fakeRepoManager hands out the same fake repositories regardless of the
// DBTX, so transactional code paths share state with the test.
type fakeRepoManager struct {
	accounts    *fakeAccountsRepo
	credentials *fakeCredentialsRepo
	refresh     *fakeRefreshRepo
	profiles    *fakeProfilesRepo
	goals       *fakeGoalsRepo
	comments    *fakeCommentsRepo
	vocab       *fakeVocabRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.accounts }

func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentialsrepo.Repository {
	return m.credentials
}

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.refresh
}

func (m *fakeRepoManager) Profiles(db dbx.DBTX) profilesrepo.Repository { return m.profiles }

func (m *fakeRepoManager) Goals(db dbx.DBTX) goalsrepo.Repository { return m.goals }

func (m *fakeRepoManager) Comments(db dbx.DBTX) commentsrepo.Repository { return m.comments }

func (m *fakeRepoManager) Vocab(db dbx.DBTX) vocabrepo.Repository { return m.vocab }
