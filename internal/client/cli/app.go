package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/mkrasovska/nutritrack/internal/client/api"
	"github.com/mkrasovska/nutritrack/internal/client/cache"
	"github.com/mkrasovska/nutritrack/internal/client/config"
	"github.com/mkrasovska/nutritrack/internal/client/localstore"
	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/client/notify"
	"github.com/mkrasovska/nutritrack/internal/client/queries"
	"github.com/mkrasovska/nutritrack/internal/client/session"
)

type App struct {
	config    *config.Config
	api       *api.Client
	queries   *queries.Queries
	store     *localstore.Store
	scheduler *notify.Scheduler
	session   *session.Manager
	reader    *bufio.Reader

	// cancelers for the live subscriptions of the current sign-in.
	watchCancels []func()
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	store, err := localstore.Open(ctx, c.DatabaseFile)
	if err != nil {
		log.Printf("error initializing local store: %s", err.Error())
		return nil, err
	}

	apiClient := api.NewClient(c.ServerEndpointAddr, c.RequestTimeout)
	q := queries.New(apiClient, cache.New())

	manager := session.NewManager(
		func(ctx context.Context) (*api.AccountMetadata, error) {
			return apiClient.GetAccount(ctx)
		},
		q.ResolveProfile,
	)

	scheduler := notify.NewScheduler(func(r notify.Reminder) {
		log.Printf("REMINDER: %s — %s", r.Title, r.Body)
	})

	return &App{
		config:    c,
		api:       apiClient,
		queries:   q,
		store:     store,
		scheduler: scheduler,
		session:   manager,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	a.stopWatches()
	a.scheduler.CancelAll()
	if err := a.store.Close(); err != nil {
		log.Printf("error closing local store: %s", err.Error())
	}
}

func (a *App) isSignedIn() bool {
	return a.session.Current().Phase == session.PhaseValid
}

func (a *App) role() models.Role {
	s := a.session.Current()
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

// restoreCredential re-establishes a session from a token pair stored by a
// previous run.
func (a *App) restoreCredential(ctx context.Context) {
	raw, err := a.store.Get(ctx, localstore.KeyCredential)
	if err != nil {
		return
	}

	var cred models.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return
	}

	a.api.SetTokens(cred.AccessToken, cred.RefreshToken)
	s := a.session.Establish(ctx, &cred)
	if s.Phase == session.PhaseValid {
		log.Printf("Restored session for %s (%s)", cred.Email, cred.Role)
		a.startWatches(ctx)
	}
}

func (a *App) persistCredential(ctx context.Context, cred *models.Credential) {
	access, refresh := a.api.Tokens()
	cred.AccessToken = access
	cred.RefreshToken = refresh

	raw, err := json.Marshal(cred)
	if err != nil {
		return
	}
	if err := a.store.Set(ctx, localstore.KeyCredential, raw); err != nil {
		log.Printf("error persisting credential: %s", err.Error())
	}
}

// startWatches opens the live subscriptions for the signed-in role. Events
// invalidate the query cache so the next read refetches.
func (a *App) startWatches(ctx context.Context) {
	collections := []string{"patients", "goals", "comments"}
	for _, collection := range collections {
		cancel, err := a.queries.Subscribe(ctx, collection, nil)
		if err != nil {
			log.Printf("error watching %s: %s", collection, err.Error())
			continue
		}
		a.watchCancels = append(a.watchCancels, cancel)
	}
}

func (a *App) stopWatches() {
	for _, cancel := range a.watchCancels {
		cancel()
	}
	a.watchCancels = nil
}
