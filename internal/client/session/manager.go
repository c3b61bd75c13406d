package session

import (
	"context"
	"sync"

	"github.com/mkrasovska/nutritrack/internal/client/api"
	"github.com/mkrasovska/nutritrack/internal/client/models"
)

// MetadataLoader fetches the account metadata for the current credential.
type MetadataLoader func(ctx context.Context) (*api.AccountMetadata, error)

// ProfileLoader resolves the role profile for an email.
type ProfileLoader func(ctx context.Context, email string) (*Profile, error)

// Manager owns the current session and re-derives it whenever an input
// changes. Loaders are injected so the derivation cascade can be exercised
// without a server.
type Manager struct {
	loadMetadata MetadataLoader
	loadProfile  ProfileLoader

	mu      sync.Mutex
	current Session
}

func NewManager(loadMetadata MetadataLoader, loadProfile ProfileLoader) *Manager {
	return &Manager{
		loadMetadata: loadMetadata,
		loadProfile:  loadProfile,
		current:      Session{Phase: PhaseSignedOut},
	}
}

// Current returns the last derived session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) set(s Session) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	return s
}

// SignOut drops the credential input; the derived session is signed-out.
func (m *Manager) SignOut() Session {
	return m.set(Derive(Source[models.Credential]{}, Source[api.AccountMetadata]{}, Source[Profile]{}))
}

// Establish runs the input cascade for a fresh credential: metadata first,
// then — only once the account is verified — the role profile. Each step
// re-derives, so an error at any point leaves the session invalid and an
// unverified account stops at pending-verification without a profile fetch.
func (m *Manager) Establish(ctx context.Context, cred *models.Credential) Session {
	credSource := Loaded(cred)

	m.set(Derive(credSource, LoadingSource[api.AccountMetadata](), LoadingSource[Profile]()))

	meta, err := m.loadMetadata(ctx)
	if err != nil {
		return m.set(Derive(credSource, Failed[api.AccountMetadata](err), LoadingSource[Profile]()))
	}
	metaSource := Loaded(meta)

	if !meta.Verified {
		return m.set(Derive(credSource, metaSource, LoadingSource[Profile]()))
	}

	m.set(Derive(credSource, metaSource, LoadingSource[Profile]()))

	profile, err := m.loadProfile(ctx, cred.Email)
	if err != nil {
		return m.set(Derive(credSource, metaSource, Failed[Profile](err)))
	}

	return m.set(Derive(credSource, metaSource, Loaded(profile)))
}
