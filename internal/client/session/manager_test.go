package session

import (
	"context"
	"errors"
	"testing"

	"github.com/mkrasovska/nutritrack/internal/client/api"
	"github.com/mkrasovska/nutritrack/internal/client/models"
)

func testCredential() *models.Credential {
	return &models.Credential{UID: "u1", Email: "pat@x.io", Role: models.RolePatient}
}

func TestEstablish_Valid(t *testing.T) {
	profileCalls := 0
	m := NewManager(
		func(ctx context.Context) (*api.AccountMetadata, error) {
			return &api.AccountMetadata{Email: "pat@x.io", Role: models.RolePatient, Verified: true}, nil
		},
		func(ctx context.Context, email string) (*Profile, error) {
			profileCalls++
			if email != "pat@x.io" {
				t.Fatalf("profile looked up for %q", email)
			}
			return &Profile{Role: models.RolePatient, Patient: &models.Patient{ID: "p1"}}, nil
		},
	)

	s := m.Establish(context.Background(), testCredential())
	if s.Phase != PhaseValid {
		t.Fatalf("phase = %s, want valid", s.Phase)
	}
	if profileCalls != 1 {
		t.Fatalf("profile loader calls: %d", profileCalls)
	}
	if got := m.Current(); got.Phase != PhaseValid {
		t.Fatalf("Current() = %s", got.Phase)
	}
}

func TestEstablish_UnverifiedSkipsProfileFetch(t *testing.T) {
	profileCalls := 0
	m := NewManager(
		func(ctx context.Context) (*api.AccountMetadata, error) {
			return &api.AccountMetadata{Email: "pat@x.io", Role: models.RolePatient, Verified: false}, nil
		},
		func(ctx context.Context, email string) (*Profile, error) {
			profileCalls++
			return &Profile{}, nil
		},
	)

	s := m.Establish(context.Background(), testCredential())
	if s.Phase != PhasePendingVerification {
		t.Fatalf("phase = %s, want pending-verification", s.Phase)
	}
	if profileCalls != 0 {
		t.Fatalf("profile fetched for an unverified account")
	}
}

func TestEstablish_MetadataError(t *testing.T) {
	boom := errors.New("metadata down")
	m := NewManager(
		func(ctx context.Context) (*api.AccountMetadata, error) { return nil, boom },
		func(ctx context.Context, email string) (*Profile, error) {
			t.Fatalf("profile loader must not run after a metadata error")
			return nil, nil
		},
	)

	s := m.Establish(context.Background(), testCredential())
	if s.Phase != PhaseInvalid || !errors.Is(s.Err, boom) {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestEstablish_ProfileError(t *testing.T) {
	boom := errors.New("profile down")
	m := NewManager(
		func(ctx context.Context) (*api.AccountMetadata, error) {
			return &api.AccountMetadata{Verified: true}, nil
		},
		func(ctx context.Context, email string) (*Profile, error) { return nil, boom },
	)

	s := m.Establish(context.Background(), testCredential())
	if s.Phase != PhaseInvalid || !errors.Is(s.Err, boom) {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestSignOut(t *testing.T) {
	m := NewManager(
		func(ctx context.Context) (*api.AccountMetadata, error) {
			return &api.AccountMetadata{Verified: true}, nil
		},
		func(ctx context.Context, email string) (*Profile, error) {
			return &Profile{Role: models.RolePatient}, nil
		},
	)

	m.Establish(context.Background(), testCredential())
	s := m.SignOut()
	if s.Phase != PhaseSignedOut || s.Credential != nil {
		t.Fatalf("unexpected session after sign-out: %+v", s)
	}
}
