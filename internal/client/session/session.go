// Package session derives the client session phase from three
// independently-loading inputs: the stored credential, the account metadata
// keyed by the credential's email, and the role profile. Derivation is a
// pure function re-run on every input change; it holds no state of its own
// and performs no retries — an error input keeps the session invalid until
// some input changes.
package session

import (
	"github.com/mkrasovska/nutritrack/internal/client/api"
	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/common"
)

// Phase is the derived session state.
type Phase string

const (
	// PhaseSignedOut: no credential is present.
	PhaseSignedOut Phase = "signed-out"
	// PhasePending: some required input is still loading.
	PhasePending Phase = "pending"
	// PhaseInvalid: some input errored; sticky until an input changes.
	PhaseInvalid Phase = "invalid"
	// PhasePendingVerification: credential + metadata present but the
	// account is not verified yet. The profile is never fetched in this
	// phase.
	PhasePendingVerification Phase = "pending-verification"
	// PhaseValid: credential, metadata and profile all present.
	PhaseValid Phase = "valid"
)

// Source is the observed state of one loadable input.
type Source[T any] struct {
	Loading bool
	Err     error
	Value   *T
}

// Loaded wraps a resolved value.
func Loaded[T any](v *T) Source[T] {
	return Source[T]{Value: v}
}

// LoadingSource marks an input as still in flight.
func LoadingSource[T any]() Source[T] {
	return Source[T]{Loading: true}
}

// Failed marks an input as errored.
func Failed[T any](err error) Source[T] {
	return Source[T]{Err: err}
}

// Profile is the resolved role profile, exactly one branch set.
type Profile struct {
	Role         models.Role
	Admin        *models.Admin
	Professional *models.Professional
	Patient      *models.Patient
}

// Session is the derived result. Credential, Metadata and Profile are
// populated progressively with the phase: pending-verification carries
// credential + metadata only, valid carries all three.
type Session struct {
	Phase      Phase
	Err        error
	Credential *models.Credential
	Metadata   *api.AccountMetadata
	Profile    *Profile
}

// Derive computes the session phase. The checks form a short-circuit
// cascade, evaluated strictly in order:
//
//  1. credential loading        → pending
//  2. credential errored        → invalid
//  3. no credential             → signed-out
//  4. metadata loading          → pending
//  5. metadata errored          → invalid
//  6. metadata unverified       → pending-verification
//  7. profile loading           → pending
//  8. profile errored           → invalid
//  9. otherwise                 → valid
//
// The ordering is deliberate: the profile is only consulted once
// verification is confirmed, so an unverified account never reaches valid
// even when its profile happens to be fetchable, and a profile error is
// never masked by a later-resolving metadata success.
func Derive(cred Source[models.Credential], meta Source[api.AccountMetadata], profile Source[Profile]) Session {
	if cred.Loading {
		return Session{Phase: PhasePending}
	}
	if cred.Err != nil {
		return Session{Phase: PhaseInvalid, Err: cred.Err}
	}
	if cred.Value == nil {
		return Session{Phase: PhaseSignedOut}
	}

	if meta.Loading {
		return Session{Phase: PhasePending, Credential: cred.Value}
	}
	if meta.Err != nil {
		return Session{Phase: PhaseInvalid, Err: meta.Err, Credential: cred.Value}
	}
	if meta.Value == nil {
		return Session{Phase: PhaseInvalid, Err: common.ErrorMissingData, Credential: cred.Value}
	}
	if !meta.Value.Verified {
		return Session{Phase: PhasePendingVerification, Credential: cred.Value, Metadata: meta.Value}
	}

	if profile.Loading {
		return Session{Phase: PhasePending, Credential: cred.Value, Metadata: meta.Value}
	}
	if profile.Err != nil {
		return Session{Phase: PhaseInvalid, Err: profile.Err, Credential: cred.Value, Metadata: meta.Value}
	}
	if profile.Value == nil {
		return Session{Phase: PhaseInvalid, Err: common.ErrorMissingData, Credential: cred.Value, Metadata: meta.Value}
	}

	return Session{
		Phase:      PhaseValid,
		Credential: cred.Value,
		Metadata:   meta.Value,
		Profile:    profile.Value,
	}
}
