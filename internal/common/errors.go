// Package common defines shared constants and sentinel errors used across
// client and server layers of nutritrack. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Lookup taxonomy surfaced to the UI. ErrorMissingUser means a query
	// that must return exactly one match returned zero; ErrorMissingData
	// means the document exists but a required field is absent.
	ErrorMissingUser = errors.New("missing user")
	ErrorMissingData = errors.New("missing data")

	// Auth errors.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken         = errors.New("invalid token")

	// Token lifecycle errors.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrorUnknown  = errors.New("unknown error")
)
