package httpapi

import (
	"net/http"

	"github.com/mkrasovska/nutritrack/internal/common"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UID          string `json:"uid"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Verified     bool   `json:"verified"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	pair, identity, err := s.accounts.SignIn(r.Context(), req.Email, password)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UID:          identity.UID,
		Email:        identity.Email,
		Role:         string(identity.Role),
		Verified:     true,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	pair, identity, err := s.accounts.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UID:          identity.UID,
		Email:        identity.Email,
		Role:         string(identity.Role),
		Verified:     true,
	})
}

type accountResponse struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// handleGetAccount returns the caller's own account metadata. Feeds the
// client-side session derivation's metadata input.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	account, err := s.accounts.Metadata(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Email:    account.Email,
		Role:     string(account.Role),
		Verified: account.Verified,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.accounts.SignOut(r.Context(), req.RefreshToken); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
