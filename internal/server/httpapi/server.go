// Package httpapi exposes the document API over HTTP/JSON, plus a
// server-sent-events stream for snapshot subscriptions.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/logging"
	"github.com/mkrasovska/nutritrack/internal/server/auth"
	"github.com/mkrasovska/nutritrack/internal/server/config"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/services"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

type Server struct {
	cfg       *config.Config
	logger    logging.Logger
	accounts  *services.AccountService
	directory *services.DirectoryService
	profiles  *services.ProfileService
	goals     *services.GoalService
	transfer  *services.TransferService
	comments  *services.CommentService
	broker    watch.Broker
	jwtSecret []byte
}

func NewServer(cfg *config.Config, logger logging.Logger,
	accounts *services.AccountService, directory *services.DirectoryService,
	profiles *services.ProfileService, goals *services.GoalService,
	transfer *services.TransferService, comments *services.CommentService,
	broker watch.Broker) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		accounts:  accounts,
		directory: directory,
		profiles:  profiles,
		goals:     goals,
		transfer:  transfer,
		comments:  comments,
		broker:    broker,
		jwtSecret: []byte(cfg.SecretKey),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/signin", s.handleSignIn)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/signout", s.handleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/account", s.handleGetAccount)

		r.Get("/directory/admins", s.handleLookupAdmin)
		r.Get("/directory/professionals", s.handleLookupProfessional)
		r.Get("/directory/patients", s.handleLookupPatient)

		r.Get("/professionals", s.handleListProfessionals)
		r.Post("/professionals", s.handleProvisionProfessional)

		r.Get("/patients", s.handleListPatients)
		r.Post("/patients", s.handleProvisionPatient)
		r.Get("/patients/{patientID}", s.handleGetPatient)
		r.Put("/patients/{patientID}", s.handleUpdatePatient)
		r.Delete("/patients/{patientID}", s.handleDeletePatient)
		r.Post("/patients/transfer", s.handleTransfer)

		r.Get("/vocab/{kind}", s.handleListVocab)

		r.Post("/goals", s.handleCreateGoal)
		r.Get("/goals/templates", s.handleListGoalTemplates)
		r.Get("/goals/{goalID}", s.handleGetGoal)
		r.Delete("/goals/{goalID}", s.handleDeleteGoal)
		r.Post("/goals/{goalID}/assign", s.handleAssignGoal)
		r.Get("/patients/{patientID}/goals", s.handleListPatientGoals)
		r.Delete("/patients/{patientID}/goals/{goalID}", s.handleUnassignGoal)

		r.Get("/patients/{patientID}/comments", s.handleListComments)
		r.Post("/patients/{patientID}/comments", s.handlePostComment)
		r.Get("/attachments/upload-url", s.handleAttachmentUploadURL)
		r.Get("/attachments/download-url", s.handleAttachmentDownloadURL)

		r.Get("/watch", s.handleWatch)
	})

	return r
}

// Auth

type identityKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		identity, err := auth.GetIdentityFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(ctx context.Context) *auth.Identity {
	value := ctx.Value(identityKey{})
	identity, _ := value.(*auth.Identity)
	return identity
}

// requireRole extracts the caller and checks it has one of the given roles.
// On failure the response is already written and nil is returned.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, roles ...models.Role) *auth.Identity {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return nil
	}
	for _, role := range roles {
		if identity.Role == role {
			return identity
		}
	}
	writeError(w, http.StatusForbidden, "forbidden")
	return nil
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func parseLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// writeServiceError maps the sentinel error taxonomy onto HTTP statuses and
// stable error codes the client turns back into its own sentinels.
func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorMissingUser):
		writeError(w, http.StatusNotFound, "missing_user")
	case errors.Is(err, common.ErrorMissingData):
		writeError(w, http.StatusConflict, "missing_data")
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unknown")
	}
}
