package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/logging"
	"github.com/mkrasovska/nutritrack/internal/server/auth"
	"github.com/mkrasovska/nutritrack/internal/server/config"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

func newTestServer(t *testing.T, broker watch.Broker) *Server {
	t.Helper()
	cfg := &config.Config{SecretKey: "test-secret"}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewServer(cfg, logger, nil, nil, nil, nil, nil, nil, broker)
}

func tokenFor(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.Identity{UID: "u1", Email: "u@x.io", Role: role}, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		if got := bearerToken(tt.header); got != tt.want {
			t.Fatalf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, watch.NewMemoryBroker())

	var seen *auth.Identity
	handler := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Missing token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}

	// Valid token reaches the handler with the identity installed.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, models.RoleProfessional))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", rec.Code)
	}
	if seen == nil || seen.Role != models.RoleProfessional || seen.Email != "u@x.io" {
		t.Fatalf("identity not installed: %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	s := newTestServer(t, watch.NewMemoryBroker())

	identity := &auth.Identity{UID: "u1", Role: models.RolePatient}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), identityKey{}, identity))

	rec := httptest.NewRecorder()
	if got := s.requireRole(rec, req, models.RolePatient, models.RoleProfessional); got == nil {
		t.Fatalf("matching role rejected")
	}

	rec = httptest.NewRecorder()
	if got := s.requireRole(rec, req, models.RoleAdmin); got != nil {
		t.Fatalf("mismatched role accepted")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestWriteServiceError(t *testing.T) {
	s := newTestServer(t, watch.NewMemoryBroker())

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.ErrorMissingUser, http.StatusNotFound, "missing_user"},
		{common.ErrorMissingData, http.StatusConflict, "missing_data"},
		{common.ErrorInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{common.ErrRefreshTokenExpired, http.StatusUnauthorized, "invalid_token"},
		{common.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{common.ErrorUnauthorized, http.StatusForbidden, "forbidden"},
		{common.ErrorNotFound, http.StatusNotFound, "not_found"},
		{errors.New("surprise"), http.StatusInternalServerError, "unknown"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.writeServiceError(context.Background(), rec, tt.err)
		if rec.Code != tt.status {
			t.Fatalf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: body: %v", tt.err, err)
		}
		if body["error"] != tt.code {
			t.Fatalf("%v: code = %q, want %q", tt.err, body["error"], tt.code)
		}
	}
}

func TestParseLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=10", nil)
	if got := parseLimit(req, 50); got != 10 {
		t.Fatalf("limit = %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/x?limit=junk", nil)
	if got := parseLimit(req, 50); got != 50 {
		t.Fatalf("fallback = %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/x?limit=-3", nil)
	if got := parseLimit(req, 50); got != 50 {
		t.Fatalf("negative = %d", got)
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"email":"a","bogus":1}`))
	var out struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(req, &out); err == nil {
		t.Fatalf("unknown field accepted")
	}
}

func TestWatch_StreamsEvents(t *testing.T) {
	broker := watch.NewMemoryBroker()
	s := newTestServer(t, broker)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/watch?collection=patients", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, models.RoleProfessional))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// The subscription races the publish; give the handler a moment.
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = broker.Publish(context.Background(), watch.Event{
			Collection: "patients", DocID: "p1", Kind: watch.ChangeModified,
		})
	}()

	reader := bufio.NewReader(resp.Body)
	deadline := time.After(5 * time.Second)
	lineCh := make(chan string, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") {
				lineCh <- strings.TrimSpace(strings.TrimPrefix(line, "data: "))
				return
			}
		}
	}()

	select {
	case payload := <-lineCh:
		var event watch.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			t.Fatalf("payload %q: %v", payload, err)
		}
		if event.Collection != "patients" || event.DocID != "p1" || event.Kind != watch.ChangeModified {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-deadline:
		t.Fatalf("no event received on the stream")
	}
}

func TestWatch_RequiresCollection(t *testing.T) {
	s := newTestServer(t, watch.NewMemoryBroker())
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/watch", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, models.RoleProfessional))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
