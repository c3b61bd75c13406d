// Package api is the HTTP client for the backend document API. It owns the
// token pair, refreshing it transparently when an access token expires, and
// converts the wire error codes back into the shared sentinel taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/common"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetTokens installs a token pair, e.g. one restored from the local store.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current token pair.
func (c *Client) Tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

type errorResponse struct {
	Error string `json:"error"`
}

// mapErrorCode converts a wire error code into a sentinel error. Unknown
// codes collapse into ErrorUnknown.
func mapErrorCode(code string) error {
	switch code {
	case "missing_user":
		return common.ErrorMissingUser
	case "missing_data":
		return common.ErrorMissingData
	case "invalid_credentials":
		return common.ErrorInvalidCredentials
	case "invalid_token", "missing_token":
		return common.ErrInvalidToken
	case "forbidden":
		return common.ErrorUnauthorized
	case "not_found":
		return common.ErrorNotFound
	default:
		return common.ErrorUnknown
	}
}

func decodeErrorBody(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.ErrorUnknown
	}
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return common.ErrorUnknown
	}
	return mapErrorCode(e.Error)
}

// doJSON performs one authenticated request, decoding a JSON response into
// out (when out is non-nil). On an invalid-token response it refreshes the
// token pair once and retries.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	err := c.doJSONOnce(ctx, method, path, body, out)
	if err == nil || !isTokenError(err) {
		return err
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		return err
	}
	return c.doJSONOnce(ctx, method, path, body, out)
}

func isTokenError(err error) bool {
	return errors.Is(err, common.ErrInvalidToken)
}

func (c *Client) doJSONOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.Tokens(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorUnknown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeErrorBody(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// Auth

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignIn authenticates and installs the returned token pair.
func (c *Client) SignIn(ctx context.Context, email string, password []byte) (*models.Credential, error) {
	var cred models.Credential
	err := c.doJSONOnce(ctx, http.MethodPost, "/auth/signin", signInRequest{
		Email:    email,
		Password: string(password),
	}, &cred)
	if err != nil {
		return nil, err
	}
	c.SetTokens(cred.AccessToken, cred.RefreshToken)
	return &cred, nil
}

func (c *Client) refresh(ctx context.Context) error {
	_, refreshToken := c.Tokens()
	if refreshToken == "" {
		return common.ErrInvalidToken
	}

	var cred models.Credential
	if err := c.doJSONOnce(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &cred); err != nil {
		return err
	}
	c.SetTokens(cred.AccessToken, cred.RefreshToken)
	return nil
}

// SignOut revokes the refresh token and clears the local pair.
func (c *Client) SignOut(ctx context.Context) error {
	_, refreshToken := c.Tokens()
	if refreshToken == "" {
		return nil
	}
	err := c.doJSONOnce(ctx, http.MethodPost, "/auth/signout", refreshRequest{RefreshToken: refreshToken}, nil)
	c.SetTokens("", "")
	return err
}

// AccountMetadata is the caller's own account metadata row.
type AccountMetadata struct {
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Verified bool        `json:"verified"`
}

// GetAccount returns the caller's own account metadata.
func (c *Client) GetAccount(ctx context.Context) (*AccountMetadata, error) {
	var meta AccountMetadata
	if err := c.doJSON(ctx, http.MethodGet, "/account", nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Directory

func (c *Client) LookupAdmin(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := c.doJSON(ctx, http.MethodGet, "/directory/admins?email="+url.QueryEscape(email), nil, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (c *Client) LookupProfessional(ctx context.Context, email string) (*models.Professional, error) {
	var p models.Professional
	if err := c.doJSON(ctx, http.MethodGet, "/directory/professionals?email="+url.QueryEscape(email), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) LookupPatient(ctx context.Context, email string) (*models.Patient, error) {
	var p models.Patient
	if err := c.doJSON(ctx, http.MethodGet, "/directory/patients?email="+url.QueryEscape(email), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Profiles

type ProvisionProfessionalRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone"`
	TempPassword string `json:"temp_password"`
}

func (c *Client) ProvisionProfessional(ctx context.Context, req ProvisionProfessionalRequest) (*models.Professional, error) {
	var p models.Professional
	if err := c.doJSON(ctx, http.MethodPost, "/professionals", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListProfessionals(ctx context.Context) ([]models.Professional, error) {
	var list []models.Professional
	if err := c.doJSON(ctx, http.MethodGet, "/professionals", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type ProvisionPatientRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone"`
	BirthDate    string `json:"birth_date"`
	TempPassword string `json:"temp_password"`
}

func (c *Client) ProvisionPatient(ctx context.Context, req ProvisionPatientRequest) (*models.Patient, error) {
	var p models.Patient
	if err := c.doJSON(ctx, http.MethodPost, "/patients", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var list []models.Patient
	if err := c.doJSON(ctx, http.MethodGet, "/patients", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	if err := c.doJSON(ctx, http.MethodGet, "/patients/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type UpdatePatientRequest struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
}

func (c *Client) UpdatePatient(ctx context.Context, id string, req UpdatePatientRequest) (*models.Patient, error) {
	var p models.Patient
	if err := c.doJSON(ctx, http.MethodPut, "/patients/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/patients/"+url.PathEscape(id), nil, nil)
}

type transferRequest struct {
	TargetProfessionalID string   `json:"target_professional_id"`
	PatientIDs           []string `json:"patient_ids"`
}

func (c *Client) TransferPatients(ctx context.Context, targetProfessionalID string, patientIDs []string) ([]models.TransferOutcome, error) {
	var outcomes []models.TransferOutcome
	err := c.doJSON(ctx, http.MethodPost, "/patients/transfer", transferRequest{
		TargetProfessionalID: targetProfessionalID,
		PatientIDs:           patientIDs,
	}, &outcomes)
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Vocabulary and goals

func (c *Client) ListVocab(ctx context.Context, kind string) ([]models.VocabItem, error) {
	var list []models.VocabItem
	if err := c.doJSON(ctx, http.MethodGet, "/vocab/"+url.PathEscape(kind), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateGoal(ctx context.Context, goal *models.Goal) (*models.Goal, error) {
	var created models.Goal
	if err := c.doJSON(ctx, http.MethodPost, "/goals", goal, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	var g models.Goal
	if err := c.doJSON(ctx, http.MethodGet, "/goals/"+url.PathEscape(id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/goals/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListGoalTemplates(ctx context.Context) ([]models.Goal, error) {
	var list []models.Goal
	if err := c.doJSON(ctx, http.MethodGet, "/goals/templates", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ListPatientGoals(ctx context.Context, patientID string) ([]models.Goal, error) {
	var list []models.Goal
	if err := c.doJSON(ctx, http.MethodGet, "/patients/"+url.PathEscape(patientID)+"/goals", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type assignRequest struct {
	PatientIDs []string `json:"patient_ids"`
}

func (c *Client) AssignGoal(ctx context.Context, goalID string, patientIDs []string) (*models.AssignResult, error) {
	var result models.AssignResult
	err := c.doJSON(ctx, http.MethodPost, "/goals/"+url.PathEscape(goalID)+"/assign", assignRequest{PatientIDs: patientIDs}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UnassignGoal(ctx context.Context, patientID, goalID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/patients/"+url.PathEscape(patientID)+"/goals/"+url.PathEscape(goalID), nil, nil)
}

// Comments and attachments

type postCommentRequest struct {
	Text          string `json:"text"`
	AttachmentKey string `json:"attachment_key,omitempty"`
}

func (c *Client) PostComment(ctx context.Context, patientID, text, attachmentKey string) (*models.Comment, error) {
	var comment models.Comment
	err := c.doJSON(ctx, http.MethodPost, "/patients/"+url.PathEscape(patientID)+"/comments", postCommentRequest{
		Text:          text,
		AttachmentKey: attachmentKey,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) ListComments(ctx context.Context, patientID string) ([]models.Comment, error) {
	var list []models.Comment
	if err := c.doJSON(ctx, http.MethodGet, "/patients/"+url.PathEscape(patientID)+"/comments", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type attachmentURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AttachmentUploadURL returns a fresh storage key plus a presigned PUT URL.
func (c *Client) AttachmentUploadURL(ctx context.Context) (string, string, error) {
	var resp attachmentURLResponse
	if err := c.doJSON(ctx, http.MethodGet, "/attachments/upload-url", nil, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

// AttachmentDownloadURL returns a presigned GET URL for a stored key.
func (c *Client) AttachmentDownloadURL(ctx context.Context, key string) (string, error) {
	var resp attachmentURLResponse
	if err := c.doJSON(ctx, http.MethodGet, "/attachments/download-url?key="+url.QueryEscape(key), nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
