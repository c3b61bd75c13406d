package httpapi

import (
	"net/http"
	"time"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type commentRequest struct {
	Text          string `json:"text"`
	AttachmentKey string `json:"attachment_key"`
}

type commentResponse struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	SenderRole    string    `json:"sender_role"`
	Text          string    `json:"text"`
	AttachmentKey string    `json:"attachment_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func mapComment(c *models.Comment) commentResponse {
	return commentResponse{
		ID:            c.ID,
		PatientID:     c.PatientID,
		SenderRole:    string(c.SenderRole),
		Text:          c.Text,
		AttachmentKey: c.AttachmentKey,
		CreatedAt:     c.CreatedAt,
	}
}

func (s *Server) handlePostComment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Text == "" && req.AttachmentKey == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	c, err := s.comments.Post(r.Context(), &models.Comment{
		PatientID:     p.ID,
		SenderRole:    identity.Role,
		Text:          req.Text,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapComment(c))
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}

	list, err := s.comments.ListByPatient(r.Context(), p.ID, parseLimit(r, 50))
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	resp := make([]commentResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, mapComment(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Server) handleAttachmentUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.comments.GetPresignedPutUrl(r.Context())
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{Key: key, URL: url})
}

func (s *Server) handleAttachmentDownloadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing_key")
		return
	}

	url, err := s.comments.GetPresignedGetUrl(r.Context(), key)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{Key: key, URL: url})
}
