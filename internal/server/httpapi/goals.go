package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type vocabItemResponse struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

func (s *Server) handleListVocab(w http.ResponseWriter, r *http.Request) {
	kind := models.VocabKind(chi.URLParam(r, "kind"))

	known := false
	for _, k := range models.VocabKinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown_vocabulary")
		return
	}

	items, err := s.goals.Vocabulary(r.Context(), kind)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	resp := make([]vocabItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, vocabItemResponse{ID: item.ID, Kind: string(item.Kind), Label: item.Label})
	}
	writeJSON(w, http.StatusOK, resp)
}

type goalRequest struct {
	TypeID           string    `json:"type_id"`
	ActionID         string    `json:"action_id"`
	RubricID         string    `json:"rubric_id"`
	AmountID         string    `json:"amount_id"`
	PortionID        string    `json:"portion_id"`
	FrequencyID      string    `json:"frequency_id"`
	StartDate        time.Time `json:"start_date"`
	Deadline         time.Time `json:"deadline"`
	NotificationTime time.Time `json:"notification_time"`
	Template         bool      `json:"template"`
}

type goalResponse struct {
	ID               string    `json:"id"`
	TypeID           string    `json:"type_id"`
	ActionID         string    `json:"action_id"`
	RubricID         string    `json:"rubric_id"`
	AmountID         string    `json:"amount_id"`
	PortionID        string    `json:"portion_id"`
	FrequencyID      string    `json:"frequency_id"`
	StartDate        time.Time `json:"start_date"`
	Deadline         time.Time `json:"deadline"`
	NotificationTime time.Time `json:"notification_time"`
	Template         bool      `json:"template"`
	AuthorID         string    `json:"author_id"`
}

func mapGoal(g *models.Goal) goalResponse {
	return goalResponse{
		ID:               g.ID,
		TypeID:           g.TypeID,
		ActionID:         g.ActionID,
		RubricID:         g.RubricID,
		AmountID:         g.AmountID,
		PortionID:        g.PortionID,
		FrequencyID:      g.FrequencyID,
		StartDate:        g.StartDate,
		Deadline:         g.Deadline,
		NotificationTime: g.NotificationTime,
		Template:         g.Template,
		AuthorID:         g.AuthorID,
	}
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	g, err := s.goals.Create(r.Context(), &models.Goal{
		TypeID:           req.TypeID,
		ActionID:         req.ActionID,
		RubricID:         req.RubricID,
		AmountID:         req.AmountID,
		PortionID:        req.PortionID,
		FrequencyID:      req.FrequencyID,
		StartDate:        req.StartDate,
		Deadline:         req.Deadline,
		NotificationTime: req.NotificationTime,
		Template:         req.Template,
		AuthorID:         professional.ID,
	})
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapGoal(g))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.goals.Get(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapGoal(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	goalID := chi.URLParam(r, "goalID")
	g, err := s.goals.Get(r.Context(), goalID)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	if g.AuthorID != professional.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.goals.Delete(r.Context(), goalID); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoalTemplates(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	list, err := s.goals.ListTemplates(r.Context(), professional.ID)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	resp := make([]goalResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, mapGoal(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPatientGoals(w http.ResponseWriter, r *http.Request) {
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}

	list, err := s.goals.ListByPatient(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	resp := make([]goalResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, mapGoal(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

type assignGoalRequest struct {
	PatientIDs []string `json:"patient_ids"`
}

type assignOutcomeResponse struct {
	PatientID string `json:"patient_id"`
	Error     string `json:"error,omitempty"`
}

type assignResultResponse struct {
	Outcomes []assignOutcomeResponse `json:"outcomes"`
	Failed   int                     `json:"failed"`
}

func (s *Server) handleAssignGoal(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	var req assignGoalRequest
	if err := decodeJSON(r, &req); err != nil || len(req.PatientIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	result, err := s.goals.AssignToPatients(r.Context(), chi.URLParam(r, "goalID"), professional.ID, req.PatientIDs)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	resp := assignResultResponse{Failed: result.Failed}
	for _, o := range result.Outcomes {
		item := assignOutcomeResponse{PatientID: o.PatientID}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, item)
	}

	// A run where nothing succeeded is an error response; a partial run is
	// still a 200 with the failures itemized.
	status := http.StatusOK
	if result.AllFailed() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleUnassignGoal(w http.ResponseWriter, r *http.Request) {
	if s.requireRole(w, r, models.RoleProfessional) == nil {
		return
	}
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}

	if err := s.goals.Unassign(r.Context(), chi.URLParam(r, "goalID"), p.ID); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
