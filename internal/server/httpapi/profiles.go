package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type provisionProfessionalRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone"`
	TempPassword string `json:"temp_password"`
}

func (s *Server) handleProvisionProfessional(w http.ResponseWriter, r *http.Request) {
	if s.requireRole(w, r, models.RoleAdmin) == nil {
		return
	}

	var req provisionProfessionalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.TempPassword == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	tempPassword := []byte(req.TempPassword)
	defer common.WipeByteArray(tempPassword)

	p, err := s.profiles.ProvisionProfessional(r.Context(), &models.Professional{
		Email:   req.Email,
		Name:    req.Name,
		Surname: req.Surname,
		Phone:   req.Phone,
	}, tempPassword)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProfessional(p))
}

func (s *Server) handleListProfessionals(w http.ResponseWriter, r *http.Request) {
	if s.requireRole(w, r, models.RoleAdmin) == nil {
		return
	}

	list, err := s.profiles.ListProfessionals(r.Context())
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	resp := make([]professionalResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, mapProfessional(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type provisionPatientRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone"`
	BirthDate    string `json:"birth_date"`
	TempPassword string `json:"temp_password"`
}

func (s *Server) handleProvisionPatient(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	var req provisionPatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.TempPassword == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	tempPassword := []byte(req.TempPassword)
	defer common.WipeByteArray(tempPassword)

	p, err := s.profiles.ProvisionPatient(r.Context(), &models.Patient{
		ProfessionalID: professional.ID,
		Email:          req.Email,
		Name:           req.Name,
		Surname:        req.Surname,
		Phone:          req.Phone,
		BirthDate:      req.BirthDate,
	}, tempPassword)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapPatient(p))
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	list, err := s.profiles.ListPatients(r.Context(), professional.ID)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	resp := make([]patientResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, mapPatient(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// patientForCaller loads the patient and checks the caller may see it: the
// owning professional, or the patient itself.
func (s *Server) patientForCaller(w http.ResponseWriter, r *http.Request) *models.Patient {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return nil
	}

	patientID := chi.URLParam(r, "patientID")
	p, err := s.profiles.GetPatient(r.Context(), patientID)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return nil
	}

	switch identity.Role {
	case models.RolePatient:
		if p.Email != identity.Email {
			writeError(w, http.StatusForbidden, "forbidden")
			return nil
		}
	case models.RoleProfessional:
		professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
		if err != nil {
			s.writeServiceError(r.Context(), w, err)
			return nil
		}
		if p.ProfessionalID != professional.ID {
			writeError(w, http.StatusForbidden, "forbidden")
			return nil
		}
	case models.RoleAdmin:
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return nil
	}

	return p
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, mapPatient(p))
}

type updatePatientRequest struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	if s.requireRole(w, r, models.RoleProfessional) == nil {
		return
	}
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}

	var req updatePatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	p.Name = req.Name
	p.Surname = req.Surname
	p.Phone = req.Phone
	p.BirthDate = req.BirthDate

	if err := s.profiles.UpdatePatient(r.Context(), p); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPatient(p))
}

func (s *Server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	if s.requireRole(w, r, models.RoleProfessional) == nil {
		return
	}
	p := s.patientForCaller(w, r)
	if p == nil {
		return
	}

	if err := s.profiles.DeletePatient(r.Context(), p.ID); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	TargetProfessionalID string   `json:"target_professional_id"`
	PatientIDs           []string `json:"patient_ids"`
}

type transferOutcomeResponse struct {
	PatientID string `json:"patient_id"`
	NewID     string `json:"new_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	identity := s.requireRole(w, r, models.RoleProfessional)
	if identity == nil {
		return
	}

	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TargetProfessionalID == "" || len(req.PatientIDs) == 0 {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	professional, err := s.directory.ProfessionalByEmail(r.Context(), identity.Email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	outcomes, err := s.transfer.Transfer(r.Context(), professional.ID, req.TargetProfessionalID, req.PatientIDs)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	resp := make([]transferOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		item := transferOutcomeResponse{PatientID: o.PatientID, NewID: o.NewID}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}
