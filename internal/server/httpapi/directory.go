package httpapi

import (
	"net/http"

	"github.com/mkrasovska/nutritrack/internal/server/models"
)

type adminResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type professionalResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

type patientResponse struct {
	ID             string   `json:"id"`
	ProfessionalID string   `json:"professional_id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Surname        string   `json:"surname"`
	Phone          string   `json:"phone"`
	BirthDate      string   `json:"birth_date"`
	GoalIDs        []string `json:"goal_ids"`
}

func mapProfessional(p *models.Professional) professionalResponse {
	return professionalResponse{ID: p.ID, Email: p.Email, Name: p.Name, Surname: p.Surname, Phone: p.Phone}
}

func mapPatient(p *models.Patient) patientResponse {
	goalIDs := p.GoalIDs
	if goalIDs == nil {
		goalIDs = []string{}
	}
	return patientResponse{
		ID:             p.ID,
		ProfessionalID: p.ProfessionalID,
		Email:          p.Email,
		Name:           p.Name,
		Surname:        p.Surname,
		Phone:          p.Phone,
		BirthDate:      p.BirthDate,
		GoalIDs:        goalIDs,
	}
}

// The directory lookups feed session resolution on the client: each one
// resolves the caller's own email within a single role collection. A caller
// may only look itself up.

func (s *Server) handleLookupAdmin(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	email := r.URL.Query().Get("email")
	if identity == nil || email == "" || email != identity.Email {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	admin, err := s.directory.AdminByEmail(r.Context(), email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{ID: admin.ID, Email: admin.Email, Name: admin.Name})
}

func (s *Server) handleLookupProfessional(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	email := r.URL.Query().Get("email")
	if identity == nil || email == "" || email != identity.Email {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	p, err := s.directory.ProfessionalByEmail(r.Context(), email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProfessional(p))
}

func (s *Server) handleLookupPatient(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	email := r.URL.Query().Get("email")
	if identity == nil || email == "" || email != identity.Email {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	p, err := s.directory.PatientByEmail(r.Context(), email)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPatient(p))
}
