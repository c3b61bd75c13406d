// Package models defines the client-side view of the server documents. The
// JSON tags mirror the wire format of the HTTP API.
package models

import "time"

// Role of the signed-in account.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
	RolePatient      Role = "patient"
)

// Credential is the locally stored authentication state: the identity the
// server reported at sign-in plus the token pair.
type Credential struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Verified     bool   `json:"verified"`
}

type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Professional struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

type Patient struct {
	ID             string   `json:"id"`
	ProfessionalID string   `json:"professional_id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Surname        string   `json:"surname"`
	Phone          string   `json:"phone"`
	BirthDate      string   `json:"birth_date"`
	GoalIDs        []string `json:"goal_ids"`
}

type VocabItem struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

type Goal struct {
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

type Comment struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	SenderRole    Role      `json:"sender_role"`
	Text          string    `json:"text"`
	AttachmentKey string    `json:"attachment_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssignOutcome is the per-patient result row of a bulk goal assignment.
type AssignOutcome struct {
	PatientID string `json:"patient_id"`
	Error     string `json:"error,omitempty"`
}

// AssignResult aggregates a bulk goal assignment.
type AssignResult struct {
	Outcomes []AssignOutcome `json:"outcomes"`
	Failed   int             `json:"failed"`
}

// TransferOutcome is the per-patient result row of a patient transfer.
type TransferOutcome struct {
	PatientID string `json:"patient_id"`
	NewID     string `json:"new_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ChangeEvent is one document change received on a watch stream.
type ChangeEvent struct {
	Collection string `json:"collection"`
	DocID      string `json:"doc_id"`
	Kind       string `json:"kind"`
}
