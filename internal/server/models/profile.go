package models

// Admin profile. Top-level collection, queried by email equality.
type Admin struct {
	ID    string
	Email string
	Name  string
}

// Professional profile. Owns patients and authors goal templates.
type Professional struct {
	ID      string
	Email   string
	Name    string
	Surname string
	Phone   string
}

// Patient profile. Lives under an owning professional; GoalIDs is the
// unordered set of goal references attached to the patient.
type Patient struct {
	ID             string
	ProfessionalID string
	Email          string
	Name           string
	Surname        string
	Phone          string
	BirthDate      string
	GoalIDs        []string
}
