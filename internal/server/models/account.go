// Package models defines the server-side domain records. Remote payloads are
// validated into these structs at the repository boundary instead of being
// passed around as loose maps.
package models

import "time"

// Role of an account. Exactly one role per email.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
	RolePatient      Role = "patient"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleProfessional || r == RolePatient
}

// Account is per-email account metadata. TempPasswordHash holds the bcrypt
// hash of the provisioner-set initial secret and must be cleared (set to nil)
// when the account is activated.
type Account struct {
	Email            string
	Role             Role
	Verified         bool
	TempPasswordHash []byte
}

// Credential is the authentication registration created on first successful
// login. Its presence selects the returning-login path.
type Credential struct {
	UID          string
	Email        string
	PasswordHash []byte
}

// RefreshToken is a server-stored rotating token paired with JWT access tokens.
type RefreshToken struct {
	UID     string
	Token   string
	Expires time.Time
}
