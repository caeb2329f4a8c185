package domain

import "time"

// UserRole separates applicants from reviewing staff.
type UserRole string

const (
	RoleApplicant UserRole = "applicant"
	RoleAdmin     UserRole = "admin"
)

// User represents an account that can authenticate against the service.
type User struct {
	UserID       string   `json:"userID"` // Primary Key (UUID)
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`

	// Password reset state. The code is stored hashed; a verified flag gates the
	// actual password change.
	ResetCodeHash    string     `json:"-"`
	ResetCodeExpires *time.Time `json:"-"`
	IsCodeVerified   bool       `json:"-"`

	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// FullName joins the name parts for display and search.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user may perform review operations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
