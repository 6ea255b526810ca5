package models

import "time"

// UserRole is the dashboard role of a signed-in user.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleRecruiter  UserRole = "recruiter"
	RoleGuest      UserRole = "guest"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleRecruiter, RoleGuest:
		return true
	}
	return false
}

// Profile is a dashboard user (table profiles).
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}
