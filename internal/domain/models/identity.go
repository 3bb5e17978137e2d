package models

import "github.com/golang-jwt/jwt/v5"

// Role is the closed set of roles recognized by the archive.
type Role string

const (
	RoleStandard   Role = "standard"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsAdmin reports whether the role carries administrative privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Identity is the authenticated principal attempting an operation.
// Permission checks in the archive only ever look at ID and Role.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`
	Verified bool   `json:"verified"`
}

// ArchiveClaims represents the JWT claims issued by the identity provider.
type ArchiveClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"`     // "authenticated" or "anon"
	AppRole              string `json:"app_role"` // archive role: standard / admin / super_admin
	EmailVerified        bool   `json:"email_verified"`
	SessionID            string `json:"session_id"`
	IsAnonymous          bool   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *ArchiveClaims) GetUserID() string {
	return c.Subject
}

// Identity converts verified claims into the archive's identity model.
// An unknown or missing app role downgrades to standard rather than failing.
func (c *ArchiveClaims) Identity() Identity {
	role := Role(c.AppRole)
	if !role.Valid() {
		role = RoleStandard
	}
	return Identity{
		ID:       c.Subject,
		Email:    c.Email,
		Role:     role,
		Active:   !c.IsAnonymous,
		Verified: c.EmailVerified,
	}
}
