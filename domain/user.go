package domain

import (
	"strings"
	"time"
)

// Role is the domain role of a user. Only two roles exist.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole returns the role for value, or false when value is not a known role.
func ParseRole(value string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	return r, r.IsValid()
}

// User represents an account that can sign in with its email.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Handle       *string    `json:"username"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user holds admin rights. The superuser flag
// implies admin regardless of the role field.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleAdmin || u.IsSuperuser)
}

func (u *User) CanSignIn() bool {
	return u != nil && u.IsActive
}

// HandleValue returns the handle or an empty string when none is set.
func (u *User) HandleValue() string {
	if u == nil || u.Handle == nil {
		return ""
	}
	return *u.Handle
}

// NormalizeEmail lower-cases the address and trims surrounding space so that
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeHandle trims the handle and maps blank values to nil.
func NormalizeHandle(handle *string) *string {
	if handle == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*handle)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
