package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/accounts/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// Page describes the window of a list response.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// UserSummary is returned by register and login.
type UserSummary struct {
	Email    string      `json:"email"`
	Username *string     `json:"username"`
	Role     domain.Role `json:"role"`
}

func NewUserSummary(u *domain.User) UserSummary {
	return UserSummary{Email: u.Email, Username: u.Handle, Role: u.Role}
}

// Profile is the self-service view of an account.
type Profile struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Username  *string     `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewProfile(u *domain.User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Handle,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AdminUser is the admin view of an account.
type AdminUser struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Username    *string     `json:"username"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
	IsStaff     bool        `json:"is_staff"`
	IsSuperuser bool        `json:"is_superuser"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	LastLogin   *time.Time  `json:"last_login"`
}

func NewAdminUser(u *domain.User) AdminUser {
	return AdminUser{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Handle,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLogin:   u.LastLogin,
	}
}

func NewAdminUsers(users []domain.User) []AdminUser {
	out := make([]AdminUser, 0, len(users))
	for i := range users {
		out = append(out, NewAdminUser(&users[i]))
	}
	return out
}

// LoginActivity is the read view of one audit row.
type LoginActivity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Username  *string   `json:"username"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLoginActivities(rows []domain.LoginActivity) []LoginActivity {
	out := make([]LoginActivity, 0, len(rows))
	for _, row := range rows {
		out = append(out, LoginActivity{
			ID:        row.ID,
			UserID:    row.UserID,
			UserEmail: row.UserEmail,
			Username:  row.UserHandle,
			IPAddress: row.IPAddress,
			Timestamp: row.Timestamp,
		})
	}
	return out
}

// Message is the body of endpoints that only report an outcome.
type Message struct {
	Message string `json:"message"`
}
