package domain

import "time"

// LoginActivity is an immutable audit record of a successful sign-in.
type LoginActivity struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserEmail  string    `json:"user_email"`
	UserHandle *string   `json:"username"`
	IPAddress  string    `json:"ip_address"`
	Timestamp  time.Time `json:"timestamp"`
}

// Dashboard summarises accounts and the latest sign-ins.
type Dashboard struct {
	TotalUsers        int           `json:"total_users"`
	TotalAdmins       int           `json:"total_admins"`
	TotalRegularUsers int           `json:"total_regular_users"`
	RecentLogins      []RecentLogin `json:"recent_logins"`
}

type RecentLogin struct {
	UserEmail string    `json:"user_email"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}
