package domain

import "time"

// TokenKind discriminates access credentials from refresh credentials.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

func (k TokenKind) IsValid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// Claims is the decoded payload of a verified credential.
type Claims struct {
	Subject   string    `json:"sub"`
	Role      Role      `json:"role"`
	Kind      TokenKind `json:"kind"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Remaining returns how long the credential stays valid after now.
func (c Claims) Remaining(now time.Time) time.Duration {
	left := c.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// TokenPair is an access credential issued together with its refresh credential.
type TokenPair struct {
	Access        string
	AccessClaims  Claims
	Refresh       string
	RefreshClaims Claims
}

// Principal is the resolved identity of a request. The zero value is anonymous.
type Principal struct {
	User   *User
	Claims Claims
}

// Anonymous returns the principal used when no valid credential was presented.
func Anonymous() Principal {
	return Principal{}
}

// Authenticated returns a principal for a verified user.
func Authenticated(user *User, claims Claims) Principal {
	return Principal{User: user, Claims: claims}
}

func (p Principal) IsAuthenticated() bool {
	return p.User != nil
}

// UserID returns the authenticated user's id or an empty string.
func (p Principal) UserID() string {
	if p.User == nil {
		return ""
	}
	return p.User.ID
}
