// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost      = 12
	DefaultMinLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxBytes = 72
)

var (
	ErrTooShort = errors.New("password is too short")
	ErrTooLong  = errors.New("password is too long")
	ErrNumeric  = errors.New("password is entirely numeric")
	ErrMismatch = errors.New("password does not match")
)

// Hasher hashes passwords with a salted adaptive hash.
type Hasher struct {
	cost      int
	minLength int
}

func NewHasher(cost, minLength int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Hasher{cost: cost, minLength: minLength}
}

func (h *Hasher) MinLength() int {
	return h.minLength
}

// Validate applies the length rules every stored password must satisfy.
func (h *Hasher) Validate(password string) error {
	if utf8.RuneCountInString(password) < h.minLength {
		return ErrTooShort
	}
	if len(password) > maxBytes {
		return ErrTooLong
	}
	return nil
}

// ValidateStrength is Validate plus the rules applied when a user picks a new
// password: it must not be entirely numeric.
func (h *Hasher) ValidateStrength(password string) error {
	if err := h.Validate(password); err != nil {
		return err
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return ErrNumeric
	}
	return nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if err := h.Validate(password); err != nil {
		return "", err
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare returns ErrMismatch when password does not match hash.
func (h *Hasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}
