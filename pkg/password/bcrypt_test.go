package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 8)

	hash, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)

	assert.NoError(t, h.Compare(hash, "password1"))
	assert.ErrorIs(t, h.Compare(hash, "password2"), ErrMismatch)
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 8)
	a, err := h.Hash("password1")
	require.NoError(t, err)
	b, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidate(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 0)
	assert.Equal(t, DefaultMinLength, h.MinLength())
	assert.ErrorIs(t, h.Validate("short"), ErrTooShort)
	assert.ErrorIs(t, h.Validate(strings.Repeat("x", 73)), ErrTooLong)
	assert.NoError(t, h.Validate("12345678"))

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestValidateStrength(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 8)
	assert.ErrorIs(t, h.ValidateStrength("12345678"), ErrNumeric)
	assert.ErrorIs(t, h.ValidateStrength("abc"), ErrTooShort)
	assert.NoError(t, h.ValidateStrength("1234567a"))
}

func TestNewHasherClampsCost(t *testing.T) {
	h := NewHasher(99, 8)
	assert.Equal(t, DefaultCost, h.cost)
}

func TestCompareInvalidHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 8)
	err := h.Compare("not-a-hash", "password1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
