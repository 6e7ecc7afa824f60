package domain

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func principalFor(role Role, superuser bool, id string) Principal {
	return Authenticated(&User{ID: id, Role: role, IsSuperuser: superuser, IsActive: true}, Claims{Subject: id, Role: role})
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, IsAdmin(Anonymous()))
	assert.False(t, IsAdmin(principalFor(RoleUser, false, "u1")))
	assert.True(t, IsAdmin(principalFor(RoleAdmin, false, "u1")))
	assert.True(t, IsAdmin(principalFor(RoleUser, true, "u1")), "superuser overrides role")
}

func TestIsSelfOrAdmin(t *testing.T) {
	assert.False(t, IsSelfOrAdmin(Anonymous(), ""))
	assert.True(t, IsSelfOrAdmin(principalFor(RoleUser, false, "u1"), "u1"))
	assert.False(t, IsSelfOrAdmin(principalFor(RoleUser, false, "u1"), "u2"))
	assert.True(t, IsSelfOrAdmin(principalFor(RoleAdmin, false, "u1"), "u2"))
}

func TestReadAllowedElseAdminOnly(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.True(t, ReadAllowedElseAdminOnly(Anonymous(), method), method)
	}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.False(t, ReadAllowedElseAdminOnly(Anonymous(), method), method)
		assert.False(t, ReadAllowedElseAdminOnly(principalFor(RoleUser, false, "u1"), method), method)
		assert.True(t, ReadAllowedElseAdminOnly(principalFor(RoleAdmin, false, "u1"), method), method)
	}
}

func TestRequireAdminDistinguishesOutcomes(t *testing.T) {
	err := RequireAdmin(Anonymous())
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.True(t, IsDomainError(err, ErrCodeUnauthorized))

	err = RequireAdmin(principalFor(RoleUser, false, "u1"))
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.True(t, IsDomainError(err, ErrCodeForbidden))

	assert.NoError(t, RequireAdmin(principalFor(RoleAdmin, false, "u1")))
}

func TestRequireSelfOrAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireSelfOrAdmin(Anonymous(), "u1"), ErrUnauthenticated)
	assert.ErrorIs(t, RequireSelfOrAdmin(principalFor(RoleUser, false, "u1"), "u2"), ErrForbidden)
	assert.NoError(t, RequireSelfOrAdmin(principalFor(RoleUser, false, "u1"), "u1"))
}

func TestRequireReadOrAdmin(t *testing.T) {
	assert.NoError(t, RequireReadOrAdmin(Anonymous(), http.MethodGet))
	assert.ErrorIs(t, RequireReadOrAdmin(Anonymous(), http.MethodPost), ErrUnauthenticated)
	assert.ErrorIs(t, RequireReadOrAdmin(principalFor(RoleUser, false, "u1"), http.MethodPost), ErrForbidden)
}
