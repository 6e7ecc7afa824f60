package credential

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/accounts/domain"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: secret, Issuer: "accounts", AccessTTL: 5 * time.Minute, RefreshTTL: 24 * time.Hour})
	require.NoError(t, err)
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec(Config{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewCodecDefaults(t *testing.T) {
	c, err := NewCodec(Config{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, c.TTL(domain.TokenAccess))
	assert.Equal(t, 7*24*time.Hour, c.TTL(domain.TokenRefresh))
}

func TestIssueAndVerify(t *testing.T) {
	c := newTestCodec(t, "super-secret")

	token, issued, err := c.Issue("user-1", domain.RoleAdmin, domain.TokenAccess, t0)
	require.NoError(t, err)

	claims, err := c.Verify(token, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, domain.TokenAccess, claims.Kind)
	assert.Equal(t, t0, claims.IssuedAt)
	assert.Equal(t, t0.Add(5*time.Minute), claims.ExpiresAt)
	assert.Equal(t, issued, claims)
}

func TestIssueIsDeterministic(t *testing.T) {
	c := newTestCodec(t, "super-secret")
	a, _, err := c.Issue("user-1", domain.RoleUser, domain.TokenRefresh, t0)
	require.NoError(t, err)
	b, _, err := c.Issue("user-1", domain.RoleUser, domain.TokenRefresh, t0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIssueRejectsInvalidInput(t *testing.T) {
	c := newTestCodec(t, "s")
	_, _, err := c.Issue("", domain.RoleUser, domain.TokenAccess, t0)
	assert.Error(t, err)
	_, _, err = c.Issue("u", domain.Role("owner"), domain.TokenAccess, t0)
	assert.Error(t, err)
	_, _, err = c.Issue("u", domain.RoleUser, domain.TokenKind("id"), t0)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	c := newTestCodec(t, "super-secret")
	for _, kind := range []domain.TokenKind{domain.TokenAccess, domain.TokenRefresh} {
		token, _, err := c.Issue("user-1", domain.RoleUser, kind, t0)
		require.NoError(t, err)

		_, err = c.Verify(token, t0.Add(c.TTL(kind)+time.Second))
		assert.ErrorIs(t, err, ErrExpired, kind)
		assert.Equal(t, ReasonExpired, ReasonOf(err))

		_, err = c.Verify(token, t0.Add(c.TTL(kind)))
		assert.NoError(t, err, "expiry instant itself is still valid")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := newTestCodec(t, "right-secret").Issue("user-1", domain.RoleAdmin, domain.TokenAccess, t0)
	require.NoError(t, err)

	claims, err := newTestCodec(t, "wrong-secret").Verify(token, t0)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Equal(t, domain.Claims{}, claims)

	// an expired token with a bad signature still reports the signature
	_, err = newTestCodec(t, "wrong-secret").Verify(token, t0.Add(48*time.Hour))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyTamperedPayload(t *testing.T) {
	c := newTestCodec(t, "super-secret")
	userToken, _, err := c.Issue("user-1", domain.RoleUser, domain.TokenAccess, t0)
	require.NoError(t, err)
	adminToken, _, err := c.Issue("user-1", domain.RoleAdmin, domain.TokenAccess, t0)
	require.NoError(t, err)

	u := strings.Split(userToken, ".")
	a := strings.Split(adminToken, ".")
	forged := strings.Join([]string{u[0], a[1], u[2]}, ".")

	_, err = c.Verify(forged, t0)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	c := newTestCodec(t, "k")
	for _, raw := range []string{"", "not-a-token", "not.a.jwt", "a.b"} {
		_, err := c.Verify(raw, t0)
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestVerifyRejectsOtherIssuer(t *testing.T) {
	other, err := NewCodec(Config{Secret: "shared", Issuer: "other"})
	require.NoError(t, err)
	token, _, err := other.Issue("user-1", domain.RoleUser, domain.TokenAccess, t0)
	require.NoError(t, err)

	mine, err := NewCodec(Config{Secret: "shared", Issuer: "accounts"})
	require.NoError(t, err)
	_, err = mine.Verify(token, t0)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyKind(t *testing.T) {
	c := newTestCodec(t, "k")
	pair, err := c.IssuePair(&domain.User{ID: "user-1", Role: domain.RoleUser}, t0)
	require.NoError(t, err)

	_, err = c.VerifyKind(pair.Refresh, domain.TokenAccess, t0)
	assert.ErrorIs(t, err, ErrWrongKind)

	claims, err := c.VerifyKind(pair.Refresh, domain.TokenRefresh, t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), claims.ExpiresAt)
	assert.Equal(t, pair.RefreshClaims, claims)
}

func TestClaimTimesAreUTC(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("UTC+3", 3*60*60)
	t.Cleanup(func() { time.Local = local })

	c := newTestCodec(t, "super-secret")
	now := t0.In(time.FixedZone("UTC-5", -5*60*60))

	token, issued, err := c.Issue("user-1", domain.RoleUser, domain.TokenAccess, now)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, issued.IssuedAt.Location())
	assert.Equal(t, time.UTC, issued.ExpiresAt.Location())
	assert.Equal(t, t0, issued.IssuedAt)

	claims, err := c.Verify(token, now)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, claims.IssuedAt.Location())
	assert.Equal(t, time.UTC, claims.ExpiresAt.Location())
	assert.Equal(t, issued, claims)
}
