package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fastygo/accounts/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrMissingSecret is returned by NewCodec when no signing secret is configured.
var ErrMissingSecret = errors.New("credential: signing secret is required")

// Config holds the signing secret and lifetimes of issued credentials.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Kind string `json:"kind"`
}

// Codec issues and verifies HS256-signed credentials. It holds no mutable
// state and is safe for concurrent use.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		// Expiry is checked against the caller's clock in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the configured lifetime for kind.
func (c *Codec) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Issue signs a credential for subject. The result only depends on the
// secret and the arguments.
func (c *Codec) Issue(subject string, role domain.Role, kind domain.TokenKind, now time.Time) (string, domain.Claims, error) {
	if subject == "" || !kind.IsValid() || !role.IsValid() {
		return "", domain.Claims{}, fmt.Errorf("credential: cannot issue %q token for subject %q with role %q", kind, subject, role)
	}

	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(c.TTL(kind)))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
		Role: string(role),
		Kind: string(kind),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", domain.Claims{}, err
	}

	return signed, domain.Claims{
		Subject:   subject,
		Role:      role,
		Kind:      kind,
		IssuedAt:  issuedAt.Time.UTC(),
		ExpiresAt: expiresAt.Time.UTC(),
	}, nil
}

// IssuePair issues an access and a refresh credential for user.
func (c *Codec) IssuePair(user *domain.User, now time.Time) (domain.TokenPair, error) {
	if user == nil {
		return domain.TokenPair{}, domain.ErrInvalidPayload
	}
	access, accessClaims, err := c.Issue(user.ID, user.Role, domain.TokenAccess, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshClaims, err := c.Issue(user.ID, user.Role, domain.TokenRefresh, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		Access:        access,
		AccessClaims:  accessClaims,
		Refresh:       refresh,
		RefreshClaims: refreshClaims,
	}, nil
}

// Verify checks the signature and expiry of raw. Signature comparison is done
// with hmac.Equal inside the jwt library and is constant-time.
func (c *Codec) Verify(raw string, now time.Time) (domain.Claims, error) {
	var claims tokenClaims
	_, err := c.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return domain.Claims{}, fail(ReasonSignatureInvalid, err)
		default:
			return domain.Claims{}, fail(ReasonMalformed, err)
		}
	}

	out, err := c.decode(claims)
	if err != nil {
		return domain.Claims{}, err
	}
	if now.After(out.ExpiresAt) {
		return domain.Claims{}, fail(ReasonExpired, nil)
	}
	return out, nil
}

// VerifyKind is Verify plus a check that the credential is of the wanted kind.
func (c *Codec) VerifyKind(raw string, kind domain.TokenKind, now time.Time) (domain.Claims, error) {
	claims, err := c.Verify(raw, now)
	if err != nil {
		return domain.Claims{}, err
	}
	if claims.Kind != kind {
		return domain.Claims{}, fail(ReasonWrongKind, fmt.Errorf("want %s, got %s", kind, claims.Kind))
	}
	return claims, nil
}

func (c *Codec) decode(claims tokenClaims) (domain.Claims, error) {
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Claims{}, fail(ReasonMalformed, fmt.Errorf("unknown role %q", claims.Role))
	}
	kind := domain.TokenKind(claims.Kind)
	if !kind.IsValid() {
		return domain.Claims{}, fail(ReasonMalformed, fmt.Errorf("unknown kind %q", claims.Kind))
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return domain.Claims{}, fail(ReasonMalformed, errors.New("missing sub or exp"))
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return domain.Claims{}, fail(ReasonMalformed, fmt.Errorf("unexpected issuer %q", claims.Issuer))
	}

	out := domain.Claims{
		Subject:   claims.Subject,
		Role:      role,
		Kind:      kind,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
