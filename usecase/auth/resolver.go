package auth

import (
	"context"
	"errors"
	"time"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/credential"
	"github.com/fastygo/accounts/repository"
)

// Resolver turns a raw access credential into a Principal.
type Resolver struct {
	codec    *credential.Codec
	users    repository.UserRepository
	observer Observer
}

func NewResolver(codec *credential.Codec, users repository.UserRepository, observer Observer) *Resolver {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Resolver{codec: codec, users: users, observer: observer}
}

// Resolve never fails on a bad credential: missing, malformed, forged or
// expired tokens and unknown or inactive subjects all yield Anonymous, and
// the reason is only reported to the observer. The error return is reserved
// for store failures.
func (r *Resolver) Resolve(ctx context.Context, raw string, now time.Time) (domain.Principal, error) {
	if raw == "" {
		return domain.Anonymous(), nil
	}

	claims, err := r.codec.VerifyKind(raw, domain.TokenAccess, now)
	if err != nil {
		r.observer.CredentialRejected(ctx, string(credential.ReasonOf(err)), tokenPrefix(raw))
		return domain.Anonymous(), nil
	}

	user, err := r.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			r.observer.CredentialRejected(ctx, "unknown_subject", tokenPrefix(raw))
			return domain.Anonymous(), nil
		}
		return domain.Anonymous(), err
	}
	if !user.CanSignIn() {
		r.observer.CredentialRejected(ctx, "inactive_subject", tokenPrefix(raw))
		return domain.Anonymous(), nil
	}
	return domain.Authenticated(user, claims), nil
}
