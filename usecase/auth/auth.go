package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/credential"
	"github.com/fastygo/accounts/pkg/password"
	"github.com/fastygo/accounts/repository"
)

// LoginRecorder appends the audit record of a successful login.
type LoginRecorder interface {
	Record(ctx context.Context, user *domain.User, clientIP string, at time.Time) (*domain.LoginActivity, error)
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User *domain.User
	Pair domain.TokenPair
}

// RefreshResult carries a freshly minted access credential.
type RefreshResult struct {
	User   *domain.User
	Access string
	Claims domain.Claims
}

// UseCase signs users in and out. Registration and provisioning come from the
// embedded Accounts.
type UseCase struct {
	*Accounts

	users    repository.UserRepository
	codec    *credential.Codec
	hasher   *password.Hasher
	recorder LoginRecorder
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	// compared against when the email is unknown so both paths cost a hash
	dummyHash string
}

func New(users repository.UserRepository, codec *credential.Codec, hasher *password.Hasher, recorder LoginRecorder, observer Observer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	dummy, err := hasher.Hash("unknown-account-placeholder")
	if err != nil {
		logger.Warn("failed to prepare placeholder hash", zap.Error(err))
	}
	return &UseCase{
		Accounts:  NewAccounts(users, hasher, logger),
		users:     users,
		codec:     codec,
		hasher:    hasher,
		recorder:  recorder,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// WithClock replaces the clock used for issuing credentials.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Login checks the email/password pair, issues an access/refresh pair and
// records the login.
func (uc *UseCase) Login(ctx context.Context, email, pass, clientIP string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || pass == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		_ = uc.hasher.Compare(uc.dummyHash, pass)
		uc.observer.LoginFailed(ctx, email, "unknown_email")
		return nil, domain.ErrInvalidCredentials
	}

	if err := uc.hasher.Compare(user.PasswordHash, pass); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			uc.logger.Error("stored password hash is unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		uc.observer.LoginFailed(ctx, email, "bad_password")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.CanSignIn() {
		uc.observer.LoginFailed(ctx, email, "inactive")
		return nil, domain.ErrAccountDisabled
	}

	now := uc.now()
	pair, err := uc.codec.IssuePair(user, now)
	if err != nil {
		return nil, err
	}

	if _, err := uc.recorder.Record(ctx, user, clientIP, now); err != nil {
		return nil, err
	}
	if err := uc.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		uc.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		at := now
		user.LastLogin = &at
	}

	uc.observer.LoginSucceeded(ctx, user.ID, clientIP)
	return &LoginResult{User: user, Pair: pair}, nil
}

// Refresh mints a new access credential from a refresh credential. The role
// embedded in the new credential is read from the store.
func (uc *UseCase) Refresh(ctx context.Context, rawRefresh string) (*RefreshResult, error) {
	if rawRefresh == "" {
		return nil, domain.ErrUnauthenticated
	}
	now := uc.now()

	claims, err := uc.codec.VerifyKind(rawRefresh, domain.TokenRefresh, now)
	if err != nil {
		uc.observer.CredentialRejected(ctx, string(credential.ReasonOf(err)), tokenPrefix(rawRefresh))
		return nil, domain.ErrUnauthenticated
	}

	user, err := uc.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.CanSignIn() {
		return nil, domain.ErrUnauthenticated
	}

	access, accessClaims, err := uc.codec.Issue(user.ID, user.Role, domain.TokenAccess, now)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{User: user, Access: access, Claims: accessClaims}, nil
}
