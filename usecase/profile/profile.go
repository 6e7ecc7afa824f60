package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/password"
	"github.com/fastygo/accounts/repository"
)

// RecentLogins is the cached sign-in feed, which still carries the old
// address after an email change.
type RecentLogins interface {
	Invalidate(ctx context.Context)
}

type UseCase struct {
	users  repository.UserRepository
	hasher *password.Hasher
	recent RecentLogins
	logger *zap.Logger
}

// New builds the profile use case. recent is optional.
func New(users repository.UserRepository, hasher *password.Hasher, recent RecentLogins, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		recent: recent,
		logger: logger,
	}
}

// UpdateInput lists the fields a user may change on their own account. A nil
// field is left untouched; an empty Handle clears it.
type UpdateInput struct {
	Email  *string
	Handle *string
}

// ChangePasswordInput carries the old password and the new one twice.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
	Confirm     string
}

func (uc *UseCase) GetProfile(ctx context.Context, actor domain.Principal) (*domain.User, error) {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, actor.UserID())
}

// UpdateProfile changes email and handle. The role and flags are never
// writable here.
func (uc *UseCase) UpdateProfile(ctx context.Context, actor domain.Principal, in UpdateInput) (*domain.User, error) {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}

	emailChanged := false
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "email must not be empty")
		}
		emailChanged = email != user.Email
		user.Email = email
	}
	if in.Handle != nil {
		user.Handle = domain.NormalizeHandle(in.Handle)
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if emailChanged && uc.recent != nil {
		uc.recent.Invalidate(ctx)
	}
	return user, nil
}

// ChangePassword replaces the caller's password. Credentials issued before
// the change stay valid until they expire.
func (uc *UseCase) ChangePassword(ctx context.Context, actor domain.Principal, in ChangePasswordInput) error {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return err
	}
	if in.NewPassword != in.Confirm {
		return domain.ErrPasswordMismatch
	}
	if err := uc.hasher.ValidateStrength(in.NewPassword); err != nil {
		return domain.WeakPassword(err)
	}

	user, err := uc.users.GetByID(ctx, actor.UserID())
	if err != nil {
		return err
	}
	if err := uc.hasher.Compare(user.PasswordHash, in.OldPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return domain.ErrBadCredential
		}
		return err
	}

	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := uc.users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	uc.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}
