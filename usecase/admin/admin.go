package admin

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/password"
	"github.com/fastygo/accounts/repository"
)

// RecentLogins supplies the dashboard's latest sign-ins. Invalidate drops any
// cached entries once a user is deleted or changes email.
type RecentLogins interface {
	Recent(ctx context.Context, n int) ([]domain.RecentLogin, error)
	Invalidate(ctx context.Context)
}

// DashboardRecent is the number of sign-ins the dashboard shows.
const DashboardRecent = 10

// UseCase implements the admin-only user management surface. Every method
// checks the acting principal first.
type UseCase struct {
	users  repository.UserRepository
	hasher *password.Hasher
	recent RecentLogins
	logger *zap.Logger
}

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

// CreateInput describes a user created by an admin. Role defaults to user.
type CreateInput struct {
	Email    string
	Password string
	Handle   *string
	Role     domain.Role
	IsActive *bool
	IsStaff  bool
}

// UpdateInput lists the fields an admin may change. nil leaves a field
// untouched; an empty Handle clears it; a non-empty Password resets it.
type UpdateInput struct {
	Email    *string
	Handle   *string
	Role     *domain.Role
	IsActive *bool
	IsStaff  *bool
	Password *string
}

func (uc *UseCase) ListUsers(ctx context.Context, actor domain.Principal, filter repository.UserFilter) ([]domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown role")
	}
	return uc.users.List(ctx, filter)
}

func (uc *UseCase) GetUser(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, id)
}

func (uc *UseCase) CreateUser(ctx context.Context, actor domain.Principal, in CreateInput) (*domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email is required")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.IsValid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown role")
	}
	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.WeakPassword(err)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	user := &domain.User{
		Email:        email,
		Handle:       domain.NormalizeHandle(in.Handle),
		Role:         role,
		IsActive:     active,
		IsStaff:      in.IsStaff,
		PasswordHash: hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user created by admin",
		zap.String("user_id", user.ID),
		zap.String("actor_id", actor.UserID()),
		zap.String("role", string(user.Role)))
	return user, nil
}

func (uc *UseCase) UpdateUser(ctx context.Context, actor domain.Principal, id string, in UpdateInput) (*domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, id)
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
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, domain.NewError(domain.ErrCodeInvalid, "unknown role")
		}
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		user.IsStaff = *in.IsStaff
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := uc.hasher.Hash(*in.Password)
		if err != nil {
			return nil, domain.WeakPassword(err)
		}
		user.PasswordHash = hash
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if emailChanged {
		uc.recent.Invalidate(ctx)
	}
	return user, nil
}

// DeleteUser removes a user. Deleting one's own account is refused before
// the role check, so it fails the same way for every caller.
func (uc *UseCase) DeleteUser(ctx context.Context, actor domain.Principal, id string) error {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.UserID() == id {
		return domain.ErrSelfDeleteForbidden
	}
	if err := domain.RequireAdmin(actor); err != nil {
		return err
	}
	if err := uc.users.Delete(ctx, id); err != nil {
		return err
	}
	uc.recent.Invalidate(ctx)
	uc.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actor.UserID()))
	return nil
}

// Dashboard aggregates user counts and the latest sign-ins.
func (uc *UseCase) Dashboard(ctx context.Context, actor domain.Principal) (*domain.Dashboard, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	counts, err := uc.users.Counts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := uc.recent.Recent(ctx, DashboardRecent)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []domain.RecentLogin{}
	}
	return &domain.Dashboard{
		TotalUsers:        counts.Total,
		TotalAdmins:       counts.Admins,
		TotalRegularUsers: counts.Regular,
		RecentLogins:      recent,
	}, nil
}
