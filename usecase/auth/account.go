package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/password"
	"github.com/fastygo/accounts/repository"
)

// Accounts creates and provisions users. It holds no signing secret, so
// provisioning commands can use it without the credential codec.
type Accounts struct {
	users  repository.UserRepository
	hasher *password.Hasher
	logger *zap.Logger
}

func NewAccounts(users repository.UserRepository, hasher *password.Hasher, logger *zap.Logger) *Accounts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{users: users, hasher: hasher, logger: logger}
}

// RegisterInput carries a self-service sign-up request.
type RegisterInput struct {
	Email    string
	Password string
	Handle   *string
}

// Register creates a regular user. The role is always user.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email is required")
	}
	hash, err := a.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Handle:       domain.NormalizeHandle(in.Handle),
		Role:         domain.RoleUser,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}
	a.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// CreateSuperuser creates an admin with the staff and superuser flags, or
// rotates the password hash of the existing account with that email. Running
// it again has no other effect.
func (a *Accounts) CreateSuperuser(ctx context.Context, email, pass string) (*domain.User, bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, false, domain.NewError(domain.ErrCodeInvalid, "email is required")
	}
	hash, err := a.hashPassword(pass)
	if err != nil {
		return nil, false, err
	}

	user := &domain.User{
		Email:        email,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		PasswordHash: hash,
	}
	created, err := a.users.UpsertByEmail(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

// BootstrapResult describes what Bootstrap did.
type BootstrapResult string

const (
	BootstrapSkipped    BootstrapResult = "skipped"
	BootstrapCreated    BootstrapResult = "created"
	BootstrapRotated    BootstrapResult = "rotated"
	BootstrapIncomplete BootstrapResult = "incomplete"
)

// Bootstrap runs CreateSuperuser from configuration. Both values must be
// set; when only one is, the problem is logged and nothing is written.
func (a *Accounts) Bootstrap(ctx context.Context, email, pass string) (BootstrapResult, error) {
	switch {
	case email == "" && pass == "":
		return BootstrapSkipped, nil
	case email == "" || pass == "":
		a.logger.Error("admin bootstrap requires both ADMIN_EMAIL and ADMIN_PASSWORD")
		return BootstrapIncomplete, nil
	}

	user, created, err := a.CreateSuperuser(ctx, email, pass)
	if err != nil {
		return "", err
	}
	if created {
		a.logger.Info("superuser created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		return BootstrapCreated, nil
	}
	a.logger.Info("superuser password rotated", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return BootstrapRotated, nil
}

func (a *Accounts) hashPassword(pass string) (string, error) {
	hash, err := a.hasher.Hash(pass)
	if err != nil {
		return "", passwordError(err)
	}
	return hash, nil
}

// passwordError maps hasher rule violations onto ErrWeakPassword.
func passwordError(err error) error {
	switch {
	case errors.Is(err, password.ErrTooShort),
		errors.Is(err, password.ErrTooLong),
		errors.Is(err, password.ErrNumeric):
		return domain.WeakPassword(err)
	default:
		return err
	}
}
