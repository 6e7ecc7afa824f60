package repository

import (
	"context"
	"time"

	"github.com/fastygo/accounts/domain"
)

type UserFilter struct {
	// Search matches email or handle, case-insensitively.
	Search string
	Role   domain.Role
	Active *bool
	Limit  int
	Offset int
}

type UserCounts struct {
	Total   int
	Admins  int
	Regular int
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// Create fails with domain.ErrEmailTaken or domain.ErrHandleTaken on duplicates.
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	// UpsertByEmail inserts user, or when the email already exists only
	// replaces the stored password hash. It reports whether a row was created.
	UpsertByEmail(ctx context.Context, user *domain.User) (bool, error)
	SetPassword(ctx context.Context, id string, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (UserCounts, error)
}
