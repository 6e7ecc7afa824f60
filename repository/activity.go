package repository

import (
	"context"
	"time"

	"github.com/fastygo/accounts/domain"
)

type ActivityFilter struct {
	UserID string
	// From and To bound the timestamp inclusively.
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// LoginActivityRepository is append-only. Results are ordered newest first.
type LoginActivityRepository interface {
	// Append is idempotent on activity.ID.
	Append(ctx context.Context, activity *domain.LoginActivity) error
	List(ctx context.Context, filter ActivityFilter) ([]domain.LoginActivity, error)
}

// RecentLoginFeed keeps a short newest-first list of sign-ins for the dashboard.
type RecentLoginFeed interface {
	Push(ctx context.Context, login domain.RecentLogin) error
	Latest(ctx context.Context, n int) ([]domain.RecentLogin, error)
	// Reset drops every entry. Called when cached rows may name users that
	// were deleted or renamed.
	Reset(ctx context.Context) error
}
