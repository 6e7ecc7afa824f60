package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
	"github.com/fastygo/accounts/usecase"
)

// RecentLimit is the number of sign-ins shown on the dashboard.
const RecentLimit = 10

// Recorder appends login activities and serves the audit trail.
type Recorder struct {
	activities repository.LoginActivityRepository
	feed       repository.RecentLoginFeed
	buffer     usecase.ActivityBuffer
	logger     *zap.Logger
}

// New builds a Recorder. feed and buffer are optional.
func New(activities repository.LoginActivityRepository, feed repository.RecentLoginFeed, buffer usecase.ActivityBuffer, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		activities: activities,
		feed:       feed,
		buffer:     buffer,
		logger:     logger,
	}
}

// Record appends one activity for user. When the store rejects the write the
// activity is handed to the buffer; the call only fails when both fail.
func (r *Recorder) Record(ctx context.Context, user *domain.User, clientIP string, at time.Time) (*domain.LoginActivity, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	activity := &domain.LoginActivity{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		UserEmail:  user.Email,
		UserHandle: user.Handle,
		IPAddress:  clientIP,
		Timestamp:  at.UTC(),
	}

	if err := r.activities.Append(ctx, activity); err != nil {
		if r.buffer == nil {
			return nil, err
		}
		if bufErr := r.buffer.BufferActivity(ctx, activity); bufErr != nil {
			r.logger.Error("failed to buffer login activity", zap.String("user_id", user.ID), zap.Error(bufErr))
			return nil, err
		}
		r.logger.Warn("login activity buffered due to repository error", zap.String("user_id", user.ID), zap.Error(err))
	}

	if r.feed != nil {
		login := domain.RecentLogin{UserEmail: user.Email, IPAddress: clientIP, Timestamp: activity.Timestamp}
		if err := r.feed.Push(ctx, login); err != nil {
			r.logger.Warn("failed to push recent login", zap.Error(err))
		}
	}
	return activity, nil
}

// Invalidate empties the recent-login feed so the dashboard falls back to the
// store until the feed refills. Failures are logged, not returned.
func (r *Recorder) Invalidate(ctx context.Context) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Reset(ctx); err != nil {
		r.logger.Warn("failed to reset recent login feed", zap.Error(err))
	}
}

// ListAll returns every activity matching filter. Admin only.
func (r *Recorder) ListAll(ctx context.Context, actor domain.Principal, filter repository.ActivityFilter) ([]domain.LoginActivity, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "start_date must not be after end_date")
	}
	return r.activities.List(ctx, filter)
}

// ListMine returns the caller's own activities.
func (r *Recorder) ListMine(ctx context.Context, actor domain.Principal, limit, offset int) ([]domain.LoginActivity, error) {
	if err := domain.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return r.activities.List(ctx, repository.ActivityFilter{
		UserID: actor.UserID(),
		Limit:  limit,
		Offset: offset,
	})
}

// Recent returns up to n of the latest sign-ins. The feed is used when it can
// fill the request; otherwise the store is the source of truth.
func (r *Recorder) Recent(ctx context.Context, n int) ([]domain.RecentLogin, error) {
	if n <= 0 {
		n = RecentLimit
	}
	if r.feed != nil {
		cached, err := r.feed.Latest(ctx, n)
		if err != nil {
			r.logger.Warn("recent login feed unavailable", zap.Error(err))
		} else if len(cached) == n {
			return cached, nil
		}
	}

	rows, err := r.activities.List(ctx, repository.ActivityFilter{Limit: n})
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecentLogin, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RecentLogin{
			UserEmail: row.UserEmail,
			IPAddress: row.IPAddress,
			Timestamp: row.Timestamp,
		})
	}
	return out, nil
}
