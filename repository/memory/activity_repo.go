package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

// LoginActivityRepository is an append-only in-memory audit log. User email
// and handle are joined from users at read time; rows whose user is gone are
// not returned.
type LoginActivityRepository struct {
	mu      sync.RWMutex
	rows    []domain.LoginActivity
	seen    map[string]struct{}
	users   *UserRepository
	failing error
}

func NewLoginActivityRepository(users *UserRepository) *LoginActivityRepository {
	return &LoginActivityRepository{
		seen:  make(map[string]struct{}),
		users: users,
	}
}

// FailWith makes subsequent Append calls return err; nil restores normal operation.
func (r *LoginActivityRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = err
}

func (r *LoginActivityRepository) Append(_ context.Context, activity *domain.LoginActivity) error {
	if activity == nil || activity.UserID == "" {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failing != nil {
		return r.failing
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if _, dup := r.seen[activity.ID]; dup {
		return nil
	}
	r.seen[activity.ID] = struct{}{}
	r.rows = append(r.rows, domain.LoginActivity{
		ID:        activity.ID,
		UserID:    activity.UserID,
		IPAddress: activity.IPAddress,
		Timestamp: activity.Timestamp,
	})
	return nil
}

func (r *LoginActivityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]domain.LoginActivity, error) {
	r.mu.RLock()
	var out []domain.LoginActivity
	for _, a := range r.rows {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && a.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if r.users != nil {
		joined := out[:0]
		for _, a := range out {
			u, err := r.users.GetByID(ctx, a.UserID)
			if err != nil {
				// rows of deleted users go with them, as ON DELETE CASCADE does
				continue
			}
			a.UserEmail = u.Email
			a.UserHandle = u.Handle
			joined = append(joined, a)
		}
		out = joined
	}
	return page(out, filter.Limit, filter.Offset), nil
}

// Len returns the number of stored rows.
func (r *LoginActivityRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
