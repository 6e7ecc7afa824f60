package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

// UserRepository keeps users in a map guarded by a mutex. Email and handle
// uniqueness are enforced the same way the database constraints do.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]domain.User),
		now:   time.Now,
	}
}

// WithClock overrides the clock used for created/updated timestamps.
func (r *UserRepository) WithClock(now func() time.Time) *UserRepository {
	r.now = now
	return r
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var out []domain.User
	for _, u := range r.users {
		if search != "" && !strings.Contains(u.Email, search) && !strings.Contains(strings.ToLower(u.HandleValue()), search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		out = append(out, *clone(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *clone(*user)
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.CreatedAt = stored.CreatedAt
	user.LastLogin = stored.LastLogin
	user.UpdatedAt = r.now()
	r.users[user.ID] = *clone(*user)
	return nil
}

func (r *UserRepository) UpsertByEmail(_ context.Context, user *domain.User) (bool, error) {
	if user == nil {
		return false, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, stored := range r.users {
		if stored.Email == user.Email {
			stored.PasswordHash = user.PasswordHash
			stored.UpdatedAt = r.now()
			r.users[id] = stored
			*user = *clone(stored)
			return false, nil
		}
	}
	if err := r.checkUnique(user); err != nil {
		return false, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *clone(*user)
	return true, nil
}

func (r *UserRepository) SetPassword(_ context.Context, id string, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.now()
	r.users[id] = u
	return nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	r.users[id] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) Counts(_ context.Context) (repository.UserCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var c repository.UserCounts
	for _, u := range r.users {
		c.Total++
		switch u.Role {
		case domain.RoleAdmin:
			c.Admins++
		case domain.RoleUser:
			c.Regular++
		}
	}
	return c, nil
}

func (r *UserRepository) checkUnique(user *domain.User) error {
	for id, stored := range r.users {
		if id == user.ID {
			continue
		}
		if stored.Email == user.Email {
			return domain.ErrEmailTaken
		}
		if user.Handle != nil && stored.Handle != nil && *stored.Handle == *user.Handle {
			return domain.ErrHandleTaken
		}
	}
	return nil
}

func clone(u domain.User) *domain.User {
	if u.Handle != nil {
		h := *u.Handle
		u.Handle = &h
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return &u
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
