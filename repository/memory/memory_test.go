package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

func strPtr(s string) *string { return &s }

func TestUserRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@x.com", Handle: strPtr("alice"), Role: domain.RoleUser}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Email: "a@x.com", Role: domain.RoleUser}), domain.ErrEmailTaken)
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Email: "b@x.com", Handle: strPtr("alice"), Role: domain.RoleUser}), domain.ErrHandleTaken)
	// several users may have no handle
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "c@x.com", Role: domain.RoleUser}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "d@x.com", Role: domain.RoleUser}))
}

func TestUserRepositoryUpsertByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	first := &domain.User{Email: "root@x.com", Role: domain.RoleAdmin, IsSuperuser: true, PasswordHash: "h1"}
	created, err := repo.UpsertByEmail(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &domain.User{Email: "root@x.com", Role: domain.RoleAdmin, IsSuperuser: true, PasswordHash: "h2"}
	created, err = repo.UpsertByEmail(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	stored, err := repo.GetByEmail(ctx, "ROOT@x.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", stored.PasswordHash)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)
}

func TestUserRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewUserRepository().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "admin@x.com", Role: domain.RoleAdmin, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "bob@x.com", Handle: strPtr("Bobby"), Role: domain.RoleUser, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "carol@x.com", Role: domain.RoleUser, IsActive: false}))

	all, err := repo.List(ctx, repository.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "carol@x.com", all[0].Email, "newest first")

	found, err := repo.List(ctx, repository.UserFilter{Search: "bobb"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob@x.com", found[0].Email)

	inactive := false
	found, err = repo.List(ctx, repository.UserFilter{Role: domain.RoleUser, Active: &inactive})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "carol@x.com", found[0].Email)

	found, err = repo.List(ctx, repository.UserFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob@x.com", found[0].Email)
}

func TestLoginActivityRepositoryAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository()
	u := &domain.User{Email: "a@x.com", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, u))

	repo := NewLoginActivityRepository(users)
	a := &domain.LoginActivity{ID: "act-1", UserID: u.ID, IPAddress: "1.2.3.4", Timestamp: time.Now()}
	require.NoError(t, repo.Append(ctx, a))
	require.NoError(t, repo.Append(ctx, a))
	assert.Equal(t, 1, repo.Len())

	rows, err := repo.List(ctx, repository.ActivityFilter{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@x.com", rows[0].UserEmail)
}

func TestRecentLoginFeedBounded(t *testing.T) {
	ctx := context.Background()
	feed := NewRecentLoginFeed(2)
	for _, email := range []string{"a", "b", "c"} {
		require.NoError(t, feed.Push(ctx, domain.RecentLogin{UserEmail: email}))
	}
	got, err := feed.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].UserEmail)
	assert.Equal(t, "b", got[1].UserEmail)
}

func TestRecentLoginFeedReset(t *testing.T) {
	ctx := context.Background()
	feed := NewRecentLoginFeed(2)
	require.NoError(t, feed.Push(ctx, domain.RecentLogin{UserEmail: "a"}))
	require.NoError(t, feed.Reset(ctx))

	got, err := feed.Latest(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoginActivityRepositoryHidesDeletedUsers(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository()
	repo := NewLoginActivityRepository(users)

	alice := &domain.User{Email: "alice@x.com", Role: domain.RoleUser}
	bob := &domain.User{Email: "bob@x.com", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, &domain.LoginActivity{UserID: alice.ID, Timestamp: base}))
	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.Append(ctx, &domain.LoginActivity{UserID: bob.ID, Timestamp: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, users.Delete(ctx, bob.ID))

	// the page is taken after the join, so the limit is filled by alice's row
	rows, err := repo.List(ctx, repository.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice@x.com", rows[0].UserEmail)
}
