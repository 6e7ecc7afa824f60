package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
	"github.com/fastygo/accounts/repository/memory"
)

type fakeBuffer struct {
	mu    sync.Mutex
	items []*domain.LoginActivity
	err   error
}

func (b *fakeBuffer) BufferActivity(_ context.Context, a *domain.LoginActivity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.items = append(b.items, a)
	return nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, users *memory.UserRepository, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: role, IsActive: true, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestRecordAppendsAndPushesFeed(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	feed := memory.NewRecentLoginFeed(RecentLimit)
	rec := New(store, feed, nil, nil)

	u := seedUser(t, users, "a@x.com", domain.RoleUser)
	got, err := rec.Record(ctx, u, "10.0.0.1", t0)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.True(t, got.Timestamp.Equal(t0))
	assert.Equal(t, 1, store.Len())

	latest, err := feed.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "a@x.com", latest[0].UserEmail)
}

func TestRecordRejectsMissingUser(t *testing.T) {
	rec := New(memory.NewLoginActivityRepository(nil), nil, nil, nil)
	_, err := rec.Record(context.Background(), nil, "10.0.0.1", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestRecordFallsBackToBuffer(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	buf := &fakeBuffer{}
	rec := New(store, nil, buf, nil)
	u := seedUser(t, users, "a@x.com", domain.RoleUser)

	storeErr := errors.New("connection refused")
	store.FailWith(storeErr)

	got, err := rec.Record(ctx, u, "10.0.0.1", t0)
	require.NoError(t, err)
	require.Len(t, buf.items, 1)
	assert.Equal(t, got.ID, buf.items[0].ID)
	assert.Equal(t, 0, store.Len())

	buf.err = errors.New("disk full")
	_, err = rec.Record(ctx, u, "10.0.0.1", t0)
	assert.ErrorIs(t, err, storeErr)
}

func TestRecordWithoutBufferReturnsStoreError(t *testing.T) {
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	rec := New(store, nil, nil, nil)
	u := seedUser(t, users, "a@x.com", domain.RoleUser)

	storeErr := errors.New("connection refused")
	store.FailWith(storeErr)
	_, err := rec.Record(context.Background(), u, "10.0.0.1", t0)
	assert.ErrorIs(t, err, storeErr)
}

func TestListMineOnlyOwnRowsNewestFirst(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	rec := New(store, nil, nil, nil)

	alice := seedUser(t, users, "alice@x.com", domain.RoleUser)
	bob := seedUser(t, users, "bob@x.com", domain.RoleUser)
	for i := 0; i < 4; i++ {
		_, err := rec.Record(ctx, alice, "10.0.0.1", t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		_, err = rec.Record(ctx, bob, "10.0.0.2", t0.Add(time.Duration(i)*time.Minute+time.Second))
		require.NoError(t, err)
	}

	rows, err := rec.ListMine(ctx, domain.Authenticated(alice, domain.Claims{Subject: alice.ID}), 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, alice.ID, row.UserID)
		assert.Equal(t, "alice@x.com", row.UserEmail)
		if i > 0 {
			assert.True(t, rows[i-1].Timestamp.After(row.Timestamp))
		}
	}

	_, err = rec.ListMine(ctx, domain.Anonymous(), 0, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestListAllRequiresAdminAndFilters(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	rec := New(store, nil, nil, nil)

	admin := seedUser(t, users, "root@x.com", domain.RoleAdmin)
	alice := seedUser(t, users, "alice@x.com", domain.RoleUser)
	for i := 0; i < 3; i++ {
		_, err := rec.Record(ctx, alice, "10.0.0.1", t0.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	_, err := rec.Record(ctx, admin, "10.0.0.9", t0.Add(30*time.Minute))
	require.NoError(t, err)

	asAlice := domain.Authenticated(alice, domain.Claims{Subject: alice.ID})
	_, err = rec.ListAll(ctx, asAlice, repository.ActivityFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	asAdmin := domain.Authenticated(admin, domain.Claims{Subject: admin.ID})
	all, err := rec.ListAll(ctx, asAdmin, repository.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	from, to := t0, t0.Add(time.Hour)
	ranged, err := rec.ListAll(ctx, asAdmin, repository.ActivityFilter{UserID: alice.ID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.True(t, ranged[0].Timestamp.Equal(to))
	assert.True(t, ranged[1].Timestamp.Equal(from))

	_, err = rec.ListAll(ctx, asAdmin, repository.ActivityFilter{From: &to, To: &from})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestRecentFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	alice := seedUser(t, users, "alice@x.com", domain.RoleUser)

	withoutFeed := New(store, nil, nil, nil)
	for i := 0; i < 12; i++ {
		_, err := withoutFeed.Record(ctx, alice, "10.0.0.1", t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	// a feed that was empty while the logins happened cannot fill the request
	rec := New(store, memory.NewRecentLoginFeed(RecentLimit), nil, nil)
	recent, err := rec.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, RecentLimit)
	assert.True(t, recent[0].Timestamp.Equal(t0.Add(11*time.Minute)))
	assert.Equal(t, "alice@x.com", recent[0].UserEmail)
}

func TestInvalidateEmptiesFeed(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	store := memory.NewLoginActivityRepository(users)
	feed := memory.NewRecentLoginFeed(RecentLimit)
	alice := seedUser(t, users, "alice@x.com", domain.RoleUser)

	rec := New(store, feed, nil, nil)
	_, err := rec.Record(ctx, alice, "10.0.0.1", t0)
	require.NoError(t, err)

	rec.Invalidate(ctx)
	cached, err := feed.Latest(ctx, RecentLimit)
	require.NoError(t, err)
	assert.Empty(t, cached)

	recent, err := rec.Recent(ctx, RecentLimit)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "alice@x.com", recent[0].UserEmail)

	// a recorder without a feed has nothing to invalidate
	New(store, nil, nil, nil).Invalidate(ctx)
}
