package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/infrastructure/buffer"
	"github.com/fastygo/accounts/repository"
	"github.com/fastygo/accounts/repository/memory"
)

type staticHealth bool

func (h staticHealth) IsOnline() bool { return bool(h) }

type processorFixture struct {
	store      *buffer.Store
	users      *memory.UserRepository
	activities *memory.LoginActivityRepository
	processor  *BufferProcessor
	bridge     *BufferBridge
	user       *domain.User
}

func newProcessorFixture(t *testing.T, health ConnectionHealth, cfg ProcessorConfig) *processorFixture {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users := memory.NewUserRepository()
	user := &domain.User{Email: "a@x.com", Role: domain.RoleUser, IsActive: true, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), user))

	activities := memory.NewLoginActivityRepository(users)
	processor := NewBufferProcessor(store, health, activities, nil, cfg)
	return &processorFixture{
		store:      store,
		users:      users,
		activities: activities,
		processor:  processor,
		bridge:     NewBufferBridge(processor),
		user:       user,
	}
}

func (f *processorFixture) activity(id string, at time.Time) *domain.LoginActivity {
	return &domain.LoginActivity{ID: id, UserID: f.user.ID, IPAddress: "10.0.0.1", Timestamp: at}
}

func TestDrainReplaysBufferedActivitiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, staticHealth(true), ProcessorConfig{})
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := f.activity("11111111-1111-1111-1111-111111111111", at)
	// stored by an append whose acknowledgement was lost
	require.NoError(t, f.activities.Append(ctx, first))

	require.NoError(t, f.bridge.BufferActivity(ctx, first))
	require.NoError(t, f.bridge.BufferActivity(ctx, first))
	require.NoError(t, f.bridge.BufferActivity(ctx, f.activity("22222222-2222-2222-2222-222222222222", at.Add(time.Minute))))
	assert.Equal(t, 2, f.processor.Size())

	replayed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, replayed)
	assert.Equal(t, 0, f.processor.Size())
	assert.Equal(t, 2, f.activities.Len())

	rows, err := f.activities.List(ctx, repository.ActivityFilter{UserID: f.user.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@x.com", rows[0].UserEmail)
	assert.True(t, rows[0].Timestamp.Equal(at.Add(time.Minute)))
}

func TestDrainSkipsWhileOffline(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, staticHealth(false), ProcessorConfig{})
	require.NoError(t, f.bridge.BufferActivity(ctx, f.activity("33333333-3333-3333-3333-333333333333", time.Now())))

	replayed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, replayed)
	assert.Equal(t, 1, f.processor.Size())
}

func TestDrainRequeuesThenDrops(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, nil, ProcessorConfig{MaxRetries: 2})
	require.NoError(t, f.bridge.BufferActivity(ctx, f.activity("44444444-4444-4444-4444-444444444444", time.Now())))
	f.activities.FailWith(errors.New("connection refused"))

	replayed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, replayed)
	require.Equal(t, 1, f.processor.Size())

	items, err := f.store.GetBatch(1)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Retries)

	_, err = f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f.processor.Size())
}

func TestDrainDropsUnprocessableItems(t *testing.T) {
	ctx := context.Background()
	f := newProcessorFixture(t, nil, ProcessorConfig{})
	require.NoError(t, f.store.Enqueue(buffer.Item{ID: "x", Entity: "profile", Operation: "update"}))

	replayed, err := f.processor.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, replayed)
	assert.Equal(t, 0, f.processor.Size())
}

func TestBridgeRejectsActivityWithoutID(t *testing.T) {
	f := newProcessorFixture(t, nil, ProcessorConfig{})
	err := f.bridge.BufferActivity(context.Background(), &domain.LoginActivity{UserID: f.user.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCleanupHonoursRetention(t *testing.T) {
	f := newProcessorFixture(t, nil, ProcessorConfig{Retention: time.Hour})
	require.NoError(t, f.store.Enqueue(buffer.Item{ID: "old", EnqueuedAt: time.Now().Add(-2 * time.Hour)}))
	require.NoError(t, f.store.Enqueue(buffer.Item{ID: "new"}))

	removed, err := f.processor.Cleanup(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, f.processor.Size())
}
