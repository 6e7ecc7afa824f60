package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "buffer.db"), "", maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type payload struct {
	IP string `json:"ip"`
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestEnqueueIsFIFO(t *testing.T) {
	store := openStore(t, 0)

	for _, id := range []string{"c", "a", "b"} {
		item, err := NewItem(id, "u1", EntityLoginActivity, OperationAppend, payload{IP: "10.0.0." + id})
		require.NoError(t, err)
		require.NoError(t, store.Enqueue(item))
	}

	batch, err := store.GetBatch(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(batch))
	assert.False(t, batch[0].EnqueuedAt.IsZero())

	var got payload
	require.NoError(t, batch[0].Decode(&got))
	assert.Equal(t, "10.0.0.c", got.IP)
}

func TestEnqueueIgnoresBufferedID(t *testing.T) {
	store := openStore(t, 0)
	require.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityLoginActivity}))
	require.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityLoginActivity, Retries: 9}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	batch, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Zero(t, batch[0].Retries)
}

func TestEnqueueAssignsMissingID(t *testing.T) {
	store := openStore(t, 0)
	require.NoError(t, store.Enqueue(Item{Entity: EntityLoginActivity}))

	batch, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.NotEmpty(t, batch[0].ID)
}

func TestEnqueueRespectsMaxSize(t *testing.T) {
	store := openStore(t, 1)
	require.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityLoginActivity}))
	assert.ErrorIs(t, store.Enqueue(Item{ID: "b", Entity: EntityLoginActivity}), ErrFull)
	// a duplicate is not a new entry
	assert.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityLoginActivity}))
}

func TestRemoveByID(t *testing.T) {
	store := openStore(t, 0)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Enqueue(Item{ID: id}))
	}

	require.NoError(t, store.Remove(Item{ID: "b"}))
	require.NoError(t, store.Remove(Item{ID: "missing"}))

	batch, err := store.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(batch))

	// the id can be buffered again once removed
	require.NoError(t, store.Enqueue(Item{ID: "b"}))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestRequeueMovesToTail(t *testing.T) {
	store := openStore(t, 0)
	require.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityLoginActivity}))
	require.NoError(t, store.Enqueue(Item{ID: "b", Entity: EntityLoginActivity}))

	batch, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, store.Requeue(batch[0]))

	all, err := store.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(all))
	assert.Equal(t, 1, all[1].Retries)
	assert.True(t, all[1].EnqueuedAt.Equal(batch[0].EnqueuedAt))
}

func TestCleanupDropsOldItems(t *testing.T) {
	store := openStore(t, 0)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Enqueue(Item{ID: "old-1", EnqueuedAt: old}))
	require.NoError(t, store.Enqueue(Item{ID: "fresh"}))
	require.NoError(t, store.Enqueue(Item{ID: "old-2", EnqueuedAt: old.Add(time.Minute)}))

	removed, err := store.Cleanup(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	rest, err := store.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids(rest))

	require.NoError(t, store.Enqueue(Item{ID: "old-1"}))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestClosedStore(t *testing.T) {
	var store *Store
	assert.Error(t, store.Enqueue(Item{ID: "a"}))
	_, err := store.Size()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
