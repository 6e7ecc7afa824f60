package buffer

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	defaultBucket = "login_activities"
	indexSuffix   = "_ids"
)

// Store is a FIFO of writes waiting for the primary store, persisted in
// BoltDB. Items are keyed by an increasing sequence; a second bucket maps
// item ids to their keys.
type Store struct {
	db      *bolt.DB
	items   []byte
	index   []byte
	maxSize int
}

// Open initializes the BoltDB file and ensures both buckets exist.
// maxSize <= 0 means unbounded.
func Open(path string, bucket string, maxSize int) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:      db,
		items:   []byte(bucket),
		index:   []byte(bucket + indexSuffix),
		maxSize: maxSize,
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{s.items, s.index} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Enqueue appends item to the tail. An item whose id is already buffered is
// ignored.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize(time.Now())

	return s.db.Update(func(tx *bolt.Tx) error {
		items, index := tx.Bucket(s.items), tx.Bucket(s.index)
		if index.Get([]byte(item.ID)) != nil {
			return nil
		}
		if s.maxSize > 0 && items.Stats().KeyN >= s.maxSize {
			return ErrFull
		}
		return s.put(items, index, item)
	})
}

// GetBatch returns up to limit items from the head without removing them.
// Entries that cannot be decoded are left for Cleanup.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var batch []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.items).Cursor()
		for k, v := c.First(); k != nil && len(batch) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			batch = append(batch, item)
		}
		return nil
	})
	return batch, err
}

// Remove deletes the item with item.ID.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.delete(tx.Bucket(s.items), tx.Bucket(s.index), item.ID)
	})
}

// Requeue moves item to the tail and counts the failed attempt.
func (s *Store) Requeue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.Retries++
	return s.db.Update(func(tx *bolt.Tx) error {
		items, index := tx.Bucket(s.items), tx.Bucket(s.index)
		if err := s.delete(items, index, item.ID); err != nil {
			return err
		}
		return s.put(items, index, item)
	})
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.items).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes items enqueued before olderThan, and entries that no longer
// decode, returning how many were dropped.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		items, index := tx.Bucket(s.items), tx.Bucket(s.index)

		type expired struct{ key, id []byte }
		var drop []expired
		err := items.ForEach(func(k, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				drop = append(drop, expired{key: append([]byte(nil), k...)})
				return nil
			}
			if item.EnqueuedAt.Before(olderThan) {
				drop = append(drop, expired{key: append([]byte(nil), k...), id: []byte(item.ID)})
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, e := range drop {
			if err := items.Delete(e.key); err != nil {
				return err
			}
			if e.id != nil {
				if err := index.Delete(e.id); err != nil {
					return err
				}
			}
		}
		removed = len(drop)
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) put(items, index *bolt.Bucket, item Item) error {
	seq, err := items.NextSequence()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	key := seqKey(seq)
	if err := items.Put(key, payload); err != nil {
		return err
	}
	return index.Put([]byte(item.ID), key)
}

func (s *Store) delete(items, index *bolt.Bucket, id string) error {
	if id == "" {
		return nil
	}
	stored := index.Get([]byte(id))
	if stored == nil {
		return nil
	}
	key := append([]byte(nil), stored...)
	if err := items.Delete(key); err != nil {
		return err
	}
	return index.Delete([]byte(id))
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
