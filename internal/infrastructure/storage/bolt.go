package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt keeps the local area in a BoltDB file. The file is locked by the
// opening process, so clients in separate processes should share Redis instead.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt initializes the BoltDB file and ensures the bucket exists.
func OpenBolt(path string, bucket string) (*Bolt, error) {
	if bucket == "" {
		bucket = "local"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

func (b *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	if b == nil || b.db == nil {
		return nil, false, bolt.ErrDatabaseNotOpen
	}
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(b.bucket).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (b *Bolt) Set(_ context.Context, key string, value []byte) error {
	if b == nil || b.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), value)
	})
}

func (b *Bolt) Delete(_ context.Context, key string) error {
	if b == nil || b.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
}

func (b *Bolt) Keys(_ context.Context) ([]string, error) {
	if b == nil || b.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Size returns the number of stored keys.
func (b *Bolt) Size() (int, error) {
	if b == nil || b.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := b.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(b.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (b *Bolt) Ping(_ context.Context) error {
	if b == nil || b.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return b.db.View(func(tx *bolt.Tx) error { return nil })
}

// Stats exposes Bolt statistics for the status command.
func (b *Bolt) Stats() bolt.Stats {
	if b == nil || b.db == nil {
		return bolt.Stats{}
	}
	return b.db.Stats()
}

// Close closes the Bolt database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
