package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	kvBucket   = []byte("kv")
	metaBucket = []byte("metadata")
)

const schemaVersionKey = "schema_version"

// LastExportKey records when the watchlist was last written to a file.
const LastExportKey = "last_export"

// SchemaVersion is written on first open; bump it when a stored value
// changes shape.
const SchemaVersion = "1"

// MemoryPath selects an in-process store instead of a database file.
const MemoryPath = ":memory:"

type Store struct {
	db *bolt.DB
}

var _ Metadata = (*Store)(nil)

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{kvBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		meta := tx.Bucket(metaBucket)
		if meta.Get([]byte(schemaVersionKey)) == nil {
			return meta.Put([]byte(schemaVersionKey), []byte(SchemaVersion))
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Open returns a bbolt-backed KV for dbPath, or a MemoryKV for MemoryPath.
// The returned close func is always non-nil.
func Open(dbPath string, timeout time.Duration) (KV, func() error, error) {
	if dbPath == MemoryPath {
		return NewMemoryKV(), func() error { return nil }, nil
	}
	s, err := NewStore(dbPath, timeout)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(kvBucket).Get([]byte(key)); data != nil {
			// bbolt values are only valid inside the transaction.
			out = slices.Clone(data)
		}
		return nil
	})
	return out, err
}

func (s *Store) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), value)
	})
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Delete([]byte(key))
	})
}

// Keys lists stored keys in byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		value = string(tx.Bucket(metaBucket).Get([]byte(key)))
		return nil
	})
	return value, err
}

func (s *Store) SetMetadata(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), []byte(value))
	})
}
