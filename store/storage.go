package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boltdb/bolt"
)

// ErrNotFound is returned for keys that are not stored
var ErrNotFound = errors.New("not found")

// Storage is a flat key-value store
type Storage interface {
	Set(k, v []byte) error
	Get(k []byte) ([]byte, error)
	Delete(k []byte) error
	ForEach(fn func(k, v []byte) error) error
	Close() error
}

// boltStorage keeps every key in one bucket of a bolt file
type boltStorage struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens or creates a bolt file at path using the named bucket
func OpenBolt(path, bucket string) (Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return &boltStorage{db: db, bucket: []byte(bucket)}, nil
}

func (s *boltStorage) Set(k, v []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(k, v)
	})
}

func (s *boltStorage) Get(k []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get(k)
		if v == nil {
			return ErrNotFound
		}
		// bolt values are only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (s *boltStorage) Delete(k []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(k)
	})
}

func (s *boltStorage) ForEach(fn func(k, v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(fn)
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}

// memoryStorage is an in-process Storage for tests and cache-less runs
type memoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory storage
func NewMemory() Storage {
	return &memoryStorage{data: make(map[string][]byte)}
}

func (s *memoryStorage) Set(k, v []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(k)] = append([]byte(nil), v...)
	return nil
}

func (s *memoryStorage) Get(k []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(k)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memoryStorage) Delete(k []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(k))
	return nil
}

func (s *memoryStorage) ForEach(fn func(k, v []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStorage) Close() error { return nil }
