// Package data provides the persistence daos backing the permission store
// and the local assignment cache. The core never cares about the storage
// medium; anything that can get, put, and delete a blob under a key
// qualifies.
package data

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrKeyNotFound is returned when a storage key has no value.
var ErrKeyNotFound = errors.New("key not found")

// ProfileRepository defines the interface for session-blob storage. The
// permission store keeps the serialized profile and the raw user snapshot
// under well-known keys via this interface.
type ProfileRepository interface {
	// Get returns the blob stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the blob under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryDao implements ProfileRepository with an in-process map. This is the
// per-tab storage used in tests and in single-process deployments.
type MemoryDao struct {
	Logger *logrus.Logger

	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryDao creates an empty in-memory store.
func NewMemoryDao(logger *logrus.Logger) *MemoryDao {
	return &MemoryDao{
		Logger: logger,
		values: make(map[string][]byte),
	}
}

func (dao *MemoryDao) Get(ctx context.Context, key string) ([]byte, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	value, ok := dao.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (dao *MemoryDao) Put(ctx context.Context, key string, value []byte) error {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	dao.values[key] = stored
	return nil
}

func (dao *MemoryDao) Delete(ctx context.Context, key string) error {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	delete(dao.values, key)
	return nil
}
