// Package memstorage provides an in-memory BlobStore for tests and for
// running the tracker without a database.
package memstorage

import (
	"context"
	"sync"
)

type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func New() *BlobStore {
	return &BlobStore{blobs: map[string][]byte{}}
}

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *BlobStore) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.blobs[key] = stored
	return nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}
