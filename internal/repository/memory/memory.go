// Package memory is an in-process KVStore. It backs tests and the "memory"
// backend, where nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/repository"
)

var _ repository.KVStore = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return nil, apperror.NotFound("key", key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	s.items[key] = v
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }
