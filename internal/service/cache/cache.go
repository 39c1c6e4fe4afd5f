package cache

import (
	"context"
	"errors"
	"fmt"

	"SignalDesk/internal/domain/repository"
	pkgcache "SignalDesk/pkg/cache"
)

var _ repository.StateStore = (*StateStore)(nil)

// StateStore persists engine state as JSON through any pkg/cache backend.
// Entries never expire; staleness is judged by the reader.
type StateStore struct {
	backend pkgcache.Service
}

func NewStateStore(backend pkgcache.Service) *StateStore {
	return &StateStore{backend: backend}
}

func (s *StateStore) Load(ctx context.Context, key string, dest any) error {
	if err := s.backend.Get(ctx, key, dest); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return repository.ErrStateNotFound
		}
		return fmt.Errorf("load state %s: %w", key, err)
	}
	return nil
}

func (s *StateStore) Save(ctx context.Context, key string, value any) error {
	if err := s.backend.Set(ctx, key, value, 0); err != nil {
		return fmt.Errorf("save state %s: %w", key, err)
	}
	return nil
}
