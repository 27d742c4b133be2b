package storage

import (
	"context"
	"sync"
)

// memStore keeps the directory in process memory. It exists for tests and
// dry runs; the set is lost on restart.
type memStore struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func newMemStore() *memStore {
	return &memStore{ids: make(map[int64]struct{})}
}

func (s *memStore) Register(_ context.Context, userID int64) error {
	s.mu.Lock()
	s.ids[userID] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *memStore) ListAll(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out, nil
}

func (s *memStore) Close() error { return nil }
