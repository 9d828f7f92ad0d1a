package store

import (
	"context"
	"sync"
)

// scoped delegates to a shared Store but owns its own disconnect
// cleanup list. Every client connection gets one, so closing a session
// reclaims only that session's keys and leaves the shared store open.
type scoped struct {
	Store

	mu   sync.Mutex
	keys []string
}

// Scoped wraps a shared store with per-session disconnect cleanup.
func Scoped(s Store) Store {
	return &scoped{Store: s}
}

func (s *scoped) RegisterDisconnectCleanup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
}

func (s *scoped) Close() error {
	s.mu.Lock()
	keys := s.keys
	s.keys = nil
	s.mu.Unlock()

	var firstErr error
	for _, key := range keys {
		if err := s.Store.Delete(context.Background(), key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
