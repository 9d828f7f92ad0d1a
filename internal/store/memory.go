package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MemoryStore is a process-local Store with the same semantics as the
// Redis implementation. Single-process deployments and tests use it.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	subs    map[string]map[int]*memorySub
	nextSub int
	cleanup []string
	closed  bool
}

type memorySub struct {
	store *MemoryStore
	key   string
	id    int
	ch    chan []byte
	done  chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		subs: make(map[string]map[int]*memorySub),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDoc(s.data[key]), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cloneDoc(doc)
	s.publishLocked(key, doc)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := map[string]any{}
	if cur := s.data[key]; cur != nil {
		if err := json.Unmarshal(cur, &merged); err != nil {
			return err
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}

	doc, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	s.data[key] = doc
	s.publishLocked(key, doc)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.publishLocked(key, nil)
	return nil
}

func (s *MemoryStore) Transaction(ctx context.Context, key string, fn TxFunc) (TxResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := cloneDoc(s.data[key])
	next, err := fn(cur)
	if errors.Is(err, ErrAbort) {
		return TxResult{Committed: false, Value: cur}, nil
	}
	if err != nil {
		return TxResult{}, err
	}

	if next == nil {
		delete(s.data, key)
	} else {
		s.data[key] = cloneDoc(next)
	}
	s.publishLocked(key, next)
	return TxResult{Committed: true, Value: next}, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, key string, handler func(doc []byte)) (Subscription, error) {
	s.mu.Lock()
	sub := &memorySub{
		store: s,
		key:   key,
		id:    s.nextSub,
		ch:    make(chan []byte, 64),
		done:  make(chan struct{}),
	}
	s.nextSub++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]*memorySub)
	}
	s.subs[key][sub.id] = sub
	// queue the initial value while holding the lock so no commit can
	// slip in between
	sub.ch <- cloneDoc(s.data[key])
	s.mu.Unlock()

	go func() {
		for {
			select {
			case doc := <-sub.ch:
				handler(doc)
			case <-sub.done:
				return
			}
		}
	}()

	return sub, nil
}

func (m *memorySub) Close() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if subs := m.store.subs[m.key]; subs != nil {
		if _, live := subs[m.id]; live {
			delete(subs, m.id)
			close(m.done)
		}
	}
}

func (s *MemoryStore) RegisterDisconnectCleanup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanup = append(s.cleanup, key)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	keys := s.cleanup
	s.cleanup = nil
	s.mu.Unlock()

	for _, key := range keys {
		_ = s.Delete(context.Background(), key)
	}
	return nil
}

// publishLocked fans a committed document out to every subscriber of
// key. Caller holds s.mu, so enqueue order equals commit order.
func (s *MemoryStore) publishLocked(key string, doc []byte) {
	for _, sub := range s.subs[key] {
		select {
		case sub.ch <- cloneDoc(doc):
		default:
			// subscriber too far behind, drop oldest semantics are not
			// needed here: queue depth 64 outlives any test or game
		}
	}
}

func cloneDoc(doc []byte) []byte {
	if doc == nil {
		return nil
	}
	return append([]byte(nil), doc...)
}
