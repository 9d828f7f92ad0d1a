package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"tictactoe_online/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic retries after WATCH invalidation.
const maxTxRetries = 32

// RedisStore keeps one JSON document per Redis key and publishes every
// committed document on a per-key pub/sub channel, so subscribers see
// changes in commit order without re-reading.
type RedisStore struct {
	client *redis.Client

	mu      sync.Mutex
	cleanup []string
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client (shared with the
// rate limiter middleware).
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying connection for sharing with the rate
// limiter middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func channelFor(key string) string {
	return "store:" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return doc, err
}

func (s *RedisStore) Set(ctx context.Context, key string, doc []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, doc, 0)
		pipe.Publish(ctx, channelFor(key), doc)
		return nil
	})
	return err
}

func (s *RedisStore) Update(ctx context.Context, key string, fields map[string]any) error {
	cur, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	merged := map[string]any{}
	if cur != nil {
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
	return s.Set(ctx, key, doc)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Publish(ctx, channelFor(key), "")
		return nil
	})
	return err
}

func (s *RedisStore) Transaction(ctx context.Context, key string, fn TxFunc) (TxResult, error) {
	var res TxResult

	attempt := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			cur = nil
		} else if err != nil {
			return err
		}

		next, ferr := fn(cur)
		if errors.Is(ferr, ErrAbort) {
			res = TxResult{Committed: false, Value: cur}
			return nil
		}
		if ferr != nil {
			return ferr
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
				pipe.Publish(ctx, channelFor(key), "")
			} else {
				pipe.Set(ctx, key, next, 0)
				pipe.Publish(ctx, channelFor(key), next)
			}
			return nil
		})
		if err != nil {
			return err
		}
		res = TxResult{Committed: true, Value: next}
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, attempt, key)
		if err == redis.TxFailedErr {
			// another writer committed between WATCH and EXEC
			continue
		}
		if err != nil {
			return TxResult{}, err
		}
		return res, nil
	}
	return TxResult{}, errors.New("transaction retries exhausted")
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func (s *redisSubscription) Close() {
	s.cancel()
	_ = s.pubsub.Close()
}

func (s *RedisStore) Subscribe(ctx context.Context, key string, handler func(doc []byte)) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, channelFor(key))

	// wait for the subscription to be confirmed before the initial read,
	// so no commit can slip between the two
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	initial, err := s.Get(ctx, key)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	go func() {
		handler(initial)
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == "" {
					handler(nil)
				} else {
					handler([]byte(msg.Payload))
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &redisSubscription{pubsub: pubsub, cancel: cancel}, nil
}

func (s *RedisStore) RegisterDisconnectCleanup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanup = append(s.cleanup, key)
}

// Close deletes every key registered for disconnect cleanup. Best
// effort: a hard network partition can skip it entirely.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	keys := s.cleanup
	s.cleanup = nil
	s.mu.Unlock()

	ctx := context.Background()
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			logger.Warn("disconnect cleanup failed", "key", key, "error", err)
		}
	}
	return s.client.Close()
}
