package integration

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/matchmaking"
	"tictactoe_online/internal/store"
)

func redisStore(t *testing.T) *store.RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := store.NewRedisStore(addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisTransactionSerializesWriters(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()
	key := "it/counter"
	_ = s.Delete(ctx, key)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Transaction(ctx, key, func(cur []byte) ([]byte, error) {
				n := 0
				if cur != nil {
					if err := json.Unmarshal(cur, &n); err != nil {
						return nil, err
					}
				}
				return json.Marshal(n + 1)
			})
			if err != nil {
				t.Errorf("transaction: %v", err)
			}
		}()
	}
	wg.Wait()

	doc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var n int
	if err := json.Unmarshal(doc, &n); err != nil || n != writers {
		t.Fatalf("lost update: counter = %d, want %d", n, writers)
	}
	_ = s.Delete(ctx, key)
}

func TestRedisSubscribeSeesCommits(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()
	key := "it/feed"
	_ = s.Delete(ctx, key)

	seen := make(chan string, 16)
	sub, err := s.Subscribe(ctx, key, func(doc []byte) {
		if doc == nil {
			seen <- "<absent>"
			return
		}
		seen <- string(doc)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// initial read of the absent key
	if got := recv(t, seen); got != "<absent>" {
		t.Fatalf("initial delivery = %s, want <absent>", got)
	}

	_ = s.Set(ctx, key, []byte(`"v1"`))
	if got := recv(t, seen); got != `"v1"` {
		t.Fatalf("delivery = %s, want v1", got)
	}

	_ = s.Delete(ctx, key)
	if got := recv(t, seen); got != "<absent>" {
		t.Fatalf("delete delivery = %s, want <absent>", got)
	}
}

// TestRedisMatchmaking runs the full queue handshake against a real
// instance: two searches, one room, one X, one O, empty slot after.
func TestRedisMatchmaking(t *testing.T) {
	s := redisStore(t)
	q := matchmaking.NewQueue(s, matchmaking.Options{Timeout: 10 * time.Second})
	ctx := context.Background()

	results := make(chan *matchmaking.Match, 2)
	errc := make(chan error, 2)
	for _, uid := range []string{"it_u1", "it_u2"} {
		p := domain.Player{UID: uid, Name: "player " + uid}
		go func() {
			m, err := q.FindMatch(ctx, p)
			if err != nil {
				errc <- err
				return
			}
			results <- m
		}()
	}

	var matches []*matchmaking.Match
	for i := 0; i < 2; i++ {
		select {
		case m := <-results:
			matches = append(matches, m)
		case err := <-errc:
			t.Fatalf("find match: %v", err)
		case <-time.After(15 * time.Second):
			t.Fatal("matchmaking timed out")
		}
	}

	if matches[0].RoomID != matches[1].RoomID {
		t.Fatalf("different rooms: %s vs %s", matches[0].RoomID, matches[1].RoomID)
	}
	if matches[0].Symbol == matches[1].Symbol {
		t.Fatalf("both players got %s", matches[0].Symbol)
	}
	if matches[0].Symbol != game.X && matches[0].Symbol != game.O {
		t.Fatalf("unexpected symbol %s", matches[0].Symbol)
	}
	_ = s.Delete(ctx, "rooms/"+matches[0].RoomID)
}

func recv(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
		return ""
	}
}
