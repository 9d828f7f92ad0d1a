package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/store"
)

func player(uid string) domain.Player {
	return domain.Player{UID: uid, Name: "player " + uid}
}

func loadRoom(t *testing.T, s store.Store, roomID string) *domain.Room {
	t.Helper()
	doc, err := s.Get(context.Background(), Key(roomID))
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if doc == nil {
		return nil
	}
	var r domain.Room
	if err := json.Unmarshal(doc, &r); err != nil {
		t.Fatalf("room record: %v", err)
	}
	return &r
}

func TestCreatePrivateAwaitsJoiner(t *testing.T) {
	s := store.NewMemoryStore()
	roomID, err := CreatePrivate(context.Background(), s, player("u1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(roomID) != 6 {
		t.Fatalf("room id %q, want 6 chars", roomID)
	}

	r := loadRoom(t, s, roomID)
	if got := StateOf(r); got != StateAwaitingJoiner {
		t.Fatalf("state = %s, want %s", got, StateAwaitingJoiner)
	}
	if !r.Private || r.Creator.UID != "u1" || r.Joiner != nil {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestJoinClaimsSeatOnce(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	roomID, _ := CreatePrivate(ctx, s, player("u1"))

	sym, err := Join(ctx, s, roomID, player("u2"))
	if err != nil || sym != game.O {
		t.Fatalf("join = (%s, %v), want (O, nil)", sym, err)
	}
	if got := StateOf(loadRoom(t, s, roomID)); got != StateInProgress {
		t.Fatalf("state after join = %s, want %s", got, StateInProgress)
	}

	if _, err := Join(ctx, s, roomID, player("u3")); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("third player got %v, want ErrRoomFull", err)
	}
}

func TestJoinConcurrentClaimsOneWinner(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	roomID, _ := CreatePrivate(ctx, s, player("u1"))

	const contenders = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	seated := 0
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		p := player(string(rune('a' + i)))
		go func() {
			defer wg.Done()
			sym, err := Join(ctx, s, roomID, p)
			switch {
			case err == nil && sym == game.O:
				mu.Lock()
				seated++
				mu.Unlock()
			case errors.Is(err, ErrRoomFull):
			default:
				t.Errorf("join(%s) = (%s, %v)", p.UID, sym, err)
			}
		}()
	}
	wg.Wait()

	if seated != 1 {
		t.Fatalf("%d players took the joiner seat, want exactly 1", seated)
	}
}

func TestJoinIsIdempotentForSeatedPlayers(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	roomID, _ := CreatePrivate(ctx, s, player("u1"))
	if _, err := Join(ctx, s, roomID, player("u2")); err != nil {
		t.Fatalf("join: %v", err)
	}

	if sym, err := Join(ctx, s, roomID, player("u1")); err != nil || sym != game.X {
		t.Fatalf("creator rejoin = (%s, %v), want (X, nil)", sym, err)
	}
	if sym, err := Join(ctx, s, roomID, player("u2")); err != nil || sym != game.O {
		t.Fatalf("joiner rejoin = (%s, %v), want (O, nil)", sym, err)
	}
}

func TestJoinMissingRoom(t *testing.T) {
	s := store.NewMemoryStore()
	if _, err := Join(context.Background(), s, "ZZZZZZ", player("u1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
