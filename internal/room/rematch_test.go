package room

import (
	"context"
	"testing"

	"tictactoe_online/internal/game"
	"tictactoe_online/internal/store"
)

// finishGame plays the fixed top-row win so every rematch test starts
// from the same finished record: X won, X started.
func finishGame(t *testing.T, x, o *Session) {
	t.Helper()
	mustMove(t, x, 0)
	mustMove(t, o, 3)
	mustMove(t, x, 1)
	mustMove(t, o, 4)
	mustMove(t, x, 2)
}

func TestVoteRematchIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	roomID := newMatchedRoom(t, s)
	x := startSession(t, s, roomID, player("u1"), game.X, Options{})
	o := startSession(t, s, roomID, player("u2"), game.O, Options{})
	finishGame(t, x, o)

	if err := VoteRematch(context.Background(), s, roomID, game.O); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := VoteRematch(context.Background(), s, roomID, game.O); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	r := loadRoom(t, s, roomID)
	if !r.Rematch[game.O] || r.Rematch[game.X] {
		t.Fatalf("rematch votes = %v, want only O", r.Rematch)
	}
	if got := StateOf(r); got != StateRematchPending {
		t.Fatalf("state = %s, want %s", got, StateRematchPending)
	}
}

func TestVoteRematchRejectedWhileRunning(t *testing.T) {
	s := store.NewMemoryStore()
	roomID := newMatchedRoom(t, s)

	if err := VoteRematch(context.Background(), s, roomID, game.X); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if r := loadRoom(t, s, roomID); len(r.Rematch) != 0 {
		t.Fatalf("vote recorded on a running game: %v", r.Rematch)
	}
}

func TestResetNeedsBothVotes(t *testing.T) {
	s := store.NewMemoryStore()
	roomID := newMatchedRoom(t, s)
	x := startSession(t, s, roomID, player("u1"), game.X, Options{})
	o := startSession(t, s, roomID, player("u2"), game.O, Options{})
	finishGame(t, x, o)

	_ = VoteRematch(context.Background(), s, roomID, game.X)
	committed, err := Reset(context.Background(), s, roomID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if committed {
		t.Fatal("reset committed with one vote")
	}
}

func TestResetStartsNextGameOnce(t *testing.T) {
	s := store.NewMemoryStore()
	roomID := newMatchedRoom(t, s)
	// no live sessions: drive the handshake directly so the creator's
	// automatic reset cannot interfere with the double-reset check
	ctx := context.Background()

	xs := startSession(t, s, roomID, player("u1"), game.X, Options{})
	os := startSession(t, s, roomID, player("u2"), game.O, Options{})
	finishGame(t, xs, os)
	xs.Close()
	os.Close()

	_ = VoteRematch(ctx, s, roomID, game.X)
	_ = VoteRematch(ctx, s, roomID, game.O)

	committed, err := Reset(ctx, s, roomID)
	if err != nil || !committed {
		t.Fatalf("reset = (%v, %v), want commit", committed, err)
	}

	r := loadRoom(t, s, roomID)
	if r.GameOver || r.Winner != "" || r.WinLine != nil || len(r.Rematch) != 0 || r.StatsUpdated {
		t.Fatalf("record not reset: %+v", r)
	}
	for i, c := range r.Board {
		if c != game.Empty {
			t.Fatalf("cell %d not cleared: %q", i, c)
		}
	}
	// X started the first game, so O opens the next one
	if r.Turn != game.O || r.LastStarter != game.O {
		t.Fatalf("turn = %s lastStarter = %s, want O/O", r.Turn, r.LastStarter)
	}

	committed, err = Reset(ctx, s, roomID)
	if err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if committed {
		t.Fatal("second reset committed against a fresh game")
	}
}

func TestCreatorSessionResetsWhenBothVote(t *testing.T) {
	s := store.NewMemoryStore()
	roomID := newMatchedRoom(t, s)
	x := startSession(t, s, roomID, player("u1"), game.X, Options{})
	o := startSession(t, s, roomID, player("u2"), game.O, Options{})
	finishGame(t, x, o)

	if err := x.VoteRematch(context.Background()); err != nil {
		t.Fatalf("x vote: %v", err)
	}
	if err := o.VoteRematch(context.Background()); err != nil {
		t.Fatalf("o vote: %v", err)
	}

	// the creator's subscribe loop observes both votes and resets
	waitFor(t, func() bool {
		r := loadRoom(t, s, roomID)
		return r != nil && !r.GameOver && len(r.Rematch) == 0
	})

	r := loadRoom(t, s, roomID)
	if r.Turn != game.O {
		t.Fatalf("next game opened by %s, want O", r.Turn)
	}

	// the next game is playable, opener first
	committed, err := o.ApplyMove(context.Background(), 4)
	if err != nil || !committed {
		t.Fatalf("opening move of rematch = (%v, %v)", committed, err)
	}
}
