package room

import (
	"context"
	"encoding/json"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/store"
)

// VoteRematch records a player's "play again" vote. Each player only
// ever sets its own symbol's bit, but the bits live inside the shared
// room document, so the write goes through the transaction primitive
// rather than a merge-write that could clobber the other vote. Voting
// twice is a no-op.
func VoteRematch(ctx context.Context, s store.Store, roomID string, sym game.Symbol) error {
	_, err := s.Transaction(ctx, Key(roomID), func(cur []byte) ([]byte, error) {
		if cur == nil {
			return nil, ErrNotFound
		}
		var r domain.Room
		if err := json.Unmarshal(cur, &r); err != nil {
			return nil, err
		}
		if !r.GameOver || r.Rematch[sym] {
			return nil, store.ErrAbort
		}
		if r.Rematch == nil {
			r.Rematch = make(map[game.Symbol]bool)
		}
		r.Rematch[sym] = true
		return json.Marshal(r)
	})
	return err
}

// VoteRematch votes with this session's symbol.
func (s *Session) VoteRematch(ctx context.Context) error {
	return VoteRematch(ctx, s.store, s.roomID, s.symbol)
}

// Reset starts the next game once both rematch votes are in. The
// creator is the single designated resetter, so two simultaneous resets
// cannot collide; re-observing an already reset room aborts. The side
// that did not start the previous game opens the next one.
func Reset(ctx context.Context, s store.Store, roomID string) (bool, error) {
	res, err := s.Transaction(ctx, Key(roomID), func(cur []byte) ([]byte, error) {
		if cur == nil {
			return nil, ErrNotFound
		}
		var r domain.Room
		if err := json.Unmarshal(cur, &r); err != nil {
			return nil, err
		}
		if !r.GameOver || !r.Rematch[game.X] || !r.Rematch[game.O] {
			return nil, store.ErrAbort
		}

		starter := r.LastStarter.Opponent()
		r.Board = game.Board{}
		r.Turn = starter
		r.LastStarter = starter
		r.GameOver = false
		r.Winner = ""
		r.WinLine = nil
		r.Rematch = nil
		r.StatsUpdated = false
		r.LastMove = 0
		return json.Marshal(r)
	})
	if err != nil {
		return false, err
	}
	return res.Committed, nil
}
