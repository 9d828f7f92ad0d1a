package room

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/store"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrRoomFull = errors.New("room is full")
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewID generates a short shareable room id.
func NewID() string {
	id := make([]byte, 6)
	for i := range id {
		id[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(id)
}

// Key returns the store key of a room record.
func Key(roomID string) string {
	return "rooms/" + roomID
}

// CreateMatched writes a fresh room for a queue pairing. The matcher is
// the creator (X), the player who was waiting joins as O.
func CreateMatched(ctx context.Context, s store.Store, roomID string, creator, joiner domain.Player) error {
	doc, err := json.Marshal(domain.NewRoom(creator, &joiner, false))
	if err != nil {
		return err
	}
	return s.Set(ctx, Key(roomID), doc)
}

// CreatePrivate writes a room that waits for a second player to join by
// id. Returns the generated room id.
func CreatePrivate(ctx context.Context, s store.Store, creator domain.Player) (string, error) {
	roomID := NewID()
	doc, err := json.Marshal(domain.NewRoom(creator, nil, true))
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, Key(roomID), doc); err != nil {
		return "", err
	}
	return roomID, nil
}

// Join claims the joiner seat of an existing room. The claim is a
// transaction, so two players joining the same room id at once cannot
// both take the seat. Rejoining a room you already sit in returns your
// existing symbol.
func Join(ctx context.Context, s store.Store, roomID string, me domain.Player) (game.Symbol, error) {
	var symbol game.Symbol

	res, err := s.Transaction(ctx, Key(roomID), func(cur []byte) ([]byte, error) {
		if cur == nil {
			return nil, ErrNotFound
		}
		var r domain.Room
		if err := json.Unmarshal(cur, &r); err != nil {
			return nil, err
		}

		if sym := r.SymbolOf(me.UID); sym != game.Empty {
			symbol = sym
			return nil, store.ErrAbort // already seated, nothing to write
		}
		if r.Joiner != nil {
			return nil, ErrRoomFull
		}

		r.Joiner = &domain.Player{UID: me.UID, Name: me.Name}
		symbol = game.O
		return json.Marshal(r)
	})
	if err != nil {
		return game.Empty, err
	}
	if !res.Committed && symbol == game.Empty {
		return game.Empty, ErrRoomFull
	}
	return symbol, nil
}
