package ws

import (
	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
)

// client → server
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type MovePayload struct {
	Index int `json:"index"` // board cell 0..8
}

// server → client
type MatchedPayload struct {
	RoomID string      `json:"room_id"`
	Symbol game.Symbol `json:"symbol"`
}

type StatePayload struct {
	RoomID string       `json:"room_id"`
	State  string       `json:"state"`
	You    game.Symbol  `json:"you"`
	Room   *domain.Room `json:"room"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
