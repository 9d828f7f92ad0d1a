package domain

import (
	"time"

	"tictactoe_online/internal/game"
)

// MatchRecord is one finished game archived to the database. The room
// record itself is ephemeral; this is the durable trace.
type MatchRecord struct {
	ID          int64      `json:"id"`
	RoomID      string     `json:"room_id"`
	CreatorUID  string     `json:"creator_uid"`
	CreatorName string     `json:"creator_name"`
	JoinerUID   string     `json:"joiner_uid"`
	JoinerName  string     `json:"joiner_name"`
	Winner      string     `json:"winner"` // "X", "O" or game.Draw
	Board       game.Board `json:"board"`
	CreatedAt   time.Time  `json:"created_at"`
}

// WinnerName resolves the display name of the winning side, or "Draw".
func (m *MatchRecord) WinnerName() string {
	switch m.Winner {
	case string(game.X):
		return m.CreatorName
	case string(game.O):
		return m.JoinerName
	default:
		return game.Draw
	}
}
