package domain

import "tictactoe_online/internal/game"

// Player is a stable per-device identity. Created once, persisted by
// the client, reused across sessions.
type Player struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// QueueSlot is the single shared record used to pair two searching
// players. Matcher==nil means Waiting; once a second player claims the
// slot it becomes Matched, is read exactly once by the waiter's
// subscription and then deleted.
type QueueSlot struct {
	UID       string  `json:"uid"`
	Name      string  `json:"name"`
	Timestamp int64   `json:"timestamp"`
	Matcher   *Player `json:"matcher,omitempty"`
	RoomID    string  `json:"roomId,omitempty"`
}

// Matched reports whether the slot has been claimed by a second player.
func (q *QueueSlot) Matched() bool {
	return q.Matcher != nil
}

// Room is the authoritative shared record of one match. It is mutated
// only through store transactions (moves, rematch votes, reset) so both
// clients converge on the subscribed value.
type Room struct {
	Board       game.Board  `json:"board"`
	Turn        game.Symbol `json:"turn"`
	LastStarter game.Symbol `json:"lastStarter"`
	GameOver    bool        `json:"gameOver"`
	// Winner is "X", "O" or game.Draw once GameOver is set.
	Winner  string `json:"winner,omitempty"`
	WinLine []int  `json:"winLine,omitempty"`

	Creator *Player `json:"creator,omitempty"`
	Joiner  *Player `json:"joiner,omitempty"`

	// StatsUpdated guards the one-time leaderboard/history side effect.
	StatsUpdated bool `json:"statsUpdated,omitempty"`

	// Rematch maps a symbol to that player's "play again" vote.
	Rematch map[game.Symbol]bool `json:"rematch,omitempty"`

	Private  bool  `json:"isPrivate,omitempty"`
	LastMove int64 `json:"lastMove,omitempty"`
}

// NewRoom builds a fresh room record. The joiner may be nil for a
// private room awaiting its second player.
func NewRoom(creator Player, joiner *Player, private bool) *Room {
	return &Room{
		Board:       game.Board{},
		Turn:        game.X,
		LastStarter: game.X,
		Creator:     &creator,
		Joiner:      joiner,
		Private:     private,
	}
}

// PlayerFor returns the identity holding the given symbol. The creator
// always plays X, the joiner O.
func (r *Room) PlayerFor(sym game.Symbol) *Player {
	if sym == game.X {
		return r.Creator
	}
	return r.Joiner
}

// SymbolOf returns the symbol held by uid, or Empty when uid is not a
// participant.
func (r *Room) SymbolOf(uid string) game.Symbol {
	if r.Creator != nil && r.Creator.UID == uid {
		return game.X
	}
	if r.Joiner != nil && r.Joiner.UID == uid {
		return game.O
	}
	return game.Empty
}

// LeaderboardEntry is the per-player win counter. Mutated only by a
// monotonic increment transaction, never decreases.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Wins  int    `json:"wins"`
	Games int    `json:"games"`
}
