package handlers

import (
	"time"

	"tictactoe_online/internal/leaderboard"
	"tictactoe_online/internal/matchmaking"
	"tictactoe_online/internal/repository"
	"tictactoe_online/internal/room"
	"tictactoe_online/internal/store"
)

// Handler bundles what the HTTP and WebSocket endpoints need.
type Handler struct {
	Store       store.Store
	Queue       *matchmaking.Queue
	Board       *leaderboard.Leaderboard
	Matches     *repository.MatchRepository // nil when no database is configured
	Stats       room.StatsRecorder
	TurnTimeout time.Duration
}

func NewHandler(s store.Store, queue *matchmaking.Queue, board *leaderboard.Leaderboard, matches *repository.MatchRepository, stats room.StatsRecorder, turnTimeout time.Duration) *Handler {
	return &Handler{
		Store:       s,
		Queue:       queue,
		Board:       board,
		Matches:     matches,
		Stats:       stats,
		TurnTimeout: turnTimeout,
	}
}
