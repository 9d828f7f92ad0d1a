package service

import (
	"context"
	"strings"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/leaderboard"
	"tictactoe_online/internal/logger"
	"tictactoe_online/internal/metrics"
	"tictactoe_online/internal/repository"
)

// StatsService records finished games: the winner's leaderboard entry
// in the shared store and, when a database is configured, a durable
// match record. It is invoked exactly once per game, by whichever
// session won the statsUpdated claim.
type StatsService struct {
	board   *leaderboard.Leaderboard
	matches *repository.MatchRepository // nil disables the archive
}

func NewStatsService(board *leaderboard.Leaderboard, matches *repository.MatchRepository) *StatsService {
	return &StatsService{board: board, matches: matches}
}

// RecordResult implements room.StatsRecorder.
func (s *StatsService) RecordResult(ctx context.Context, roomID string, r *domain.Room) {
	if r.Creator == nil || r.Joiner == nil {
		return
	}
	metrics.GamesFinishedTotal.WithLabelValues(strings.ToLower(r.Winner)).Inc()

	// draws touch no leaderboard entry, only the archive
	if winner := r.PlayerFor(game.Symbol(r.Winner)); r.Winner != game.Draw && winner != nil {
		if err := s.board.RecordWin(ctx, *winner); err != nil {
			logger.Error("leaderboard update failed", "room", roomID, "error", err)
		}
	}

	if s.matches == nil {
		return
	}
	rec := &domain.MatchRecord{
		RoomID:      roomID,
		CreatorUID:  r.Creator.UID,
		CreatorName: r.Creator.Name,
		JoinerUID:   r.Joiner.UID,
		JoinerName:  r.Joiner.Name,
		Winner:      r.Winner,
		Board:       r.Board,
	}
	if err := s.matches.Create(ctx, rec); err != nil {
		logger.Error("match archive failed", "room", roomID, "error", err)
	}
}
