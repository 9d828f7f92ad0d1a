package repository

import (
	"context"
	"encoding/json"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create archives one finished game.
func (r *MatchRepository) Create(ctx context.Context, m *domain.MatchRecord) error {
	boardJSON, err := json.Marshal(m.Board)
	if err != nil {
		boardJSON = []byte("[]")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO matches
			(room_id, creator_uid, creator_name, joiner_uid, joiner_name, winner, board)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		m.RoomID,
		m.CreatorUID,
		m.CreatorName,
		m.JoinerUID,
		m.JoinerName,
		m.Winner,
		boardJSON,
	).Scan(&m.ID, &m.CreatedAt)
}

// GetRecent returns the newest archived games.
func (r *MatchRepository) GetRecent(ctx context.Context, limit int) ([]*domain.MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, creator_uid, creator_name, joiner_uid, joiner_name, winner, board, created_at
		 FROM matches
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// GetByPlayer returns a player's archived games, newest first.
func (r *MatchRepository) GetByPlayer(ctx context.Context, uid string, limit int) ([]*domain.MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, creator_uid, creator_name, joiner_uid, joiner_name, winner, board, created_at
		 FROM matches
		 WHERE creator_uid = $1 OR joiner_uid = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		uid, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// CountWins returns how many archived games uid won.
func (r *MatchRepository) CountWins(ctx context.Context, uid string) (int, error) {
	var wins int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM matches
		 WHERE (winner = 'X' AND creator_uid = $1) OR (winner = 'O' AND joiner_uid = $1)`,
		uid,
	).Scan(&wins)
	return wins, err
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMatches(rows pgxRows) ([]*domain.MatchRecord, error) {
	var out []*domain.MatchRecord
	for rows.Next() {
		m := &domain.MatchRecord{}
		var boardJSON []byte
		if err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.CreatorUID,
			&m.CreatorName,
			&m.JoinerUID,
			&m.JoinerName,
			&m.Winner,
			&boardJSON,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(boardJSON, &m.Board); err != nil {
			m.Board = game.Board{}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
