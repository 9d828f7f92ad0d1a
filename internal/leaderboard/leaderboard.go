package leaderboard

import (
	"context"
	"encoding/json"
	"sort"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/store"
)

// indexKey tracks which uids hold leaderboard entries, so the board can
// be listed without scanning the keyspace.
const indexKey = "leaderboard/_index"

func entryKey(uid string) string {
	return "leaderboard/" + uid
}

// Leaderboard keeps per-player win counters in the shared store. Every
// mutation is a monotonic increment transaction; counters never
// decrease.
type Leaderboard struct {
	store store.Store
}

func New(s store.Store) *Leaderboard {
	return &Leaderboard{store: s}
}

// RecordWin bumps the winner's entry by one win, one game.
func (l *Leaderboard) RecordWin(ctx context.Context, winner domain.Player) error {
	_, err := l.store.Transaction(ctx, entryKey(winner.UID), func(cur []byte) ([]byte, error) {
		entry := domain.LeaderboardEntry{Name: winner.Name}
		if cur != nil {
			if err := json.Unmarshal(cur, &entry); err != nil {
				return nil, err
			}
			if winner.Name != "" {
				entry.Name = winner.Name
			}
		}
		entry.Wins++
		entry.Games++
		return json.Marshal(entry)
	})
	if err != nil {
		return err
	}
	return l.index(ctx, winner.UID)
}

// index adds uid to the listing set. Contended across winners, so it is
// transactional too.
func (l *Leaderboard) index(ctx context.Context, uid string) error {
	_, err := l.store.Transaction(ctx, indexKey, func(cur []byte) ([]byte, error) {
		uids := map[string]bool{}
		if cur != nil {
			if err := json.Unmarshal(cur, &uids); err != nil {
				return nil, err
			}
		}
		if uids[uid] {
			return nil, store.ErrAbort
		}
		uids[uid] = true
		return json.Marshal(uids)
	})
	return err
}

// Ranked is one leaderboard row.
type Ranked struct {
	UID string `json:"uid"`
	domain.LeaderboardEntry
}

// Top returns up to limit entries ordered by wins descending.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Ranked, error) {
	doc, err := l.store.Get(ctx, indexKey)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	uids := map[string]bool{}
	if err := json.Unmarshal(doc, &uids); err != nil {
		return nil, err
	}

	var rows []Ranked
	for uid := range uids {
		entryDoc, err := l.store.Get(ctx, entryKey(uid))
		if err != nil {
			return nil, err
		}
		if entryDoc == nil {
			continue
		}
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal(entryDoc, &entry); err != nil {
			return nil, err
		}
		rows = append(rows, Ranked{UID: uid, LeaderboardEntry: entry})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].Games < rows[j].Games
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
