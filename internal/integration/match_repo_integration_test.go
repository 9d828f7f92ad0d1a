package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func TestMatchRepository_Create_GetByPlayer(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer db.Close()

	applyMigrations(t, db)

	repo := repository.NewMatchRepository(db)

	m := &domain.MatchRecord{
		RoomID:      "AB12CD",
		CreatorUID:  "user_it_1",
		CreatorName: "Ada",
		JoinerUID:   "user_it_2",
		JoinerName:  "Grace",
		Winner:      "X",
		Board:       game.Board{game.X, game.X, game.X, game.O, game.O, "", "", "", ""},
	}

	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if m.ID == 0 || m.CreatedAt.IsZero() {
		t.Fatalf("returning clause not scanned: id=%d created=%v", m.ID, m.CreatedAt)
	}

	matches, err := repo.GetByPlayer(context.Background(), "user_it_1", 10)
	if err != nil {
		t.Fatalf("get by player: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("expected matches, got 0")
	}
	got := matches[0]
	if got.RoomID != m.RoomID || got.Winner != "X" || got.Board[0] != game.X {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.WinnerName() != "Ada" {
		t.Fatalf("winner name = %q, want Ada", got.WinnerName())
	}

	wins, err := repo.CountWins(context.Background(), "user_it_1")
	if err != nil {
		t.Fatalf("count wins: %v", err)
	}
	if wins == 0 {
		t.Fatalf("expected at least one win")
	}
}
