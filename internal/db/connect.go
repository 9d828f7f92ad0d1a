package db

import (
	"context"
	"time"

	"tictactoe_online/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the match-archive pool. The archive is optional, so
// callers only reach this with a non-empty DSN; a dead database at
// startup is fatal rather than silently degrading to no history.
func Connect(dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("match archive connected")
	return pool
}
