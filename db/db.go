// Package db provides database connection helpers, schema migration, and the summary history store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DB_DSN")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return database, nil
}

// Migrate applies idempotent schema changes for all required tables and indices.
// It mirrors the versioned migrations and is used when those cannot run.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS summaries (
			id BIGSERIAL PRIMARY KEY,
			connection_id TEXT NOT NULL,
			video_id TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			translated BOOLEAN NOT NULL DEFAULT FALSE,
			transcript_chars INTEGER NOT NULL DEFAULT 0,
			summary TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_exchanges (
			id BIGSERIAL PRIMARY KEY,
			connection_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			context_chars INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_video_id ON summaries(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_exchanges_connection ON chat_exchanges(connection_id, created_at)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}
