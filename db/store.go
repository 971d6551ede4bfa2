package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Summary is one completed URL submission.
type Summary struct {
	ID              int64     `json:"id"`
	ConnectionID    string    `json:"connection_id"`
	VideoID         string    `json:"video_id"`
	URL             string    `json:"url"` // canonical watch URL
	Title           string    `json:"title,omitempty"`
	Language        string    `json:"language,omitempty"`
	Translated      bool      `json:"translated"`
	TranscriptChars int       `json:"transcript_chars"`
	Summary         string    `json:"summary"`
	CreatedAt       time.Time `json:"created_at"`
}

// ChatExchange is one answered chat message.
type ChatExchange struct {
	ID           int64     `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	ContextChars int       `json:"context_chars"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists relay history. It is write-mostly; nothing reads it back to answer a request.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// SaveSummary inserts a summary row and fills in its id and timestamp.
func (s *Store) SaveSummary(ctx context.Context, rec *Summary) error {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO summaries (connection_id, video_id, url, title, language, translated, transcript_chars, summary)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
		rec.ConnectionID, rec.VideoID, rec.URL, rec.Title, rec.Language, rec.Translated, rec.TranscriptChars, rec.Summary)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// SaveChat inserts a chat exchange row.
func (s *Store) SaveChat(ctx context.Context, rec *ChatExchange) error {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO chat_exchanges (connection_id, question, answer, context_chars)
		 VALUES ($1,$2,$3,$4) RETURNING id, created_at`,
		rec.ConnectionID, rec.Question, rec.Answer, rec.ContextChars)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("insert chat exchange: %w", err)
	}
	return nil
}

// ListSummaries returns the most recent summaries, newest first. A limit outside 1..200 falls back to 50.
func (s *Store) ListSummaries(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, connection_id, video_id, url, title, language, translated, transcript_chars, summary, created_at
		 FROM summaries ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", slog.Any("err", err))
		}
	}()

	out := make([]Summary, 0)
	for rows.Next() {
		var r Summary
		if err := rows.Scan(&r.ID, &r.ConnectionID, &r.VideoID, &r.URL, &r.Title, &r.Language, &r.Translated, &r.TranscriptChars, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
