package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/onnwee/youwin/db"
)

// SetupTestDB connects to TEST_PG_DSN, applies the schema and empties the history tables.
// It skips the test if TEST_PG_DSN is not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()
	database, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	if err := db.Migrate(ctx, database); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := database.ExecContext(ctx, `TRUNCATE summaries, chat_exchanges RESTART IDENTITY`); err != nil {
		t.Fatalf("failed to truncate history: %v", err)
	}
	return database
}
