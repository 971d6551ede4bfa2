package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/onnwee/youwin/db"
	"github.com/onnwee/youwin/relay"
	"github.com/onnwee/youwin/testutil"
)

// TestSummaryHistoryPostgres runs a URL submission against a real store and reads it back
// through /summaries.
func TestSummaryHistoryPostgres(t *testing.T) {
	database := testutil.SetupTestDB(t)

	deps := testDeps()
	deps.Store = db.NewStore(database)
	srv := httptest.NewServer(newTestMux(t, testConfig(), deps))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg relay.Response
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("https://youtu.be/dQw4w9WgXcQ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Status != relay.StatusSuccess {
		t.Fatalf("unexpected reply %+v", msg)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/summaries?limit=10", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get summaries: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rows []db.Summary
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].VideoID != "dQw4w9WgXcQ" || rows[0].Summary != "short" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
