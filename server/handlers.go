package server

import (
	"log/slog"
	"net/http"

	"github.com/onnwee/youwin/config"
	"github.com/onnwee/youwin/relay"
	"github.com/onnwee/youwin/telemetry"
)

const rootMessage = "YouWin API is running. Connect via WebSocket at /ws"

// Handlers holds dependencies for the plain HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	store    HistoryStore
	registry *relay.Registry
}

// NewHandlers creates a new Handlers instance. store may be nil when history is disabled.
func NewHandlers(cfg *config.Config, store HistoryStore, registry *relay.Registry) *Handlers {
	return &Handlers{cfg: cfg, store: store, registry: registry}
}

// HandleRoot answers the banner request on "/" and 404 for any other unmatched path.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
}

// HandleSummaries lists recent summaries from the history store.
func (h *Handlers) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
		return
	}
	limit := parseIntQuery(r, "limit", 50)
	rows, err := h.store.ListSummaries(r.Context(), limit)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("list summaries", slog.Any("err", err), slog.String("component", "http"))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list summaries"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
