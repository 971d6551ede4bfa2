// Package relay implements the WebSocket endpoint that multiplexes URL submissions and chat
// messages over one connection.
//
// Each text frame is handled on its own, in arrival order:
//   - a frame that is not JSON is a YouTube URL; the handler fetches the transcript, asks the
//     model for a summary and replies with both;
//   - a JSON object with "type":"chat" is a question about a transcript the client already
//     holds (sent back as "context"); the handler replies with a "chat_response".
//
// Connections are tracked in a Registry for their lifetime. Optional collaborators (video
// metadata lookup, history store) are skipped when nil.
package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/onnwee/youwin/db"
	"github.com/onnwee/youwin/llm"
	"github.com/onnwee/youwin/telemetry"
	"github.com/onnwee/youwin/transcript"
	"github.com/onnwee/youwin/youtubeapi"
)

// Transcripts resolves a submitted URL into caption text.
type Transcripts interface {
	Get(ctx context.Context, rawURL string) (*transcript.Transcript, error)
}

// Assistant runs the model prompts.
type Assistant interface {
	Summarize(ctx context.Context, transcript string, info llm.VideoInfo) string
	Answer(ctx context.Context, transcript, question string) (string, error)
}

// MetaLookup fetches video metadata used to enrich summaries.
type MetaLookup interface {
	VideoMeta(ctx context.Context, videoID string) (youtubeapi.Meta, error)
}

// History records completed requests.
type History interface {
	SaveSummary(ctx context.Context, rec *db.Summary) error
	SaveChat(ctx context.Context, rec *db.ChatExchange) error
}

// Deps are the collaborators of a Handler. Meta and History are optional.
type Deps struct {
	Transcripts Transcripts
	Assistant   Assistant
	Meta        MetaLookup
	History     History
}

// Options tune connection handling. Zero values select the defaults.
type Options struct {
	RequestTimeout  time.Duration
	PingInterval    time.Duration
	MaxMessageBytes int64
	// OriginAllowed filters the Origin header of upgrade requests; nil allows any origin.
	OriginAllowed func(origin string) bool
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 2 * time.Minute
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 4 << 20
	}
	return o
}

// Handler upgrades HTTP requests and serves the relay protocol.
type Handler struct {
	ctx      context.Context
	deps     Deps
	opts     Options
	registry *Registry
	upgrader websocket.Upgrader
}

// NewHandler returns a Handler. ctx bounds the lifetime of every connection: when it is
// cancelled all sessions are closed with a going-away frame.
func NewHandler(ctx context.Context, deps Deps, opts Options) *Handler {
	opts = opts.withDefaults()
	h := &Handler{
		ctx:      ctx,
		deps:     deps,
		opts:     opts,
		registry: NewRegistry(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if opts.OriginAllowed == nil {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || opts.OriginAllowed(origin)
		},
	}
	return h
}

// Registry exposes the live connection registry.
func (h *Handler) Registry() *Registry { return h.registry }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var header http.Header
	if corr := telemetry.GetCorrelation(r.Context()); corr != "" {
		header = http.Header{}
		header.Set("X-Correlation-ID", corr)
	}
	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		telemetry.LoggerWithCorr(r.Context()).Warn("websocket upgrade failed", "err", err, "component", "relay")
		return
	}
	s := newSession(h, uuid.New().String(), conn, r)
	s.run(r.Context())
}
