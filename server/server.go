// Package server exposes the HTTP surface: the relay WebSocket endpoint, health checks,
// Prometheus metrics and the summary history. CORS is permissive unless origins are
// configured, and every request carries a correlation id for consistent logging.
package server

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/youwin/config"
	"github.com/onnwee/youwin/db"
	"github.com/onnwee/youwin/relay"
	"github.com/onnwee/youwin/telemetry"
)

// HistoryStore is the persistence the server uses when DB_DSN is configured.
type HistoryStore interface {
	relay.History
	Ping(ctx context.Context) error
	ListSummaries(ctx context.Context, limit int) ([]db.Summary, error)
}

// Deps are the services behind the routes. Meta and Store are optional.
type Deps struct {
	Transcripts relay.Transcripts
	Assistant   relay.Assistant
	Meta        relay.MetaLookup
	Store       HistoryStore
}

// NewMux returns the HTTP handler with all routes.
// The provided context bounds WebSocket sessions and the rate limiter cleanup goroutine.
func NewMux(ctx context.Context, cfg *config.Config, deps Deps) http.Handler {
	corsCfg := newCORSConfig(cfg)
	limiter := newIPRateLimiter(ctx, newRateLimiterConfig(cfg))

	rd := relay.Deps{
		Transcripts: deps.Transcripts,
		Assistant:   deps.Assistant,
		Meta:        deps.Meta,
	}
	if deps.Store != nil {
		rd.History = deps.Store
	}
	ws := relay.NewHandler(ctx, rd, relay.Options{
		RequestTimeout:  cfg.RequestTimeout,
		PingInterval:    cfg.PingInterval,
		MaxMessageBytes: cfg.MaxMessageBytes,
		OriginAllowed:   corsCfg.originAllowed,
	})

	handlers := NewHandlers(cfg, deps.Store, ws.Registry())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)
	mux.HandleFunc("/summaries", handlers.HandleSummaries)
	mux.Handle("/ws", rateLimitMiddleware(ws, limiter))
	mux.HandleFunc("/", handlers.HandleRoot)

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		// Capture status code via custom ResponseWriter
		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		mux.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		if !wrappedWriter.hijacked {
			telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		}
	})
	return withCORSConfig(handler, corsCfg)
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	hijacked   bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker so the WebSocket upgrade can take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, rw, err := hj.Hijack()
	if err == nil {
		r.hijacked = true
		r.statusCode = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

// Start runs the HTTP server on cfg.HTTPAddr and shuts down gracefully on context cancellation.
// Open WebSocket sessions are closed with a going-away frame when ctx ends.
func Start(ctx context.Context, cfg *config.Config, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewMux(ctx, cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Shutdown goroutine
	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	slog.Info("http server listening", slog.String("addr", cfg.HTTPAddr), slog.String("component", "http"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
