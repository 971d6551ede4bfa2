// Command youwin serves the YouTube transcript relay.
// It:
//   - Loads configuration and initializes structured logging, metrics and tracing.
//   - Optionally connects to Postgres (DB_DSN) and runs migrations for the summary history.
//   - Wires the transcript fetcher, the Gemini assistant and the YouTube Data API lookup.
//   - Serves /ws, /healthz, /readyz, /metrics and /summaries over HTTP.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/youwin/config"
	"github.com/onnwee/youwin/db"
	"github.com/onnwee/youwin/llm"
	"github.com/onnwee/youwin/server"
	"github.com/onnwee/youwin/telemetry"
	"github.com/onnwee/youwin/transcript"
	"github.com/onnwee/youwin/youtubeapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	telemetry.SetupLogging(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing(telemetry.TracingConfig{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: "1.0.0",
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini, err := llm.NewGemini(ctx, llm.GeminiOptions{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, Temperature: cfg.GeminiTemperature})
	if err != nil {
		slog.Error("failed to create gemini client", slog.Any("err", err))
		os.Exit(1)
	}
	assistant := llm.NewAssistant(gemini)
	transcripts := transcript.NewService(
		transcript.NewYouTubeFetcher(&http.Client{Timeout: 30 * time.Second}),
		assistant,
		cfg.TranscriptLanguages,
		cfg.TranscriptFallbackLanguages,
	)
	deps := server.Deps{Transcripts: transcripts, Assistant: assistant}

	yt, err := youtubeapi.New(ctx, cfg.YTAPIKey)
	if err != nil {
		slog.Error("failed to create youtube data api client", slog.Any("err", err))
		os.Exit(1)
	}
	if yt.Enabled() {
		deps.Meta = yt
	} else {
		slog.Info("YT_API_KEY not set, summaries will not include video metadata")
	}

	// DB (optional history)
	if cfg.HistoryEnabled() {
		database, err := db.Connect(ctx, cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()

		// Versioned migrations first; the idempotent embedded schema covers databases that
		// were created before version tracking existed.
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.RunMigrations(database); err != nil {
			slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
				slog.Any("err", err),
				slog.String("component", "db_migrate"))
			if err := db.Migrate(ctx, database); err != nil {
				slog.Error("failed to migrate db (both versioned and embedded SQL failed)", slog.Any("err", err))
				os.Exit(1)
			}
		}
		deps.Store = db.NewStore(database)
	} else {
		slog.Info("DB_DSN not set, summary history disabled")
	}

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	slog.Info("starting relay",
		slog.String("model", gemini.Model()),
		slog.Any("languages", cfg.TranscriptLanguages),
		slog.Bool("history", deps.Store != nil),
		slog.Bool("tracing", telemetry.IsTracingEnabled()))

	if err := server.Start(ctx, cfg, deps); err != nil {
		slog.Error("http server exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shut down")
}
