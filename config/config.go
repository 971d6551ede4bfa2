// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For serving, use Validate to make sure the Gemini credentials are present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultModel is the Gemini model used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-2.0-flash"

type Config struct {
	// HTTP
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Gemini
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature *float32 // nil keeps the model default

	// Transcripts
	TranscriptLanguages         []string
	TranscriptFallbackLanguages []string

	// YouTube Data API (optional, enriches summaries with title/channel)
	YTAPIKey string

	// Database (optional, enables summary history)
	DBDsn string

	// WebSocket relay
	RequestTimeout  time.Duration
	PingInterval    time.Duration
	MaxMessageBytes int64
	RateLimitRPS    float64
	RateLimitBurst  int

	// Tracing (disabled without an OTLP endpoint)
	OTLPEndpoint     string
	ServiceName      string
	TraceSampleRatio float64
}

// Load reads environment variables and applies defaults. It doesn't fail if the Gemini key is
// missing; use Validate() when you require it. Missing optional variables disable features
// (e.g., history, video metadata).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = DefaultModel
	}

	if v := os.Getenv("GEMINI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f < 0 || f > 2 {
			return nil, fmt.Errorf("invalid GEMINI_TEMPERATURE %q: want 0..2", v)
		}
		temp := float32(f)
		cfg.GeminiTemperature = &temp
	}

	cfg.TranscriptLanguages = splitList(os.Getenv("TRANSCRIPT_LANGUAGES"))
	if len(cfg.TranscriptLanguages) == 0 {
		cfg.TranscriptLanguages = []string{"en"}
	}
	cfg.TranscriptFallbackLanguages = splitList(os.Getenv("TRANSCRIPT_FALLBACK_LANGUAGES"))
	if len(cfg.TranscriptFallbackLanguages) == 0 {
		cfg.TranscriptFallbackLanguages = []string{"hi"}
	}

	cfg.YTAPIKey = os.Getenv("YT_API_KEY")
	cfg.DBDsn = os.Getenv("DB_DSN")

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PingInterval, err = durationEnv("WS_PING_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.MaxMessageBytes = 4 << 20
	if v := os.Getenv("WS_MAX_MESSAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid WS_MAX_MESSAGE_BYTES %q", v)
		}
		cfg.MaxMessageBytes = n
	}

	cfg.RateLimitRPS = 1
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		// 0 disables the /ws limiter
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", v)
		}
		cfg.RateLimitRPS = f
	}
	cfg.RateLimitBurst = 5
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q", v)
		}
		cfg.RateLimitBurst = n
	}

	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.ServiceName = os.Getenv("OTEL_SERVICE_NAME")
	if cfg.ServiceName == "" {
		cfg.ServiceName = "youwin"
	}
	cfg.TraceSampleRatio = 1
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("invalid OTEL_TRACES_SAMPLER_ARG %q: want 0..1", v)
		}
		cfg.TraceSampleRatio = f
	}

	return cfg, nil
}

// Validate checks the fields required to serve requests.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("missing GEMINI_API_KEY")
	}
	return nil
}

// HistoryEnabled reports whether a database was configured for summary history.
func (c *Config) HistoryEnabled() bool { return c.DBDsn != "" }

// durationEnv accepts Go duration strings ("90s") or a bare number of seconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

// splitList accepts comma or space separated values.
func splitList(s string) []string {
	return strings.Fields(strings.ReplaceAll(s, ",", " "))
}
