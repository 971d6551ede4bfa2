// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ConnectionsTotal prometheus.Counter
	MessagesTotal    *prometheus.CounterVec // kind=url|chat|ignored|unsupported
	TranscriptsTotal *prometheus.CounterVec // outcome=success|error
	LLMRequestsTotal *prometheus.CounterVec // purpose=summary|chat|translate, outcome=success|error
	HistoryWrites    *prometheus.CounterVec // outcome=success|error

	// Histograms (seconds)
	TranscriptDuration prometheus.Observer
	LLMDuration        *prometheus.HistogramVec // purpose
	MessageDuration    *prometheus.HistogramVec // kind

	// Gauges
	ActiveConnections prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "youwin_ws_connections_total", Help: "Number of WebSocket connections accepted"})
		MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "youwin_ws_messages_total", Help: "Number of WebSocket messages handled by kind"}, []string{"kind"})
		TranscriptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "youwin_transcripts_total", Help: "Transcript retrievals by outcome"}, []string{"outcome"})
		LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "youwin_llm_requests_total", Help: "Generative model requests by purpose and outcome"}, []string{"purpose", "outcome"})
		HistoryWrites = promauto.NewCounterVec(prometheus.CounterOpts{Name: "youwin_history_writes_total", Help: "Summary history writes by outcome"}, []string{"outcome"})
		TranscriptDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "youwin_transcript_duration_seconds", Help: "Transcript retrieval duration seconds", Buckets: prometheus.DefBuckets})
		LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "youwin_llm_duration_seconds", Help: "Generative model request duration seconds", Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120}}, []string{"purpose"})
		MessageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "youwin_ws_message_duration_seconds", Help: "End-to-end handling time per WebSocket message", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}}, []string{"kind"})
		ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{Name: "youwin_ws_connections_active", Help: "Current number of open WebSocket connections"})
	})
}

// SetActiveConnections records the current number of registered connections.
func SetActiveConnections(n int) {
	if ActiveConnections != nil {
		ActiveConnections.Set(float64(n))
	}
}

// IncConnections counts an accepted connection.
func IncConnections() {
	if ConnectionsTotal != nil {
		ConnectionsTotal.Inc()
	}
}

// IncMessage counts a handled message of the given kind.
func IncMessage(kind string) {
	if MessagesTotal != nil {
		MessagesTotal.WithLabelValues(kind).Inc()
	}
}

// RecordTranscript counts a transcript retrieval outcome.
func RecordTranscript(ok bool) {
	if TranscriptsTotal != nil {
		TranscriptsTotal.WithLabelValues(outcome(ok)).Inc()
	}
}

// RecordLLM counts a model request and observes its duration.
func RecordLLM(purpose string, d time.Duration, ok bool) {
	if LLMRequestsTotal != nil {
		LLMRequestsTotal.WithLabelValues(purpose, outcome(ok)).Inc()
	}
	if LLMDuration != nil {
		LLMDuration.WithLabelValues(purpose).Observe(d.Seconds())
	}
}

// RecordHistoryWrite counts a summary history insert outcome.
func RecordHistoryWrite(ok bool) {
	if HistoryWrites != nil {
		HistoryWrites.WithLabelValues(outcome(ok)).Inc()
	}
}

// ObserveMessage records end-to-end handling time for a message kind.
func ObserveMessage(kind string, d time.Duration) {
	if MessageDuration != nil {
		MessageDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
