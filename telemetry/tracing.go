// Package telemetry provides distributed tracing setup using OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracerProvider   *sdktrace.TracerProvider
	isTracingEnabled = false
)

// TracingConfig selects the OTLP collector and how much of the traffic is traced.
type TracingConfig struct {
	Endpoint       string // OTLP/gRPC collector address; empty disables tracing
	ServiceName    string
	ServiceVersion string
	// SampleRatio is the share of new traces recorded, 0..1. Spans with a sampled parent are
	// always recorded.
	SampleRatio float64
}

// InitTracing installs a global tracer provider exporting over OTLP/gRPC. Without an endpoint
// it is a no-op and the returned shutdown func does nothing.
func InitTracing(cfg TracingConfig) (func(), error) {
	if cfg.Endpoint == "" {
		slog.Info("tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := newSampler(cfg.SampleRatio)
	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tracerProvider)
	isTracingEnabled = true
	slog.Info("tracing initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("endpoint", cfg.Endpoint),
		slog.String("sampler", sampler.Description()))

	return func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown tracer provider", slog.Any("err", err))
		}
	}, nil
}

// newSampler follows the parent's decision and samples root spans by ratio.
func newSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

// IsTracingEnabled returns whether tracing is active.
func IsTracingEnabled() bool {
	return isTracingEnabled
}

// StartSpan is a helper to start a span with common attributes and correlation ID.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)

	if corr := GetCorrelation(ctx); corr != "" {
		attrs = append(attrs, attribute.String("correlation_id", corr))
	}

	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets error status.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// HTTPMethodAttr, HTTPRouteAttr and HTTPStatusAttr build the semconv attributes used by the server span.
func HTTPMethodAttr(method string) attribute.KeyValue { return semconv.HTTPMethod(method) }

func HTTPRouteAttr(route string) attribute.KeyValue { return semconv.HTTPRoute(route) }

func HTTPStatusAttr(code int) attribute.KeyValue { return semconv.HTTPStatusCode(code) }

// SetSpanHTTPStatus records the response code and flags 4xx/5xx as errors.
func SetSpanHTTPStatus(span trace.Span, code int) {
	span.SetAttributes(HTTPStatusAttr(code))
	if code >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", code))
	}
}

// VideoIDAttr tags a span with the YouTube video being processed.
func VideoIDAttr(id string) attribute.KeyValue { return attribute.String("youtube.video_id", id) }

// ConnectionIDAttr tags a span with the relay connection id.
func ConnectionIDAttr(id string) attribute.KeyValue { return attribute.String("ws.connection_id", id) }

// MessageKindAttr tags a span with the relay message kind.
func MessageKindAttr(kind string) attribute.KeyValue { return attribute.String("ws.message_kind", kind) }
