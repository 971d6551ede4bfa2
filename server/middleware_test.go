package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestIPRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &rateLimiterConfig{enabled: true, rps: rate.Limit(0.001), burst: 3, idleTTL: time.Minute}
	limiter := newIPRateLimiter(ctx, cfg)

	for i := 0; i < 3; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.allow("192.168.1.1") {
		t.Fatal("4th request should be rate limited")
	}
	if !limiter.allow("192.168.1.2") {
		t.Fatal("different IP should have its own bucket")
	}
}

func TestIPRateLimiterDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := newIPRateLimiter(ctx, &rateLimiterConfig{enabled: false, rps: 0, burst: 1})
	for i := 0; i < 20; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Fatalf("request %d should be allowed when disabled", i+1)
		}
	}
	if limiter.size() != 0 {
		t.Errorf("disabled limiter tracked %d visitors", limiter.size())
	}
}

func TestIPRateLimiterCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := newIPRateLimiter(ctx, &rateLimiterConfig{enabled: true, rps: 1, burst: 1, idleTTL: time.Minute})
	limiter.allow("10.0.0.1")
	limiter.allow("10.0.0.2")

	limiter.cleanup(time.Now())
	if limiter.size() != 2 {
		t.Fatalf("fresh visitors should survive cleanup, have %d", limiter.size())
	}
	limiter.cleanup(time.Now().Add(2 * time.Minute))
	if limiter.size() != 0 {
		t.Fatalf("idle visitors should be removed, have %d", limiter.size())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := newIPRateLimiter(ctx, &rateLimiterConfig{enabled: true, rps: rate.Limit(0.001), burst: 2, idleTTL: time.Minute})
	handler := rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), limiter)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "192.168.1.100:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr", "192.168.1.1:1234", "", "192.168.1.1"},
		{"ipv6 remote addr", "[::1]:1234", "", "::1"},
		{"forwarded single", "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
		{"no port", "192.168.1.1", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSPermissive(t *testing.T) {
	cfg := &corsConfig{permissive: true}
	handler := withCORSConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), cfg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin=*, got %s", got)
	}
}

func TestCORSRestricted(t *testing.T) {
	cfg := &corsConfig{
		permissive:     false,
		allowedOrigins: []string{"https://app.example.com", "*.trusted.com"},
	}
	handler := withCORSConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), cfg)

	tests := []struct {
		name          string
		origin        string
		expectAllowed bool
	}{
		{"allowed exact match", "https://app.example.com", true},
		{"allowed wildcard subdomain", "https://api.trusted.com", true},
		{"disallowed origin", "https://evil.com", false},
		{"no origin header", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.expectAllowed && got != tt.origin {
				t.Errorf("expected Access-Control-Allow-Origin=%s, got %s", tt.origin, got)
			}
			if !tt.expectAllowed && got != "" {
				t.Errorf("expected no Access-Control-Allow-Origin header, got %s", got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := withCORSConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}), &corsConfig{permissive: true})

	req := httptest.NewRequest(http.MethodOptions, "/summaries", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

func TestNewCORSConfig(t *testing.T) {
	c := newCORSConfig(testConfig())
	if !c.permissive {
		t.Error("no configured origins should be permissive")
	}
	cfg := testConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	c = newCORSConfig(cfg)
	if c.permissive || !c.originAllowed("https://app.example.com") || c.originAllowed("https://x.com") {
		t.Errorf("unexpected restricted config %+v", c)
	}
	cfg.CORSAllowedOrigins = []string{"*"}
	if !newCORSConfig(cfg).permissive {
		t.Error("* should be permissive")
	}
}
