package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"playernix/internal/core"
)

func testConfig() *core.ServerConfig {
	return &core.ServerConfig{
		Host:         "127.0.0.1",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func get(t *testing.T, handler http.Handler, path string) (*http.Response, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+path, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to call %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return resp, string(body)
}

func TestCreateHTTPServer(t *testing.T) {
	config := testConfig()
	mux := http.NewServeMux()
	server := createHTTPServer(config, mux)

	if server.Addr != "127.0.0.1:9090" {
		t.Errorf("createHTTPServer() Addr = %q, expected %q", server.Addr, "127.0.0.1:9090")
	}
	if server.Handler != mux {
		t.Error("createHTTPServer() Handler mismatch")
	}
	if server.ReadTimeout != config.ReadTimeout {
		t.Errorf("createHTTPServer() ReadTimeout = %v, expected %v", server.ReadTimeout, config.ReadTimeout)
	}
	if server.WriteTimeout != config.WriteTimeout {
		t.Errorf("createHTTPServer() WriteTimeout = %v, expected %v", server.WriteTimeout, config.WriteTimeout)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	mux := setupRoutes(zap.NewNop(), prometheus.NewRegistry(), nil)
	resp, body := get(t, mux, "/healthz")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, expected application/json", ct)
	}
	if want := `{"status":"ok","service":"playernix"}`; body != want {
		t.Errorf("Expected body %q, got %q", want, body)
	}
}

func TestReadyzEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		ready      func() bool
		wantStatus int
		wantBody   string
	}{
		{"no readiness check", nil, http.StatusOK, `{"status":"ready","service":"playernix"}`},
		{"ready", func() bool { return true }, http.StatusOK, `{"status":"ready","service":"playernix"}`},
		{"starting", func() bool { return false }, http.StatusServiceUnavailable, `{"status":"starting","service":"playernix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := setupRoutes(zap.NewNop(), prometheus.NewRegistry(), tt.ready)
			resp, body := get(t, mux, "/readyz")

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if body != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, body)
			}
		})
	}
}

func TestHomeHandler(t *testing.T) {
	handler := homeHandler(zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected Content-Type text/html, got %q", ct)
	}
	for _, element := range []string{"<!DOCTYPE html>", "<title>playernix</title>", "/metrics", "/healthz", "/readyz"} {
		if !strings.Contains(rec.Body.String(), element) {
			t.Errorf("Expected body to contain %q", element)
		}
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown path should return 404, got %d", rec.Code)
	}
}

func TestServer_RecordsMetrics(t *testing.T) {
	s := NewServer(testConfig(), zap.NewNop())

	s.RecordCommand("play", "ok")
	s.RecordResolution("single", 250*time.Millisecond)
	s.RecordProviderAttempt("youtubemusic", "hit")
	s.RecordProviderAttempt("youtube", "timeout")
	s.RecordStream("fallback")
	s.SetActiveSessions(2)

	_, body := get(t, s.server.Handler, "/metrics")

	expected := []string{
		`playernix_commands_total{command="play",status="ok"} 1`,
		`playernix_resolutions_total{kind="single"} 1`,
		`playernix_provider_attempts_total{outcome="hit",provider="youtubemusic"} 1`,
		`playernix_provider_attempts_total{outcome="timeout",provider="youtube"} 1`,
		`playernix_streams_total{outcome="fallback"} 1`,
		`playernix_resolve_duration_seconds_count 1`,
		`playernix_active_sessions 2`,
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("Expected /metrics to contain %q", line)
		}
	}
}

func TestServer_RegisterGaugeFunc(t *testing.T) {
	s := NewServer(testConfig(), zap.NewNop())
	users := 0

	if err := s.RegisterGaugeFunc("playernix_flood_active_users", "Users in the flood window",
		func() float64 { return float64(users) }); err != nil {
		t.Fatalf("RegisterGaugeFunc() error = %v", err)
	}

	users = 3
	_, body := get(t, s.server.Handler, "/metrics")
	if !strings.Contains(body, "playernix_flood_active_users 3") {
		t.Error("Gauge should report the value read at scrape time")
	}

	if err := s.RegisterGaugeFunc("playernix_flood_active_users", "again", func() float64 { return 0 }); err == nil {
		t.Error("Registering the same gauge twice should fail")
	}
}

func TestServer_PrivateRegistries(t *testing.T) {
	// two servers in one process must not collide on registration
	a := NewServer(testConfig(), zap.NewNop())
	b := NewServer(testConfig(), zap.NewNop())

	a.RecordStream("primary")

	_, body := get(t, b.server.Handler, "/metrics")
	if strings.Contains(body, `playernix_streams_total{outcome="primary"}`) {
		t.Error("Metrics recorded on one server leaked into another")
	}
}

func TestServer_SetReady(t *testing.T) {
	s := NewServer(testConfig(), zap.NewNop())

	resp, _ := get(t, s.server.Handler, "/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Server should not be ready before SetReady, got %d", resp.StatusCode)
	}

	s.SetReady(true)
	resp, _ = get(t, s.server.Handler, "/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Server should be ready after SetReady(true), got %d", resp.StatusCode)
	}
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	config := testConfig()
	config.Port = 0
	s := NewServer(config, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
