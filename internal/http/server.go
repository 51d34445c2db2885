// Package http serves health checks and Prometheus metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"playernix/internal/core"
)

const (
	serviceName     = "playernix"
	shutdownTimeout = 10 * time.Second
)

// Server exposes /healthz, /readyz and /metrics. It implements
// core.MetricsRecorder.
type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	registry *prometheus.Registry
	metrics  *Metrics
	ready    atomic.Bool
}

var _ core.MetricsRecorder = (*Server)(nil)

// Metrics are the collectors registered on the server's registry.
type Metrics struct {
	CommandsTotal    *prometheus.CounterVec
	ResolutionsTotal *prometheus.CounterVec
	ProviderAttempts *prometheus.CounterVec
	StreamsTotal     *prometheus.CounterVec
	ResolveDuration  prometheus.Histogram
	ActiveSessions   prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playernix_commands_total",
				Help: "Chat commands handled, by command and status",
			},
			[]string{"command", "status"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playernix_resolutions_total",
				Help: "Resolutions finished, by result kind",
			},
			[]string{"kind"},
		),
		ProviderAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playernix_provider_attempts_total",
				Help: "Provider resolve attempts, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		StreamsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playernix_streams_total",
				Help: "Streams opened, by outcome",
			},
			[]string{"outcome"},
		),
		ResolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playernix_resolve_duration_seconds",
				Help:    "Time spent resolving user input",
				Buckets: prometheus.DefBuckets,
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "playernix_active_sessions",
				Help: "Guild sessions with a running player",
			},
		),
	}
}

func (m *Metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.CommandsTotal,
		m.ResolutionsTotal,
		m.ProviderAttempts,
		m.StreamsTotal,
		m.ResolveDuration,
		m.ActiveSessions,
	)
}

// NewServer builds the server with its own registry, so several servers can
// coexist in one process.
func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := newMetrics()
	metrics.register(registry)

	s := &Server{
		config:   config,
		logger:   logger.Named("http"),
		registry: registry,
		metrics:  metrics,
	}

	mux := setupRoutes(s.logger, registry, s.ready.Load)
	s.server = createHTTPServer(config, mux)
	return s
}

func setupRoutes(logger *zap.Logger, gatherer prometheus.Gatherer, ready func() bool) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, logger, http.StatusOK, "ok")
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeStatus(w, logger, http.StatusServiceUnavailable, "starting")
			return
		}
		writeStatus(w, logger, http.StatusOK, "ready")
	})

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

func writeStatus(w http.ResponseWriter, logger *zap.Logger, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := fmt.Sprintf(`{"status":%q,"service":%q}`, status, serviceName)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Debug("Failed to write status response", zap.Error(err))
	}
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(homePage)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>playernix</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
    </style>
</head>
<body>
    <h1>playernix</h1>
    <p>Discord music player: YouTube Music, YouTube and SoundCloud with stream fallback.</p>
    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/metrics">/metrics</a> Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">/healthz</a> Health check</div>
    <div class="endpoint"><a href="/readyz">/readyz</a> Readiness check</div>
</body>
</html>`

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           mux,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// SetReady flips the readiness check.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// RegisterGaugeFunc exposes a value read on every scrape.
func (s *Server) RegisterGaugeFunc(name, help string, value func() float64) error {
	return s.registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		value,
	))
}

func (s *Server) RecordCommand(command, status string) {
	s.metrics.CommandsTotal.WithLabelValues(command, status).Inc()
}

func (s *Server) RecordResolution(kind string, duration time.Duration) {
	s.metrics.ResolutionsTotal.WithLabelValues(kind).Inc()
	s.metrics.ResolveDuration.Observe(duration.Seconds())
}

func (s *Server) RecordProviderAttempt(provider, outcome string) {
	s.metrics.ProviderAttempts.WithLabelValues(provider, outcome).Inc()
}

func (s *Server) RecordStream(outcome string) {
	s.metrics.StreamsTotal.WithLabelValues(outcome).Inc()
}

func (s *Server) SetActiveSessions(count int) {
	s.metrics.ActiveSessions.Set(float64(count))
}
