package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avoronov/hh-mcp/internal/instrumentation"
)

// DefaultMetricsAddr is where the scrape endpoint listens when no address
// is configured.
const DefaultMetricsAddr = ":9090"

// DefaultShutdownTimeout bounds graceful shutdown of both listeners.
const DefaultShutdownTimeout = 30 * time.Second

const (
	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// MetricsServerConfig configures the scrape listener.
type MetricsServerConfig struct {
	// Addr is the bind address, DefaultMetricsAddr when empty.
	Addr string

	// InstrumentationProvider must be an enabled provider; its prometheus
	// exporter feeds the registry this server exposes.
	InstrumentationProvider *instrumentation.Provider

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// MetricsServer owns the Prometheus scrape endpoint. It runs on its own
// listener so /metrics never shares a port with the bearer-authenticated
// /mcp and OAuth surface: the facade can face the internet while scraping
// stays on a cluster-internal address.
type MetricsServer struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewMetricsServer builds the scrape listener. It refuses a nil or disabled
// instrumentation provider, which would leave nothing in the registry to
// expose.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	// The otel prometheus exporter feeds the default registry, which
	// promhttp.Handler exposes.
	mux.Handle("/metrics", promhttp.Handler())
	// Liveness for this listener only. The application listener carries the
	// real health endpoints.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: metricsReadHeaderTimeout,
			WriteTimeout:      metricsWriteTimeout,
			IdleTimeout:       metricsIdleTimeout,
		},
		logger: logger,
	}, nil
}

// Start serves until Shutdown or a listener error. Run it in a goroutine.
func (s *MetricsServer) Start() error {
	s.logger.Info("starting metrics server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains the scrape listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *MetricsServer) Addr() string {
	return s.httpServer.Addr
}
