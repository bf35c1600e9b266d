package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avoronov/hh-mcp/internal/instrumentation"
	"github.com/avoronov/hh-mcp/internal/mcp/oauth"
)

// HTTPServer assembles the full HTTP surface: the OAuth facade endpoints,
// the authenticated /mcp endpoint served by the streamable transport, and
// the unauthenticated health probes.
type HTTPServer struct {
	mcpServer    *mcpserver.MCPServer
	oauthHandler *oauth.Handler
	sessions     *SessionStore
	transport    *StreamableTransport
	health       *HealthChecker
	metrics      *instrumentation.Metrics
	httpServer   *http.Server
	logger       *slog.Logger
}

// HTTPServerConfig configures NewHTTPServer.
type HTTPServerConfig struct {
	MCPServer     *mcpserver.MCPServer
	OAuthConfig   *oauth.Config
	ServerContext *ServerContext
	SessionTTL    time.Duration
	Logger        *slog.Logger
}

// NewHTTPServer wires the facade, transport and health endpoints together.
func NewHTTPServer(cfg HTTPServerConfig) (*HTTPServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := cfg.ServerContext.Metrics()
	if cfg.OAuthConfig.Metrics == nil {
		cfg.OAuthConfig.Metrics = metrics
	}

	oauthHandler, err := oauth.NewHandler(cfg.OAuthConfig)
	if err != nil {
		return nil, err
	}
	sessions := NewSessionStore(cfg.SessionTTL, DefaultSweepInterval, logger, metrics)
	transport := NewStreamableTransport(cfg.MCPServer, sessions, logger)
	health := NewHealthChecker(cfg.ServerContext, sessions)

	return &HTTPServer{
		mcpServer:    cfg.MCPServer,
		oauthHandler: oauthHandler,
		sessions:     sessions,
		transport:    transport,
		health:       health,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Handler builds the root handler. Exposed separately from Start so tests
// can drive the full surface through httptest.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.oauthHandler.RegisterEndpoints(mux)
	s.health.RegisterHealthEndpoints(mux)

	// The MCP endpoint sits behind live bearer validation. Tokens reach the
	// tool handlers via the request context; nothing is persisted.
	mux.Handle("/mcp", s.oauthHandler.RequireAuth(s.transport))

	return s.withRequestMetrics(mux)
}

// withRequestMetrics records method, path, status and duration per request.
func (s *HTTPServer) withRequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

// statusWriter captures the response status for metrics. Flush is forwarded
// so the SSE stream keeps working through the wrapper.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Start starts the HTTP server in a blocking manner.
func (s *HTTPServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown closes all live sessions, stops the stores and shuts the
// listener down gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.sessions.CloseAll()
	s.sessions.Stop()
	s.oauthHandler.Stop()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// OAuthHandler exposes the facade handler for tests.
func (s *HTTPServer) OAuthHandler() *oauth.Handler {
	return s.oauthHandler
}

// Sessions exposes the session store for tests.
func (s *HTTPServer) Sessions() *SessionStore {
	return s.sessions
}

// Transport exposes the streamable transport for tests.
func (s *HTTPServer) Transport() *StreamableTransport {
	return s.transport
}
