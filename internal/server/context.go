package server

import (
	"context"
	"sync"

	"github.com/avoronov/hh-mcp/internal/instrumentation"
)

// ServerContext holds the shared state tool handlers and transports need:
// the shutdown-aware context, the hh.ru user agent, the optional static
// token for stdio mode and the write-operation gate.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	userAgent    string
	defaultToken string
	apiBaseURL   string
	yolo         bool
	provider     *instrumentation.Provider

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context. The provider may be nil; a
// no-op recorder is substituted so callers never check.
func NewServerContext(ctx context.Context, userAgent, defaultToken string, yolo bool, provider *instrumentation.Provider) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if provider == nil {
		provider, _ = instrumentation.NewProvider(shutdownCtx, instrumentation.Config{Enabled: false})
	}

	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		userAgent:    userAgent,
		defaultToken: defaultToken,
		yolo:         yolo,
		provider:     provider,
	}
}

// Context returns the shutdown-aware context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// UserAgent returns the HH-User-Agent string sent on every hh.ru call.
func (sc *ServerContext) UserAgent() string {
	return sc.userAgent
}

// DefaultToken returns the token configured via environment for stdio mode.
// Empty when the server runs behind the OAuth facade.
func (sc *ServerContext) DefaultToken() string {
	return sc.defaultToken
}

// SetAPIBaseURL overrides the hh.ru API root. Tests point it at a fake
// server; production leaves it empty.
func (sc *ServerContext) SetAPIBaseURL(u string) {
	sc.apiBaseURL = u
}

// APIBaseURL returns the hh.ru API root override, or empty for the default.
func (sc *ServerContext) APIBaseURL() string {
	return sc.apiBaseURL
}

// Yolo reports whether write operations (applying to vacancies, sending
// messages, publishing resumes) are enabled.
func (sc *ServerContext) Yolo() bool {
	return sc.yolo
}

// Metrics returns the metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.provider.Metrics()
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the shared context. Idempotent.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
