package oauth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/avoronov/hh-mcp/internal/instrumentation"
)

// Config holds the OAuth facade configuration.
type Config struct {
	// BaseURL is the public base URL of this server. It serves as the RFC
	// 8707 resource identifier, the metadata issuer, and the root for all
	// facade endpoint URLs.
	BaseURL string

	// Upstream holds the hh.ru application credentials.
	Upstream UpstreamConfig

	// UserAgent identifies this application to the hh.ru API, which rejects
	// requests without one. Conventionally "app-name/version (email)".
	UserAgent string

	// PendingTTL bounds how long a pending authorization may stay
	// outstanding. Default: 10 minutes.
	PendingTTL time.Duration

	// CleanupInterval is how often expired pending authorizations are swept.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// HTTPClient is used for all upstream calls. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// Metrics records flow and validation outcomes. Defaults to a no-op
	// recorder.
	Metrics *instrumentation.Metrics
}

// UpstreamConfig holds the statically registered hh.ru application identity.
// All MCP clients share it; registration at the facade never creates another.
type UpstreamConfig struct {
	// ClientID of the registered hh.ru application. When empty the facade is
	// unconfigured and answers oauth_not_configured.
	ClientID string

	// ClientSecret of the registered application.
	ClientSecret string

	// RedirectURL is the single redirect URI the application was registered
	// with, normally BaseURL+CallbackPath. hh.ru refuses any other value.
	RedirectURL string

	// AuthURL and TokenURL override the hh.ru endpoints; tests point them at
	// a fake upstream. Empty means the real endpoints.
	AuthURL  string
	TokenURL string

	// APIBaseURL overrides the API root used for identity validation (/me).
	// Empty means https://api.hh.ru.
	APIBaseURL string
}

// Configured reports whether upstream credentials are present.
func (u UpstreamConfig) Configured() bool {
	return u.ClientID != ""
}
