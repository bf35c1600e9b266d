package oauth

import "time"

// Facade endpoint paths.
const (
	// AuthorizePath is the facade's authorization endpoint.
	AuthorizePath = "/oauth/authorize"

	// TokenPath is the facade's token endpoint.
	TokenPath = "/oauth/token"

	// RegisterPath is the simulated dynamic client registration endpoint.
	RegisterPath = "/oauth/register"

	// CallbackPath is the fixed path hh.ru redirects back to. The upstream
	// application must be registered with BaseURL+CallbackPath as its
	// redirect URI.
	CallbackPath = "/oauth/hh/callback"

	// ProtectedResourceMetadataPath serves RFC 9728 metadata.
	ProtectedResourceMetadataPath = "/.well-known/oauth-protected-resource"

	// AuthorizationServerMetadataPath serves RFC 8414 metadata.
	AuthorizationServerMetadataPath = "/.well-known/oauth-authorization-server"

	// JWKSPath always serves an empty key set: the facade forwards hh.ru's
	// opaque tokens and never signs anything itself.
	JWKSPath = "/.well-known/jwks.json"

	// ClientConfigPath is a convenience descriptor for debugging tools.
	ClientConfigPath = "/.well-known/oauth-client-config"
)

// Flow timeouts and token sizes.
const (
	// DefaultPendingTTL bounds how long an authorize redirect may stay
	// outstanding before the state key is swept.
	DefaultPendingTTL = 10 * time.Minute

	// DefaultCleanupInterval is how often expired pending authorizations are
	// swept.
	DefaultCleanupInterval = 1 * time.Minute

	// DefaultUpstreamTimeout bounds every call to hh.ru (token exchange and
	// identity validation). A timeout follows the same failure path as a
	// network error.
	DefaultUpstreamTimeout = 30 * time.Second

	// StateKeyLength is the byte length of generated state keys. Predictable
	// state keys would allow authorization-flow hijacking, so they come from
	// crypto/rand.
	StateKeyLength = 32
)

// Grant and response types advertised in discovery metadata.
var (
	DefaultGrantTypes = []string{"authorization_code", "refresh_token"}

	DefaultResponseTypes = []string{"code"}

	// SupportedCodeChallengeMethods is what the facade accepts from callers.
	// PKCE parameters are relayed to hh.ru at token-exchange time only; see
	// the package documentation for the resulting caveat.
	SupportedCodeChallengeMethods = []string{"S256"}

	SupportedTokenAuthMethods = []string{"none", "client_secret_post"}
)
