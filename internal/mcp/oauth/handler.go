package oauth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/instrumentation"
)

// Handler implements the Authorization Server facade endpoints and the bearer
// validation middleware for the protected MCP surface.
type Handler struct {
	config     *Config
	flowStore  *FlowStore
	upstream   *oauth2.Config // nil when no hh.ru credentials are configured
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewHandler creates a handler. BaseURL is required and must be https outside
// of loopback hosts.
func NewHandler(config *Config) (*Handler, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "https" && !isLoopback(parsed.Hostname()) {
		return nil, fmt.Errorf("base URL must use HTTPS in production (got %s://)", parsed.Scheme)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultUpstreamTimeout}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	var upstream *oauth2.Config
	if config.Upstream.Configured() {
		redirectURL := config.Upstream.RedirectURL
		if redirectURL == "" {
			redirectURL = config.BaseURL + CallbackPath
		}
		upstream = hh.NewOAuthConfig(config.Upstream.ClientID, config.Upstream.ClientSecret, redirectURL)
		if config.Upstream.AuthURL != "" {
			upstream.Endpoint.AuthURL = config.Upstream.AuthURL
		}
		if config.Upstream.TokenURL != "" {
			upstream.Endpoint.TokenURL = config.Upstream.TokenURL
		}
		logger.Info("oauth facade configured",
			"client_id", config.Upstream.ClientID,
			"redirect_url", redirectURL)
	} else {
		logger.Warn("oauth facade unconfigured: hh.ru client credentials not provided")
	}

	return &Handler{
		config:     config,
		flowStore:  NewFlowStore(config.PendingTTL, config.CleanupInterval, logger),
		upstream:   upstream,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Stop releases the flow store sweep goroutine.
func (h *Handler) Stop() {
	h.flowStore.Stop()
}

// BaseURL returns the configured public base URL.
func (h *Handler) BaseURL() string {
	return h.config.BaseURL
}

// FlowStore exposes the pending-authorization store for tests.
func (h *Handler) FlowStore() *FlowStore {
	return h.flowStore
}

// RegisterEndpoints mounts every facade endpoint on the mux.
func (h *Handler) RegisterEndpoints(mux *http.ServeMux) {
	mux.HandleFunc(ProtectedResourceMetadataPath, h.ServeProtectedResourceMetadata)
	mux.HandleFunc(AuthorizationServerMetadataPath, h.ServeAuthorizationServerMetadata)
	mux.HandleFunc(JWKSPath, h.ServeJWKS)
	mux.HandleFunc(ClientConfigPath, h.ServeClientConfig)
	mux.HandleFunc(RegisterPath, h.ServeClientRegistration)
	mux.HandleFunc(AuthorizePath, h.ServeAuthorization)
	mux.HandleFunc(CallbackPath, h.ServeCallback)
	mux.HandleFunc(TokenPath, h.ServeToken)
}

// ServeProtectedResourceMetadata serves the RFC 9728 Protected Resource
// Metadata. Clients hitting /mcp without a token get a WWW-Authenticate
// challenge pointing here, then discover the facade as their authorization
// server.
func (h *Handler) ServeProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metadata := ProtectedResourceMetadata{
		Resource:               h.config.BaseURL,
		AuthorizationServers:   []string{h.config.BaseURL},
		BearerMethodsSupported: []string{"header"},
	}
	h.writeJSON(w, http.StatusOK, metadata)
}

// ServeAuthorizationServerMetadata serves the RFC 8414 Authorization Server
// Metadata describing the facade's own endpoints.
func (h *Handler) ServeAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metadata := AuthorizationServerMetadata{
		Issuer:                            h.config.BaseURL,
		AuthorizationEndpoint:             h.config.BaseURL + AuthorizePath,
		TokenEndpoint:                     h.config.BaseURL + TokenPath,
		RegistrationEndpoint:              h.config.BaseURL + RegisterPath,
		JWKSURI:                           h.config.BaseURL + JWKSPath,
		ResponseTypesSupported:            DefaultResponseTypes,
		GrantTypesSupported:               DefaultGrantTypes,
		TokenEndpointAuthMethodsSupported: SupportedTokenAuthMethods,
		CodeChallengeMethodsSupported:     SupportedCodeChallengeMethods,
	}
	h.writeJSON(w, http.StatusOK, metadata)
}

// ServeJWKS serves an empty key set. The facade forwards hh.ru's opaque
// tokens and never issues or verifies signed tokens of its own.
func (h *Handler) ServeJWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, JWKS{Keys: []any{}})
}

// ServeClientConfig serves the debugging descriptor of the upstream identity.
func (h *Handler) ServeClientConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := ClientConfig{
		Configured:            h.upstream != nil,
		AuthorizationEndpoint: hh.AuthURL,
		TokenEndpoint:         hh.TokenURL,
		CallbackPath:          CallbackPath,
	}
	if h.upstream != nil {
		cfg.ClientID = h.upstream.ClientID
		cfg.RedirectURI = h.upstream.RedirectURL
		cfg.AuthorizationEndpoint = h.upstream.Endpoint.AuthURL
		cfg.TokenEndpoint = h.upstream.Endpoint.TokenURL
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

// apiClient builds an hh client for one bearer token, honoring the test
// override of the API root.
func (h *Handler) apiClient(token string) *hh.Client {
	opts := []hh.Option{hh.WithHTTPClient(h.httpClient)}
	if h.config.Upstream.APIBaseURL != "" {
		opts = append(opts, hh.WithBaseURL(h.config.Upstream.APIBaseURL))
	}
	return hh.NewClient(token, h.config.UserAgent, opts...)
}

// setSecurityHeaders sets defensive headers on OAuth responses.
func (h *Handler) setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	if strings.HasPrefix(h.config.BaseURL, "https://") {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeOAuthError writes the standard error/error_description body.
func (h *Handler) writeOAuthError(w http.ResponseWriter, oerr *OAuthError) {
	h.logger.Debug("oauth error",
		"code", oerr.Code,
		"description", oerr.Description,
		"status", oerr.Status)
	h.writeJSON(w, oerr.Status, ErrorResponse{
		Error:            oerr.Code,
		ErrorDescription: oerr.Description,
	})
}

// isLoopback reports whether a hostname is a loopback address, for which
// plain HTTP is allowed during development.
func isLoopback(hostname string) bool {
	hostname = strings.Trim(hostname, "[]")
	switch hostname {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasPrefix(hostname, "127.")
}
