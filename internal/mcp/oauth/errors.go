package oauth

import (
	"fmt"
	"net/http"
)

// OAuthError is an OAuth 2.0 error response: a machine-readable code, a
// human-readable description and the HTTP status to answer with.
type OAuthError struct {
	Code        string
	Description string
	Status      int
}

// Error implements the error interface.
func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewOAuthError creates a new OAuth error.
func NewOAuthError(code, description string, status int) *OAuthError {
	return &OAuthError{Code: code, Description: description, Status: status}
}

// Common OAuth errors as reusable constructors.
var (
	// ErrInvalidRequest indicates a malformed request or missing parameter.
	ErrInvalidRequest = func(desc string) *OAuthError {
		return NewOAuthError("invalid_request", desc, http.StatusBadRequest)
	}

	// ErrInvalidClientMetadata indicates an unusable registration request.
	ErrInvalidClientMetadata = func(desc string) *OAuthError {
		return NewOAuthError("invalid_client_metadata", desc, http.StatusBadRequest)
	}

	// ErrInvalidRedirectURI indicates a missing or unusable redirect_uri.
	ErrInvalidRedirectURI = func(desc string) *OAuthError {
		return NewOAuthError("invalid_redirect_uri", desc, http.StatusBadRequest)
	}

	// ErrInvalidState indicates an unknown, expired or already consumed state
	// key at the proxy callback. The caller must restart the flow.
	ErrInvalidState = func(desc string) *OAuthError {
		return NewOAuthError("invalid_state", desc, http.StatusBadRequest)
	}

	// ErrInvalidGrant indicates hh.ru rejected the authorization code or
	// refresh token.
	ErrInvalidGrant = func(desc string) *OAuthError {
		return NewOAuthError("invalid_grant", desc, http.StatusBadRequest)
	}

	// ErrInvalidToken indicates the bearer token failed live validation.
	ErrInvalidToken = func(desc string) *OAuthError {
		return NewOAuthError("invalid_token", desc, http.StatusUnauthorized)
	}

	// ErrUnsupportedGrantType indicates a grant type the facade cannot proxy.
	ErrUnsupportedGrantType = func(desc string) *OAuthError {
		return NewOAuthError("unsupported_grant_type", desc, http.StatusBadRequest)
	}

	// ErrServerError indicates an upstream or internal failure.
	ErrServerError = func(desc string) *OAuthError {
		return NewOAuthError("server_error", desc, http.StatusInternalServerError)
	}

	// ErrNotConfigured indicates the deployment lacks upstream credentials.
	// A configuration error, distinct from any runtime failure, surfaced
	// before any upstream call is attempted.
	ErrNotConfigured = func(desc string) *OAuthError {
		return NewOAuthError("oauth_not_configured", desc, http.StatusServiceUnavailable)
	}
)
