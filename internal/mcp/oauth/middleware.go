package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/logging"
)

type contextKey string

const (
	userContextKey  contextKey = "hh_user"
	tokenContextKey contextKey = "hh_token"
)

// UserFromContext returns the validated hh.ru user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*hh.UserInfo, bool) {
	user, ok := ctx.Value(userContextKey).(*hh.UserInfo)
	return user, ok
}

// TokenFromContext returns the bearer token attached by RequireAuth.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// ContextWithToken attaches a bearer token directly, bypassing validation.
// Used by the stdio transport where the token comes from the environment.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// RequireAuth wraps a handler with live bearer validation. Every request
// costs one GET /me against hh.ru; tokens are opaque and hh.ru offers no
// introspection endpoint, so presenting them to the API is the only check.
// Validation results are deliberately not cached: a revoked token stops
// working on the next request.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearer(r)
		if !ok {
			h.challenge(w, "missing or malformed Authorization header")
			return
		}

		user, err := h.apiClient(token).Me(r.Context())
		if err != nil {
			// Any non-2xx answer from /me means hh.ru would not honor this
			// token, so the client gets a challenge and can re-authorize.
			// Only transport failures, where the token was never judged at
			// all, become a server error.
			var apiErr *hh.APIError
			if errors.As(err, &apiErr) {
				h.metrics.RecordTokenValidation(r.Context(), "rejected")
				h.logger.Debug("bearer token rejected by hh.ru",
					"status", apiErr.Status)
				h.challenge(w, "token rejected by hh.ru")
				return
			}
			h.metrics.RecordTokenValidation(r.Context(), "error")
			h.logger.Error("token validation failed", logging.Err(err))
			h.writeOAuthError(w, ErrServerError("failed to validate token against hh.ru"))
			return
		}

		h.metrics.RecordTokenValidation(r.Context(), "success")
		h.logger.Debug("bearer token validated", logging.UserHash(user.ID))

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// challenge answers 401 with the RFC 9728 resource metadata pointer so
// clients can discover the authorization server.
func (h *Handler) challenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate",
		fmt.Sprintf(`Bearer resource_metadata=%q`,
			h.config.BaseURL+ProtectedResourceMetadataPath))
	h.writeOAuthError(w, ErrInvalidToken(desc))
}

func extractBearer(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
