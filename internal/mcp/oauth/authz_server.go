package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ServeClientRegistration simulates RFC 7591 dynamic client registration.
// hh.ru has no registration API and a single redirect URI per application, so
// every registration answers with the one statically configured client id.
// MCP clients that insist on registering before connecting get a well-formed
// response and then ride the shared upstream identity.
func (h *Handler) ServeClientRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.upstream == nil {
		h.writeOAuthError(w, ErrNotConfigured("hh.ru client credentials are not configured"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.writeOAuthError(w, ErrInvalidClientMetadata("failed to read request body"))
		return
	}

	var req ClientRegistrationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeOAuthError(w, ErrInvalidClientMetadata("request body is not valid JSON"))
		return
	}

	if strings.TrimSpace(req.ClientName) == "" {
		h.writeOAuthError(w, ErrInvalidClientMetadata("client_name is required"))
		return
	}
	if len(req.RedirectURIs) == 0 {
		h.writeOAuthError(w, ErrInvalidRedirectURI("redirect_uris is required"))
		return
	}
	// Redirect URIs are checked for basic shape only. They are never matched
	// against anything registered upstream: hh.ru knows a single redirect URI
	// per application, and the whole point of the facade is to let clients
	// use their own.
	for _, raw := range req.RedirectURIs {
		if oerr := validateRedirectURI(raw); oerr != nil {
			h.writeOAuthError(w, oerr)
			return
		}
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = DefaultGrantTypes
	}
	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = DefaultResponseTypes
	}
	authMethod := req.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = "none"
	}

	h.logger.Info("simulated client registration",
		"client_name", req.ClientName,
		"redirect_uris", len(req.RedirectURIs))

	// 200 rather than 201. Nothing was created; the response describes the
	// pre-existing upstream application.
	h.writeJSON(w, http.StatusOK, ClientRegistrationResponse{
		ClientID:                h.upstream.ClientID,
		ClientIDIssuedAt:        time.Now().Unix(),
		ClientName:              req.ClientName,
		RedirectURIs:            req.RedirectURIs,
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		Scope:                   req.Scope,
		TokenEndpointAuthMethod: authMethod,
	})
}

// validateRedirectURI checks that a registration redirect URI is an absolute
// URI. Custom schemes of native clients (vscode://, cursor://) are fine.
func validateRedirectURI(raw string) *OAuthError {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidRedirectURI(fmt.Sprintf("redirect URI %q is not a valid URI", raw))
	}
	if u.Scheme == "" {
		return ErrInvalidRedirectURI(fmt.Sprintf("redirect URI %q must be absolute", raw))
	}
	return nil
}

// ServeAuthorization starts the proxied authorization flow. The caller's
// redirect_uri and state are parked in the flow store under a generated state
// key, and the browser is sent to hh.ru carrying that key as state. The
// caller's own state value never reaches hh.ru.
func (h *Handler) ServeAuthorization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.upstream == nil {
		h.writeOAuthError(w, ErrNotConfigured("hh.ru client credentials are not configured"))
		return
	}

	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	responseType := q.Get("response_type")
	state := q.Get("state")
	codeChallenge := q.Get("code_challenge")
	codeChallengeMethod := q.Get("code_challenge_method")

	if clientID == "" {
		h.writeOAuthError(w, ErrInvalidRequest("client_id is required"))
		return
	}
	if redirectURI == "" {
		h.writeOAuthError(w, ErrInvalidRequest("redirect_uri is required"))
		return
	}
	if _, err := url.Parse(redirectURI); err != nil {
		h.writeOAuthError(w, ErrInvalidRequest("redirect_uri is not a valid URI"))
		return
	}
	// response_type is optional; the facade only ever runs the code flow, so
	// absence means code and anything else is rejected.
	if responseType != "" && responseType != "code" {
		h.writeOAuthError(w, ErrInvalidRequest("response_type must be \"code\""))
		return
	}
	if codeChallenge != "" {
		switch codeChallengeMethod {
		case "":
			codeChallengeMethod = "S256"
		case "S256":
		default:
			h.writeOAuthError(w, ErrInvalidRequest("code_challenge_method must be S256"))
			return
		}
	}

	pending, err := h.flowStore.Create(clientID, redirectURI, state, codeChallenge, codeChallengeMethod)
	if err != nil {
		h.logger.Error("failed to create pending authorization", "error", err)
		h.writeOAuthError(w, ErrServerError("failed to start authorization flow"))
		return
	}

	authURL := h.upstream.AuthCodeURL(pending.StateKey)

	h.metrics.RecordOAuthFlowStarted(r.Context())
	h.logger.Info("authorization flow started",
		"client_id", clientID,
		"pkce", codeChallenge != "")

	h.setSecurityHeaders(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// ServeCallback handles the redirect back from hh.ru. The state parameter is
// the key minted by ServeAuthorization; it is consumed exactly once and the
// upstream code is forwarded to the caller's original redirect URI untouched.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()

	if upstreamErr := q.Get("error"); upstreamErr != "" {
		desc := q.Get("error_description")
		h.logger.Warn("upstream authorization denied",
			"error", upstreamErr,
			"description", desc)
		// The state key is consumed even on denial so it cannot be replayed.
		if stateKey := q.Get("state"); stateKey != "" {
			_, _ = h.flowStore.Consume(stateKey)
		}
		if desc == "" {
			desc = fmt.Sprintf("hh.ru rejected the authorization request: %s", upstreamErr)
		}
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            upstreamErr,
			ErrorDescription: desc,
		})
		return
	}

	code := q.Get("code")
	stateKey := q.Get("state")
	if code == "" {
		h.writeOAuthError(w, ErrInvalidRequest("code is required"))
		return
	}
	if stateKey == "" {
		h.writeOAuthError(w, ErrInvalidRequest("state is required"))
		return
	}

	pending, err := h.flowStore.Consume(stateKey)
	if err != nil {
		h.writeOAuthError(w, ErrInvalidState("unknown or expired state; restart the authorization flow"))
		return
	}

	target, err := url.Parse(pending.OriginalRedirectURI)
	if err != nil {
		h.writeOAuthError(w, ErrServerError("stored redirect URI is invalid"))
		return
	}
	tq := target.Query()
	tq.Set("code", code)
	if pending.OriginalState != "" {
		tq.Set("state", pending.OriginalState)
	}
	target.RawQuery = tq.Encode()

	h.logger.Info("authorization callback relayed",
		"client_id", pending.ClientID)

	h.setSecurityHeaders(w)
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// ServeToken proxies the token endpoint. The facade never mints tokens: the
// request is re-sent to hh.ru under the configured application credentials
// and hh.ru's response body is relayed back, success or error, with hh.ru's
// status code.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.upstream == nil {
		h.writeOAuthError(w, ErrNotConfigured("hh.ru client credentials are not configured"))
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeOAuthError(w, ErrInvalidRequest("failed to parse form body"))
		return
	}

	grantType := r.PostFormValue("grant_type")
	form := url.Values{
		"grant_type":    {grantType},
		"client_id":     {h.upstream.ClientID},
		"client_secret": {h.upstream.ClientSecret},
	}

	switch grantType {
	case "authorization_code":
		code := r.PostFormValue("code")
		if code == "" {
			h.writeOAuthError(w, ErrInvalidRequest("code is required"))
			return
		}
		if r.PostFormValue("client_id") == "" {
			h.writeOAuthError(w, ErrInvalidRequest("client_id is required"))
			return
		}
		if r.PostFormValue("redirect_uri") == "" {
			h.writeOAuthError(w, ErrInvalidRequest("redirect_uri is required"))
			return
		}
		form.Set("code", code)
		// hh.ru verifies the code against the application's registered
		// redirect URI, not whatever the MCP client used with the facade.
		form.Set("redirect_uri", h.upstream.RedirectURL)
		if verifier := r.PostFormValue("code_verifier"); verifier != "" {
			form.Set("code_verifier", verifier)
		}
	case "refresh_token":
		refreshToken := r.PostFormValue("refresh_token")
		if refreshToken == "" {
			h.writeOAuthError(w, ErrInvalidRequest("refresh_token is required"))
			return
		}
		form.Set("refresh_token", refreshToken)
	case "":
		h.writeOAuthError(w, ErrInvalidRequest("grant_type is required"))
		return
	default:
		h.writeOAuthError(w, ErrUnsupportedGrantType(fmt.Sprintf("grant type %q is not supported", grantType)))
		return
	}

	status, payload, oerr := h.exchangeToken(r.Context(), form)
	if oerr != nil {
		h.metrics.RecordTokenExchange(r.Context(), grantType, "failure")
		h.writeOAuthError(w, oerr)
		return
	}

	if status >= 200 && status < 300 {
		h.metrics.RecordTokenExchange(r.Context(), grantType, "success")
	} else {
		h.metrics.RecordTokenExchange(r.Context(), grantType, "failure")
	}

	// Successful responses advertise the facade as the issuer so clients keep
	// refreshing through it instead of talking to hh.ru directly.
	if status >= 200 && status < 300 {
		payload["issuer"] = h.config.BaseURL
	}

	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode token response", "error", err)
	}

	h.logger.Info("token request relayed",
		"grant_type", grantType,
		"upstream_status", status)
}

// exchangeToken posts the assembled form to hh.ru's token endpoint and
// decodes the response as loose JSON so unknown fields survive the relay.
func (h *Handler) exchangeToken(ctx context.Context, form url.Values) (int, map[string]any, *OAuthError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.upstream.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, ErrServerError("failed to build upstream request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if h.config.UserAgent != "" {
		req.Header.Set("User-Agent", h.config.UserAgent)
		req.Header.Set("HH-User-Agent", h.config.UserAgent)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error("upstream token request failed", "error", err)
		return 0, nil, ErrServerError("hh.ru token endpoint is unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, ErrServerError("failed to read upstream response")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("upstream token response is not JSON",
			"status", resp.StatusCode)
		return 0, nil, ErrServerError("hh.ru returned a malformed token response")
	}
	return resp.StatusCode, payload, nil
}
