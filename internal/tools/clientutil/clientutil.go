// Package clientutil holds the pieces every tool package shares: resolving
// an hh.ru client from the caller's credentials and instrumenting tool
// handlers.
package clientutil

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avoronov/hh-mcp/internal/hh"
	"github.com/avoronov/hh-mcp/internal/mcp/oauth"
	"github.com/avoronov/hh-mcp/internal/server"
)

// ErrNoCredentials is returned when neither the request context nor the
// environment carries a bearer token.
var ErrNoCredentials = errors.New("no hh.ru credentials: authenticate via OAuth or set HH_ACCESS_TOKEN")

// ClientFor resolves the hh.ru client for one tool invocation. Over HTTP the
// bearer token arrives via the request context, placed there by the OAuth
// middleware; over stdio it comes from the environment. The client is built
// per request because tokens are never cached.
func ClientFor(ctx context.Context, sc *server.ServerContext) (*hh.Client, error) {
	token, ok := oauth.TokenFromContext(ctx)
	if !ok || token == "" {
		token = sc.DefaultToken()
	}
	if token == "" {
		return nil, ErrNoCredentials
	}
	var opts []hh.Option
	if sc.APIBaseURL() != "" {
		opts = append(opts, hh.WithBaseURL(sc.APIBaseURL()))
	}
	return hh.NewClient(token, sc.UserAgent(), opts...), nil
}

// Instrument wraps a tool handler with invocation metrics. A handler error
// or an error result both count as "error".
func Instrument(sc *server.ServerContext, name string, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)

		status := "success"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}
		sc.Metrics().RecordToolInvocation(ctx, name, status, time.Since(start))

		return result, err
	}
}
