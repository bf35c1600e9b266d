package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avoronov/hh-mcp/internal/instrumentation"
	"github.com/avoronov/hh-mcp/internal/logging"
	"github.com/avoronov/hh-mcp/internal/mcp/oauth"
	"github.com/avoronov/hh-mcp/internal/server"
	"github.com/avoronov/hh-mcp/internal/tools/dictionary_tools"
	"github.com/avoronov/hh-mcp/internal/tools/negotiation_tools"
	"github.com/avoronov/hh-mcp/internal/tools/resume_tools"
	"github.com/avoronov/hh-mcp/internal/tools/vacancy_tools"
)

// serveOptions collects everything the serve command resolves from flags and
// environment before the server starts.
type serveOptions struct {
	Transport string
	Debug     bool
	HTTPAddr  string
	Yolo      bool

	// BaseURL is the public base URL of the OAuth facade (HTTP transport).
	BaseURL string

	// hh.ru application credentials (HTTP transport).
	HHClientID     string
	HHClientSecret string
	HHRedirectURL  string

	// UserAgent identifies the application to hh.ru on every API call.
	UserAgent string

	// AccessToken is the static token for stdio mode.
	AccessToken string

	MetricsEnabled bool
	MetricsAddr    string

	SessionTTL time.Duration
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing hh.ru job search,
resume and negotiation tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with an OAuth facade

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (applying to vacancies,
  sending messages, publishing resumes).

Authentication:
  STDIO Transport:
    Set HH_ACCESS_TOKEN to a personal hh.ru OAuth token.

  HTTP Transport:
    The server fronts hh.ru's OAuth with its own authorization server, so
    MCP clients can connect without pre-registration. Requires the hh.ru
    application credentials:
      --hh-client-id / HH_CLIENT_ID
      --hh-client-secret / HH_CLIENT_SECRET
    The redirect URI registered with the hh.ru application:
      --hh-redirect-url / HH_REDIRECT_URL (defaults to <base-url>/oauth/hh/callback)
    And the public base URL for deployed instances:
      --base-url / MCP_BASE_URL (auto-detected for localhost)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeEnv(&opts)
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.Yolo, "yolo", false, "Enable write operations (applying to vacancies, sending messages, publishing resumes). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Public base URL for OAuth (HTTP transport only). Required for deployed instances. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().StringVar(&opts.HHClientID, "hh-client-id", "", "hh.ru application Client ID (HTTP transport only). Can also use HH_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.HHClientSecret, "hh-client-secret", "", "hh.ru application Client Secret (HTTP transport only). Can also use HH_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&opts.HHRedirectURL, "hh-redirect-url", "", "Redirect URI registered with the hh.ru application. Can also use HH_REDIRECT_URL env var. Defaults to <base-url>/oauth/hh/callback.")
	cmd.Flags().StringVar(&opts.UserAgent, "user-agent", "", "HH-User-Agent header sent to hh.ru, e.g. 'my-app/1.0 (me@example.com)'. Can also use HH_USER_AGENT env var.")
	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().DurationVar(&opts.SessionTTL, "session-ttl", server.DefaultSessionTTL, "Idle timeout after which MCP sessions are evicted")

	return cmd
}

// applyServeEnv fills options left at their zero value from the environment.
func applyServeEnv(opts *serveOptions) {
	if opts.BaseURL == "" {
		opts.BaseURL = os.Getenv("MCP_BASE_URL")
	}
	if opts.HHClientID == "" {
		opts.HHClientID = os.Getenv("HH_CLIENT_ID")
	}
	if opts.HHClientSecret == "" {
		opts.HHClientSecret = os.Getenv("HH_CLIENT_SECRET")
	}
	if opts.HHRedirectURL == "" {
		opts.HHRedirectURL = os.Getenv("HH_REDIRECT_URL")
	}
	if opts.UserAgent == "" {
		opts.UserAgent = os.Getenv("HH_USER_AGENT")
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hh-mcp/" + version
	}
	opts.AccessToken = os.Getenv("HH_ACCESS_TOKEN")
	if addr := os.Getenv("METRICS_ADDR"); addr != "" && opts.MetricsAddr == server.DefaultMetricsAddr {
		opts.MetricsAddr = addr
	}
}

func runServe(opts serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(opts.Debug)

	instrConfig := instrumentation.DefaultConfig("hh-mcp", version)
	instrConfig.Enabled = opts.MetricsEnabled
	instrConfig = instrConfig.ApplyEnv()
	if opts.Transport == "stdio" {
		// Stdio runs as a short-lived subprocess of the MCP client; nothing
		// scrapes it.
		instrConfig.Enabled = false
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext := server.NewServerContext(shutdownCtx, opts.UserAgent, opts.AccessToken, opts.Yolo, provider)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("hh-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	if opts.Transport != "stdio" {
		if opts.Yolo {
			logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
		} else {
			logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
		}
	}

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.Transport {
	case "stdio":
		return runStdioServer(shutdownCtx, mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, logger, opts)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}
}

// registerAllTools registers every tool package with the MCP server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := vacancy_tools.RegisterVacancyTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register vacancy tools: %w", err)
	}
	if err := resume_tools.RegisterResumeTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register resume tools: %w", err)
	}
	if err := negotiation_tools.RegisterNegotiationTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register negotiation tools: %w", err)
	}
	if err := dictionary_tools.RegisterDictionaryTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register dictionary tools: %w", err)
	}
	return nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		return err
	}
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, provider *instrumentation.Provider, logger *slog.Logger, opts serveOptions) error {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = deriveBaseURL(opts.HTTPAddr)
		logger.Info("no base URL configured, derived from listen address", "base_url", baseURL)
	}

	redirectURL := opts.HHRedirectURL
	if redirectURL == "" {
		redirectURL = strings.TrimRight(baseURL, "/") + oauth.CallbackPath
	}

	if opts.HHClientID == "" {
		logger.Warn("hh.ru application credentials are not configured; OAuth endpoints will answer oauth_not_configured")
	}

	httpSrv, err := server.NewHTTPServer(server.HTTPServerConfig{
		MCPServer: mcpSrv,
		OAuthConfig: &oauth.Config{
			BaseURL: baseURL,
			Upstream: oauth.UpstreamConfig{
				ClientID:     opts.HHClientID,
				ClientSecret: opts.HHClientSecret,
				RedirectURL:  redirectURL,
			},
			UserAgent: opts.UserAgent,
			Logger:    logger,
		},
		ServerContext: serverContext,
		SessionTTL:    opts.SessionTTL,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	var metricsServer *server.MetricsServer
	if opts.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.MetricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		logger.Info("metrics server listening", "addr", metricsServer.Addr())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.Start(opts.HTTPAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", logging.Err(err))
		}
	}
	return httpSrv.Shutdown(shutdownCtx)
}

// deriveBaseURL guesses a development base URL from the listen address. Only
// sensible for localhost; deployed instances must set --base-url.
func deriveBaseURL(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return "http://localhost:8080"
	}
	return "http://localhost:" + port
}
