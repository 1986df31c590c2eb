package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tailortalk/tailortalk/internal/agent"
	"github.com/tailortalk/tailortalk/internal/calendar"
	"github.com/tailortalk/tailortalk/internal/google"
	"github.com/tailortalk/tailortalk/internal/instrumentation"
	"github.com/tailortalk/tailortalk/internal/llm"
	"github.com/tailortalk/tailortalk/internal/logging"
	"github.com/tailortalk/tailortalk/internal/server"
	"github.com/tailortalk/tailortalk/internal/session"
	"github.com/tailortalk/tailortalk/internal/tools/calendar_tools"
)

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		calendarID     string
		timezone       string
		model          string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TailorTalk assistant server",
		Long: `Start the TailorTalk conversational calendar assistant.

Supports multiple transport types:
  - http: HTTP chat API with session management (default)
  - mcp: Model Context Protocol server over stdio, exposing the
    calendar tools directly to AI assistants

Configuration:
  Calendar access (required):
    GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN
    env vars, plus TAILORTALK_CALENDAR_ID (or --calendar-id) naming
    the shared calendar.

  Model access (optional):
    OPENROUTER_API_KEY env var, a single key or a comma-separated
    pool. Without keys the assistant still serves chat but replies
    that no credentials are available.

Flags win over environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadServeConfig(newServeViper())

			if cmd.Flags().Changed("http-addr") {
				config.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("calendar-id") {
				config.CalendarID = calendarID
			}
			if cmd.Flags().Changed("timezone") {
				config.Timezone = timezone
			}
			if cmd.Flags().Changed("model") {
				config.Model = model
			}
			if cmd.Flags().Changed("metrics-enabled") {
				config.MetricsEnabled = metricsEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				config.MetricsAddr = metricsAddr
			}

			if err := config.Validate(); err != nil {
				return err
			}

			return runServe(transport, debugMode, config)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "http", "Transport type: http or mcp")
	cmd.Flags().StringVar(&httpAddr, "http-addr", defaultHTTPAddr, "Chat API address (for http transport). Can also use HTTP_ADDR env var.")
	cmd.Flags().StringVar(&calendarID, "calendar-id", "", "Shared Google Calendar ID. Can also use TAILORTALK_CALENDAR_ID env var.")
	cmd.Flags().StringVar(&timezone, "timezone", defaultTimezone, "IANA timezone for parsing and display. Can also use TAILORTALK_TIMEZONE env var.")
	cmd.Flags().StringVar(&model, "model", llm.DefaultModel, "OpenRouter model identifier. Can also use OPENROUTER_MODEL env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, config ServeConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(debugMode)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	loc, err := config.Location()
	if err != nil {
		return err
	}

	client, err := calendar.NewClient(shutdownCtx, google.NewRefreshTokenProvider(config.Google))
	if err != nil {
		return fmt.Errorf("failed to create calendar client: %w", err)
	}
	gatewayOpts := []calendar.GatewayOption{}
	if provider.Enabled() {
		gatewayOpts = append(gatewayOpts, calendar.WithRecorder(provider.Metrics()))
	}
	gateway := calendar.NewGateway(client, config.CalendarID, loc, gatewayOpts...)

	keys := llm.ParseKeyPool(config.OpenRouterKeys)
	if len(keys) == 0 {
		logger.Warn("no OpenRouter API keys configured, chat replies will be degraded")
	}
	selector := llm.NewRandomSelector(keys, rand.New(rand.NewSource(time.Now().UnixNano())))
	completerOpts := []llm.Option{
		llm.WithModel(config.Model),
		llm.WithLogger(logger),
	}
	if provider.Enabled() {
		completerOpts = append(completerOpts, llm.WithRecorder(provider.Metrics()))
	}
	completer := llm.NewClient(selector, completerOpts...)

	toolSet := calendar_tools.New(gateway, calendar_tools.WithLogger(logger))

	dispatcherOpts := []calendar_tools.DispatcherOption{
		calendar_tools.WithDispatcherLogger(logger),
	}
	if provider.Enabled() {
		dispatcherOpts = append(dispatcherOpts, calendar_tools.WithRecorder(provider.Metrics()))
	}
	dispatcher := calendar_tools.NewDispatcher(toolSet, dispatcherOpts...)

	switch transport {
	case "http":
		sessions := session.NewRegistry()
		assistant := agent.New(completer, dispatcher, sessions, agent.WithLogger(logger))
		serverContext := server.NewServerContext(shutdownCtx, assistant, sessions, provider.Metrics())
		serverContext.SetEventLister(toolSet)
		defer func() {
			if err := serverContext.Shutdown(); err != nil {
				logger.Error("server context shutdown failed", logging.Err(err))
			}
		}()
		return runHTTPServer(shutdownCtx, serverContext, provider, config, logger)
	case "mcp":
		return runStdioServer(toolSet)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: http, mcp)", transport)
	}
}

// runHTTPServer starts the chat API and, when enabled, the metrics
// server with the Kubernetes probe endpoints, then blocks until
// shutdown or server failure.
func runHTTPServer(ctx context.Context, sc *server.ServerContext, provider *instrumentation.Provider, config ServeConfig, logger *slog.Logger) error {
	apiServer, err := server.NewAPIServer(server.APIServerConfig{
		Addr:          config.HTTPAddr,
		Version:       version,
		ServerContext: sc,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	healthChecker := server.NewHealthChecker(sc)

	var metricsServer *server.MetricsServer
	if config.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.MetricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
			HealthChecker:           healthChecker,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		logger.Info("metrics server listening", "addr", metricsServer.Addr())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	healthChecker.SetReady(true)
	logger.Info("chat API listening", "addr", apiServer.Addr())

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping servers")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("API server stopped with error: %w", err)
		}
		return nil
	}

	healthChecker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down API server: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down metrics server", logging.Err(err))
		}
	}

	logger.Info("servers gracefully stopped")
	return nil
}

// runStdioServer exposes the calendar tools over the MCP stdio
// transport. Session state and the chat loop stay on the client side.
func runStdioServer(toolSet *calendar_tools.Tools) error {
	mcpSrv := mcpserver.NewMCPServer("tailortalk", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := calendar_tools.RegisterMCPTools(mcpSrv, toolSet); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
