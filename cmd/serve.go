package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/logging"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/billing_tools"
	"github.com/joltsms/joltsms-mcp/internal/tools/message_tools"
	"github.com/joltsms/joltsms-mcp/internal/tools/number_tools"
)

// serverName is the MCP implementation name announced to clients.
const serverName = "joltsms"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the JoltSMS MCP server.

The server exposes tools for renting US phone numbers, reading received SMS
and waiting for one-time passcodes. Configuration is read from flags or from
the matching JOLTSMS_* environment variables (e.g. --api-key / JOLTSMS_API_KEY).

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newServeViper(cmd.Flags())
			if err != nil {
				return err
			}
			config, err := loadServeConfig(v)
			if err != nil {
				return err
			}
			return runServe(*config)
		},
	}

	addServeFlags(cmd.Flags())

	return cmd
}

func runServe(config ServeConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the stdio transport, so logs always go to stderr
	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewLogger(os.Stderr, level, config.LogFormat)
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if config.Transport != TransportStdio && config.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(config.Metrics, provider, logger)
		if err != nil {
			return err
		}
	}

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	client, err := joltsms.NewClient(config.APIURL, config.APIKey,
		joltsms.WithMetrics(metrics),
		joltsms.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create JoltSMS client: %w", err)
	}
	logger.Debug("JoltSMS client configured",
		slog.String("api_url", client.BaseURL()),
		slog.String("api_key", logging.SanitizeToken(config.APIKey)))

	serverContext, err := server.NewServerContext(shutdownCtx, client,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithReadOnly(config.ReadOnly),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	if provider.Enabled() {
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}
	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("Error during metrics server shutdown", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", logging.Err(err))
		}
	}()

	healthChecker := server.NewHealthChecker(serverContext, version)

	mcpSrv := mcpserver.NewMCPServer(serverName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(server.SessionHooks(metrics, healthChecker)),
	)

	if config.ReadOnly {
		logger.Info("Starting server in READ-ONLY mode: provisioning, release, update and mark-read tools are disabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, config.ReadOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch config.Transport {
	case TransportStdio:
		return runStdioServer(mcpSrv)
	case TransportStreamableHTTP:
		logger.Info("Starting JoltSMS MCP server",
			slog.String("transport", config.Transport),
			slog.String("addr", config.HTTPAddr))
		httpSrv := server.NewHTTPServer(mcpSrv, server.HTTPConfig{
			Addr:          config.HTTPAddr,
			AuthToken:     config.HTTPAuthToken,
			HealthChecker: healthChecker,
			Metrics:       metrics,
		})
		return runStreamableHTTPServer(shutdownCtx, httpSrv, healthChecker, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", config.Transport, TransportStdio, TransportStreamableHTTP)
	}
}

func startMetricsServer(config MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    config.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("Metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
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

// registerAllTools registers every tool group. In read-only mode each group
// leaves out its writing tools.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Number",
			register: func() error {
				return number_tools.RegisterNumberTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Message",
			register: func() error {
				return message_tools.RegisterMessageTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Billing",
			register: func() error {
				return billing_tools.RegisterBillingTools(mcpSrv, ctx, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, httpSrv *server.HTTPServer, health *server.HealthChecker, logger *slog.Logger) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	health.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		health.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		health.SetReady(false)
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
