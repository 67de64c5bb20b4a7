package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ganot/cropline/internal/app"
	"github.com/ganot/cropline/internal/mcp"
	"github.com/ganot/cropline/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API and MCP server",
	Long: `Serve the crop engine.

In http mode the REST API is served under /api, the MCP streamable
transport on /mcp and Prometheus metrics on /metrics. In stdio mode only
the MCP server runs, on stdin/stdout, without authentication.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, closeDB, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		mcpServer := mcp.NewServer(mcp.Config{
			Services:      a.MCPServices(),
			Resolver:      a.APIKeys,
			AuthEnabled:   cfg.Auth.Enabled,
			TransportMode: cfg.Transport.Mode,
			Version:       version,
			Logger:        logger,
		})

		if cfg.Transport.Mode == "stdio" {
			return runStdioMode(logger, mcpServer)
		}
		return runHTTPMode(logger, a, mcpServer)
	},
}

func init() {
	serveCmd.Flags().String("transport", "", "Override transport mode (http or stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func runHTTPMode(logger *slog.Logger, a *app.App, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	auth := transport.AuthMiddleware(a.APIKeys)
	if !cfg.Auth.Enabled {
		auth = transport.StaticTenantMiddleware(mcp.DefaultTenant)
	}
	router := transport.NewServer(a.HTTPServices(), transport.Options{
		Auth:        auth,
		RateLimiter: transport.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateBurst),
		Observer:    a.Metrics,
		Metrics:     a.Metrics.Handler(),
		MCP:         mcpHandler,
		Logger:      logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "db_driver", cfg.DB.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
	return nil
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
