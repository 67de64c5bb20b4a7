package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ganot/cropline/internal/app"
	"github.com/ganot/cropline/internal/config"
	"github.com/ganot/cropline/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger

	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "cropline",
	Short:         "Crop growth lifecycle and scheduling engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if mode, _ := cmd.Flags().GetString("transport"); mode != "" {
			cfg.Transport.Mode = mode
		}
		logger = newLogger(cmd)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Only serve in http mode logs to
// stdout; stdio keeps stdout clean for JSON-RPC and the other commands
// print their own output there.
func newLogger(cmd *cobra.Command) *slog.Logger {
	logWriter := io.Writer(os.Stderr)
	if cmd == serveCmd && cfg.Transport.Mode != "stdio" {
		logWriter = os.Stdout
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			logFile = file
			logWriter = fileWriter
		}
	}
	return slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
}

// openApp opens and migrates the configured database and builds the
// services. The returned func closes the database.
func openApp(ctx context.Context) (*app.App, func(), error) {
	if cfg.DB.Driver == store.DriverSQLite {
		if err := ensureDBDir(cfg.DB.DSN); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
	}

	db, err := store.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return app.New(db, logger, cfg.Calendar.Workers), func() { _ = db.Close() }, nil
}

func ensureDBDir(dsn string) error {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
