package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/localrivet/docsummary"
	"github.com/localrivet/docsummary/internal/config"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/logger"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "docsummary",
		Short:         "Store documents and summarize them with remote models or a local engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to the configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug|info|warn|error)")

	root.AddCommand(serveCmd(), mcpCmd(), summarizeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging configures the command logger and returns the slog logger
// handed to the service components. Everything goes to stderr.
func setupLogging(cfg *config.Config) (*logger.Logger, *slog.Logger) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	} else if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}

	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(level)
	lc.Format = logger.ParseFormat(cfg.Logging.Format)
	appLogger := logger.New(lc)
	logger.SetDefaultLogger(appLogger)

	return appLogger, logger.NewSlog(level, cfg.Logging.Format, os.Stderr)
}

// newServer loads the configuration and builds the service.
func newServer() (*docsummary.Server, *logger.Logger, error) {
	cfg, err := config.LoadConfigWithPath(configPath)
	if err != nil {
		return nil, nil, errortypes.ConfigError(err, "failed to load configuration")
	}

	appLogger, slogger := setupLogging(cfg)
	appLogger.Info("Loaded configuration from %s", cfg.GetConfigPath())

	srv, err := docsummary.NewServer(docsummary.ServerOptions{Config: cfg, Logger: slogger})
	if err != nil {
		return nil, nil, err
	}
	return srv, appLogger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, appLogger, err := newServer()
			if err != nil {
				return err
			}
			defer srv.Stop()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			appLogger.WithContext("http").Info("docsummary HTTP API starting")
			if err := srv.StartHTTP(ctx); err != nil {
				return errortypes.NetworkError(err, "HTTP server failed")
			}
			appLogger.Info("Shutdown complete")
			return nil
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the document tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, appLogger, err := newServer()
			if err != nil {
				return err
			}
			setupSignalHandler(srv, appLogger)

			appLogger.WithContext("mcp").Info("docsummary MCP server starting")
			if err := srv.StartMCP(); err != nil {
				srv.Stop()
				return errortypes.APIError(err, "MCP server failed")
			}
			return srv.Stop()
		},
	}
}

// setupSignalHandler closes the store and exits when the process is told to
// stop, since the stdio server only returns once stdin closes.
func setupSignalHandler(srv *docsummary.Server, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")
		if err := srv.Stop(); err != nil {
			log.Error("Error during shutdown: %v", err)
			os.Exit(1)
		}
		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}

// commandContext returns the command context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
