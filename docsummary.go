// Package docsummary wires the document store, the summarization chain and
// the HTTP and MCP front ends into a single service.
package docsummary

import (
	"context"
	"log/slog"

	gomcpserver "github.com/localrivet/gomcp/server"

	"github.com/localrivet/docsummary/internal/api"
	"github.com/localrivet/docsummary/internal/config"
	"github.com/localrivet/docsummary/internal/docservice"
	"github.com/localrivet/docsummary/internal/documents"
	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/server"
	"github.com/localrivet/docsummary/internal/summarizer"
	"github.com/localrivet/docsummary/internal/summarizer/providers"
	"github.com/localrivet/docsummary/internal/telemetry"
)

// Config represents the configuration for the docsummary service.
type Config = config.Config

// Components are the long-lived parts of the service.
type Components struct {
	Store      documents.Store
	Summarizer *summarizer.ChainSummarizer
	Service    *docservice.Service
	Metrics    *telemetry.MetricsCollector
}

// Server represents the docsummary service.
type Server struct {
	config     *config.Config
	components *Components
	toolServer server.DocumentToolServer
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new docsummary Server with the given options.
// If opts.Config is provided, it will be used directly.
// Otherwise, if opts.ConfigPath is provided, configuration will be loaded from that path.
// If neither is provided, DefaultConfig() will be used.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	switch {
	case opts.Config != nil:
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	case opts.ConfigPath != "":
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			logger.Error("Failed to load configuration from path", "path", opts.ConfigPath, "error", err)
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	default:
		logger.Warn("No Config object or ConfigPath provided, using default configuration")
		cfg = DefaultConfig()
	}

	components, err := CreateComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("docsummary server successfully initialized")
	return &Server{
		config:     cfg,
		components: components,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the docsummary service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// CreateComponents opens the store and builds the summarizer chain and the
// document service without starting any front end.
func CreateComponents(cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Initializing SQLite document store", "path", cfg.Store.SQLitePath)
	store := documents.NewSQLiteStore()
	if err := store.Initialize(cfg.Store.SQLitePath); err != nil {
		logger.Error("Failed to initialize SQLite document store", "path", cfg.Store.SQLitePath, "error", err)
		return nil, errortypes.DatabaseError(err, "Failed to initialize SQLite document store")
	}

	metrics := telemetry.NewMetricsCollector()

	chain := NewSummarizer(cfg, metrics, logger)
	if err := chain.Initialize(); err != nil {
		store.Close()
		logger.Error("Failed to initialize summarizer", "error", err)
		return nil, errortypes.ConfigError(err, "Failed to initialize summarizer")
	}

	service, err := docservice.New(docservice.Config{
		Store:          store,
		Summarizer:     chain,
		Metrics:        metrics,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		Mode:           cfg.Summarizer.Mode,
		Defaults:       summarizer.Options{Ratio: cfg.Summarizer.Ratio, Language: cfg.Summarizer.Language},
	})
	if err != nil {
		store.Close()
		logger.Error("Failed to create document service", "error", err)
		return nil, err
	}

	logger.Info("Components successfully initialized", "providers", chain.Providers(), "mode", cfg.Summarizer.Mode)
	return &Components{
		Store:      store,
		Summarizer: chain,
		Service:    service,
		Metrics:    metrics,
	}, nil
}

// NewSummarizer builds the remote provider chain described by cfg. The
// caller initializes it.
func NewSummarizer(cfg *Config, metrics *telemetry.MetricsCollector, logger *slog.Logger) *summarizer.ChainSummarizer {
	return summarizer.NewChainSummarizer(&summarizer.ChainConfig{
		Factory:       providers.NewProviderFactory(cfg.ProviderConfigs()),
		Order:         cfg.ProviderOrder(),
		Timeout:       cfg.SummarizerTimeout(),
		MaxRetries:    cfg.Summarizer.MaxRetries,
		RetryDelay:    cfg.RetryDelay(),
		CacheCapacity: cfg.Summarizer.CacheCapacity,
		CacheTTL:      cfg.CacheTTL(),
		RateLimit:     cfg.Summarizer.RateLimit,
		Metrics:       metrics,
		Logger:        logger,
	})
}

// Service returns the document service.
func (s *Server) Service() *docservice.Service {
	return s.components.Service
}

// Summarizer returns the provider chain used by the service.
func (s *Server) Summarizer() *summarizer.ChainSummarizer {
	return s.components.Summarizer
}

// HTTPServer builds the HTTP API server from the configuration.
func (s *Server) HTTPServer() *api.Server {
	chain := s.components.Summarizer
	health := func(ctx context.Context) (*summarizer.HealthReport, error) {
		return summarizer.CreateHealthReport(ctx, chain)
	}

	handler := api.NewHandler(s.components.Service, health, s.logger)
	return api.NewServer(api.ServerConfig{
		Addr:           s.config.Server.Addr,
		MaxConnections: s.config.Server.MaxConnections,
		RateLimit:      s.config.Server.RateLimit,
		RateBurst:      s.config.Server.RateBurst,
	}, handler)
}

// StartHTTP serves the HTTP API until ctx is canceled.
func (s *Server) StartHTTP(ctx context.Context) error {
	s.logger.Info("Starting docsummary HTTP API", "addr", s.config.Server.Addr)
	return s.HTTPServer().ListenAndServe(ctx)
}

// StartMCP serves the MCP tools over stdio. It blocks until stdin is closed.
func (s *Server) StartMCP() error {
	toolServer := server.NewDocumentToolServer(s.components.Service, s.logger)
	if err := toolServer.Initialize(); err != nil {
		s.logger.Error("Failed to initialize MCP document tool server", "error", err)
		return errortypes.ConfigError(err, "Failed to initialize MCP document tool server")
	}
	s.toolServer = toolServer

	s.logger.Info("Starting docsummary MCP server")
	return toolServer.Start()
}

// RegisterTools adds the document tools to an MCP server owned by the
// caller, who is then responsible for running it.
func (s *Server) RegisterTools(host gomcpserver.Server) gomcpserver.Server {
	return server.NewDocumentToolServer(s.components.Service, s.logger).RegisterTools(host)
}

// Stop stops the docsummary service.
func (s *Server) Stop() error {
	s.logger.Info("Stopping docsummary service")
	if s.toolServer != nil {
		if err := s.toolServer.Stop(); err != nil {
			s.logger.Error("Error stopping tool server", "error", err)
			return err
		}
	}

	s.logger.Info("Closing store")
	if err := s.components.Store.Close(); err != nil {
		s.logger.Error("Failed to close store", "error", err)
		return err
	}

	s.logger.Info("docsummary service stopped")
	return nil
}
