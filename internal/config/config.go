package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/localrivet/configurator"

	"github.com/localrivet/docsummary/internal/summarizer/providers"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// ProviderConfig configures one remote summarization provider.
type ProviderConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Config represents the docsummary configuration
type Config struct {
	// Server contains HTTP server configuration.
	Server struct {
		Addr           string  `json:"addr" env:"ADDR" validate:"required"`
		MaxConnections int     `json:"max_connections" env:"MAX_CONNECTIONS"`
		RateLimit      float64 `json:"rate_limit" env:"RATE_LIMIT"`
		RateBurst      int     `json:"rate_burst" env:"RATE_BURST"`
		MaxUploadMB    int     `json:"max_upload_mb" env:"MAX_UPLOAD_MB" validate:"min:1"`

		// PublicBaseURL prefixes the document URLs handed to clients.
		PublicBaseURL string `json:"public_base_url" env:"PUBLIC_BASE_URL"`
	} `json:"server"`

	// Store contains storage-related configuration.
	Store struct {
		// SQLitePath is the path to the SQLite database file.
		SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH" validate:"required"`
	} `json:"store"`

	// Summarizer contains summarization-related configuration.
	Summarizer struct {
		// Mode is "auto" (remote providers, then local) or "local".
		Mode     string  `json:"mode" env:"SUMMARIZER_MODE" validate:"required"`
		Ratio    float64 `json:"ratio" env:"SUMMARIZER_RATIO"`
		Language string  `json:"language" env:"SUMMARIZER_LANGUAGE"`

		// Order is a comma separated provider preference list.
		Order string `json:"order" env:"SUMMARIZER_ORDER"`

		TimeoutSeconds  int `json:"timeout_seconds" env:"SUMMARIZER_TIMEOUT_SECONDS" validate:"min:1"`
		MaxRetries      int `json:"max_retries" env:"SUMMARIZER_MAX_RETRIES"`
		RetryDelayMS    int `json:"retry_delay_ms" env:"SUMMARIZER_RETRY_DELAY_MS"`
		CacheCapacity   int `json:"cache_capacity" env:"SUMMARIZER_CACHE_CAPACITY"`
		CacheTTLMinutes int `json:"cache_ttl_minutes" env:"SUMMARIZER_CACHE_TTL_MINUTES"`

		// RateLimit caps outbound provider calls per second; zero is unlimited.
		RateLimit float64 `json:"rate_limit" env:"SUMMARIZER_RATE_LIMIT"`
	} `json:"summarizer"`

	// Providers configures the remote summarization providers.
	Providers struct {
		Groq   ProviderConfig `json:"groq"`
		Google ProviderConfig `json:"google"`
		Ollama ProviderConfig `json:"ollama"`
		OpenAI ProviderConfig `json:"openai"`
	} `json:"providers"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".docsummaryconfig"
	DefaultSQLitePath     = ".docsummary.db"
	DefaultAddr           = ":8080"
	DefaultPublicBaseURL  = "http://localhost:8080"
	DefaultMaxUploadMB    = 50
	DefaultMode           = "auto"
	DefaultOrder          = "groq,google,ollama,openai"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	EnvPrefix             = "DOCSUMMARY"
)

// providerEnv lists the variables provider credentials are read from when
// the configuration leaves them empty.
var providerEnv = []struct {
	name   string
	key    string
	url    string
	target func(c *Config) *ProviderConfig
}{
	{providers.ProviderGroq, "GROQ_API_KEY", "", func(c *Config) *ProviderConfig { return &c.Providers.Groq }},
	{providers.ProviderGoogle, "GOOGLE_AI_API_KEY", "", func(c *Config) *ProviderConfig { return &c.Providers.Google }},
	{providers.ProviderOllama, "", "OLLAMA_API_URL", func(c *Config) *ProviderConfig { return &c.Providers.Ollama }},
	{providers.ProviderOpenAI, "OPENAI_API_KEY", "", func(c *Config) *ProviderConfig { return &c.Providers.OpenAI }},
}

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Server.Addr = DefaultAddr
	config.Server.MaxConnections = 256
	config.Server.RateLimit = 20
	config.Server.RateBurst = 40
	config.Server.MaxUploadMB = DefaultMaxUploadMB
	config.Server.PublicBaseURL = DefaultPublicBaseURL
	config.Store.SQLitePath = DefaultSQLitePath
	config.Summarizer.Mode = DefaultMode
	config.Summarizer.Ratio = 0.3
	config.Summarizer.Language = "English"
	config.Summarizer.Order = DefaultOrder
	config.Summarizer.TimeoutSeconds = 30
	config.Summarizer.MaxRetries = 2
	config.Summarizer.RetryDelayMS = 2000
	config.Summarizer.CacheCapacity = 1000
	config.Summarizer.CacheTTLMinutes = 24 * 60
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path. Values
// come from the defaults, then the file when it exists, then DOCSUMMARY_*
// environment variables. A .env file in the working directory is loaded
// into the environment first.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Logs go to stderr; stdout carries the MCP protocol
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn("Failed to load .env file", "error", err)
	}

	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())

	if _, err := os.Stat(configPath); err == nil {
		loader = loader.WithProvider(configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Info("Config file not found, using defaults and environment", "path", configPath)
	}

	loader = loader.
		WithProvider(configurator.NewEnvProvider(EnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	if err := loader.Load(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.applyProviderEnv()

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// applyProviderEnv fills empty provider credentials from the conventional
// unprefixed variables (GROQ_API_KEY and friends).
func (c *Config) applyProviderEnv() {
	for _, p := range providerEnv {
		target := p.target(c)
		if p.key != "" && target.APIKey == "" {
			target.APIKey = os.Getenv(p.key)
		}
		if p.url != "" && target.URL == "" {
			target.URL = os.Getenv(p.url)
		}
	}
}

// ProviderConfigs returns the provider settings keyed by provider name.
func (c *Config) ProviderConfigs() map[string]providers.Config {
	configs := make(map[string]providers.Config, len(providerEnv))
	for _, p := range providerEnv {
		target := p.target(c)
		configs[p.name] = providers.Config{
			APIKey:  target.APIKey,
			ModelID: target.Model,
			BaseURL: target.URL,
		}
	}
	return configs
}

// ProviderOrder returns the configured provider preference list.
func (c *Config) ProviderOrder() []string {
	var order []string
	for _, name := range strings.Split(c.Summarizer.Order, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			order = append(order, name)
		}
	}
	return order
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// SummarizerTimeout returns the per-provider timeout.
func (c *Config) SummarizerTimeout() time.Duration {
	return time.Duration(c.Summarizer.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base delay between provider retries.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Summarizer.RetryDelayMS) * time.Millisecond
}

// CacheTTL returns how long summaries stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Summarizer.CacheTTLMinutes) * time.Minute
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
