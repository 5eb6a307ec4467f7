package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/localrivet/docsummary/internal/summarizer/providers"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Store.SQLitePath != DefaultSQLitePath || cfg.Server.Addr != DefaultAddr {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes() != 50<<20 {
		t.Errorf("Expected 50 MiB upload limit, got %d", cfg.MaxUploadBytes())
	}
	if cfg.SummarizerTimeout() != 30*time.Second || cfg.RetryDelay() != 2*time.Second || cfg.CacheTTL() != 24*time.Hour {
		t.Errorf("Unexpected durations: %v %v %v", cfg.SummarizerTimeout(), cfg.RetryDelay(), cfg.CacheTTL())
	}
	want := []string{"groq", "google", "ollama", "openai"}
	if got := cfg.ProviderOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("ProviderOrder() = %v, want %v", got, want)
	}
}

func TestProviderOrder(t *testing.T) {
	cfg := NewConfig()
	cfg.Summarizer.Order = " Ollama, ,google "
	if got := cfg.ProviderOrder(); !reflect.DeepEqual(got, []string{"ollama", "google"}) {
		t.Errorf("Unexpected order %v", got)
	}

	cfg.Summarizer.Order = ""
	if got := cfg.ProviderOrder(); len(got) != 0 {
		t.Errorf("Expected empty order, got %v", got)
	}
}

func TestProviderConfigs(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-from-env")
	t.Setenv("OLLAMA_API_URL", "http://ollama:11434/api/generate")
	t.Setenv("OPENAI_API_KEY", "openai-from-env")

	cfg := NewConfig()
	cfg.Providers.OpenAI.APIKey = "openai-from-file"
	cfg.Providers.Google.Model = "gemini-pro"
	cfg.applyProviderEnv()

	configs := cfg.ProviderConfigs()
	if len(configs) != 4 {
		t.Fatalf("Expected 4 provider configs, got %d", len(configs))
	}
	if configs[providers.ProviderGroq].APIKey != "groq-from-env" {
		t.Errorf("Expected groq key from environment, got %q", configs[providers.ProviderGroq].APIKey)
	}
	if configs[providers.ProviderOpenAI].APIKey != "openai-from-file" {
		t.Errorf("Configured key must win over the environment, got %q", configs[providers.ProviderOpenAI].APIKey)
	}
	if configs[providers.ProviderOllama].BaseURL != "http://ollama:11434/api/generate" {
		t.Errorf("Expected ollama URL from environment, got %q", configs[providers.ProviderOllama].BaseURL)
	}
	if configs[providers.ProviderGoogle].ModelID != "gemini-pro" {
		t.Errorf("Expected google model to be carried over, got %q", configs[providers.ProviderGoogle].ModelID)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	cfg, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatalf("LoadConfigWithPath failed: %v", err)
	}
	if cfg.Store.SQLitePath != DefaultSQLitePath || cfg.GetConfigPath() != path {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFilename)

	cfg := NewConfig()
	cfg.Store.SQLitePath = "/var/lib/docsummary/docs.db"
	cfg.Summarizer.Mode = "local"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	if cfg.GetConfigPath() != path {
		t.Errorf("Expected config path to be updated, got %s", cfg.GetConfigPath())
	}

	loaded, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatalf("LoadConfigWithPath failed: %v", err)
	}
	if loaded.Store.SQLitePath != "/var/lib/docsummary/docs.db" || loaded.Summarizer.Mode != "local" {
		t.Errorf("Saved values not loaded: store=%s mode=%s", loaded.Store.SQLitePath, loaded.Summarizer.Mode)
	}
}

// Loading must not write to stdout, which carries the MCP protocol.
func TestLoadConfigKeepsStdoutClean(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	_, loadErr := LoadConfigWithPath(filepath.Join(t.TempDir(), DefaultConfigFilename))
	w.Close()
	os.Stdout = stdout

	written, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if loadErr != nil {
		t.Fatalf("LoadConfigWithPath failed: %v", loadErr)
	}
	if len(written) != 0 {
		t.Errorf("Expected no output on stdout, got %q", written)
	}
}
