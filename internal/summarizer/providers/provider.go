// Package providers contains the remote LLM backends that can produce a
// document summary.
package providers

import (
	"context"
	"errors"
	"time"
)

const (
	// Provider constants
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGoogle = "google"

	// Default settings
	DefaultTimeout   = 30 * time.Second
	DefaultLanguage  = "English"
	DefaultMaxTokens = 1024
)

// Temperature used by every provider.
const Temperature = 0.3

var (
	// ErrMissingAPIKey is returned when a provider needing a key has none.
	ErrMissingAPIKey = errors.New("API key not configured")

	// ErrEmptyResponse is returned when a provider answered without text.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// Request is a single summarization request sent to a provider.
type Request struct {
	Text        string
	Requirement string
	Language    string
}

// LLMProvider defines the interface for different LLM service providers
type LLMProvider interface {
	// Summarize returns the provider's summary of req.Text
	Summarize(ctx context.Context, req Request) (string, error)

	// Name returns the provider name
	Name() string
}

// Config holds common configuration for LLM providers
type Config struct {
	APIKey  string
	ModelID string
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// Configured reports whether a provider with this name can be built from c.
// Ollama runs locally and only needs an endpoint; the hosted providers need a key.
func (c Config) Configured(name string) bool {
	if name == ProviderOllama {
		return c.BaseURL != ""
	}
	return c.APIKey != ""
}
