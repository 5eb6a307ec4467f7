// Package summarizer produces document summaries. The local extractive
// engine in this package always works offline; ChainSummarizer tries remote
// LLM providers first and falls back to it.
package summarizer

import (
	"context"

	"github.com/localrivet/docsummary/internal/summarizer/providers"
)

// ProviderLocal is the provider name reported for summaries made by the
// extractive engine.
const ProviderLocal = "local"

// ProviderFallback is reported when there was nothing to summarize.
const ProviderFallback = "fallback"

// Request is a summary request for a block of text.
type Request struct {
	Text string
	Options
}

// Result is the outcome of a summary request. Error is informational: it is
// set when remote providers failed and the local engine was used instead.
type Result struct {
	Summary  string `json:"summary" yaml:"summary"`
	Provider string `json:"provider" yaml:"provider"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summarizer defines the interface for summarizing text content.
type Summarizer interface {
	// Summarize returns a summary of req.Text.
	Summarize(ctx context.Context, req Request) (Result, error)

	// Initialize sets up the summarizer with any required configuration.
	Initialize() error
}

// LocalSummarizer runs the extractive engine directly.
type LocalSummarizer struct{}

// NewLocalSummarizer returns a Summarizer backed only by the extractive engine.
func NewLocalSummarizer() *LocalSummarizer {
	return &LocalSummarizer{}
}

// Initialize is a no-op; the engine has no state.
func (s *LocalSummarizer) Initialize() error {
	return nil
}

// Summarize implements Summarizer.
func (s *LocalSummarizer) Summarize(_ context.Context, req Request) (Result, error) {
	opts := req.Options.WithDefaults(DefaultRatio)
	return Result{
		Summary:  Summarize(req.Text, opts.Ratio, opts.Requirement),
		Provider: ProviderLocal,
	}, nil
}

// LocalProvider exposes the extractive engine as a providers.LLMProvider so
// it can sit at the end of a provider chain.
type LocalProvider struct {
	Ratio float64
}

// Name returns the provider name
func (p LocalProvider) Name() string {
	return ProviderLocal
}

// Summarize never fails.
func (p LocalProvider) Summarize(_ context.Context, req providers.Request) (string, error) {
	ratio := p.Ratio
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return Summarize(req.Text, ratio, req.Requirement), nil
}
