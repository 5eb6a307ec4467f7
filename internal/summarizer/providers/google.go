package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const (
	googleDefaultModel = "gemini-1.5-flash"
	googleMaxInput     = 8000
	googleMaxOutput    = 2048
)

// GoogleProvider implements the LLMProvider interface for Google's Gemini models
type GoogleProvider struct {
	Config

	mu     sync.Mutex
	client *genai.Client
}

// NewGoogleProvider creates a new instance of the Google provider
func NewGoogleProvider(config Config) *GoogleProvider {
	if config.ModelID == "" {
		config.ModelID = googleDefaultModel
	}
	return &GoogleProvider{Config: config}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// genaiClient creates the Gemini client on first use.
func (p *GoogleProvider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// Summarize implements the LLMProvider interface for Google
func (p *GoogleProvider) Summarize(ctx context.Context, req Request) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("Google: %w", ErrMissingAPIKey)
	}

	client, err := p.genaiClient(ctx)
	if err != nil {
		return "", err
	}

	res, err := client.Models.GenerateContent(ctx, p.ModelID, []*genai.Content{
		genai.NewContentFromText(BuildPrompt(req, googleMaxInput), genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		TopK:            genai.Ptr[float32](32),
		TopP:            genai.Ptr[float32](1),
		MaxOutputTokens: googleMaxOutput,
	})
	if err != nil {
		return "", fmt.Errorf("Google AI API error: %w", err)
	}

	summary := strings.TrimSpace(res.Text())
	if summary == "" {
		return "", fmt.Errorf("Google: %w", ErrEmptyResponse)
	}
	return summary, nil
}
