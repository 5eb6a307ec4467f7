package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	ollamaAPIURL       = "http://localhost:11434/api/generate"
	ollamaDefaultModel = "mistral"
	ollamaMaxInput     = 4000
)

// OllamaRequest is the body of a non-streaming /api/generate call.
type OllamaRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
}

// OllamaResponse is the single response object returned when stream is false.
type OllamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// OllamaProvider summarizes with a locally running Ollama server.
type OllamaProvider struct {
	Config
	httpClient *http.Client
}

// NewOllamaProvider creates a new instance of the Ollama provider
func NewOllamaProvider(config Config) *OllamaProvider {
	if config.BaseURL == "" {
		config.BaseURL = ollamaAPIURL
	}
	if config.ModelID == "" {
		config.ModelID = ollamaDefaultModel
	}
	return &OllamaProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return ProviderOllama
}

// Summarize implements the LLMProvider interface for Ollama
func (p *OllamaProvider) Summarize(ctx context.Context, req Request) (string, error) {
	reqJSON, err := json.Marshal(OllamaRequest{
		Model:       p.ModelID,
		Prompt:      BuildPrompt(req, ollamaMaxInput),
		Stream:      false,
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error sending request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama API returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var ollamaResponse OllamaResponse
	if err := json.Unmarshal(respBody, &ollamaResponse); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if ollamaResponse.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", ollamaResponse.Error)
	}

	summary := strings.TrimSpace(ollamaResponse.Response)
	if summary == "" {
		return "", fmt.Errorf("Ollama: %w", ErrEmptyResponse)
	}
	return summary, nil
}
