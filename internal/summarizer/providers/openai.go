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
	openaiAPIURL       = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-3.5-turbo"
	openaiMaxInput     = 12000
)

// ChatMessage represents a message in the chat completions format
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a chat completions call.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ChatResponse represents a chat completions response
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ChatProvider talks to any OpenAI-compatible chat completions endpoint.
// OpenAI and Groq are both served by it.
type ChatProvider struct {
	Config
	name       string
	label      string
	maxInput   int
	httpClient *http.Client
}

// NewOpenAIProvider creates a new instance of the OpenAI provider
func NewOpenAIProvider(config Config) *ChatProvider {
	if config.BaseURL == "" {
		config.BaseURL = openaiAPIURL
	}
	if config.ModelID == "" {
		config.ModelID = openaiDefaultModel
	}
	return newChatProvider(ProviderOpenAI, "OpenAI", openaiMaxInput, config)
}

func newChatProvider(name, label string, maxInput int, config Config) *ChatProvider {
	return &ChatProvider{
		Config:   config,
		name:     name,
		label:    label,
		maxInput: maxInput,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *ChatProvider) Name() string {
	return p.name
}

// MaxInput is the number of characters of source text sent to the model.
func (p *ChatProvider) MaxInput() int {
	return p.maxInput
}

// Summarize implements the LLMProvider interface
func (p *ChatProvider) Summarize(ctx context.Context, req Request) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("%s: %w", p.label, ErrMissingAPIKey)
	}

	reqJSON, err := json.Marshal(ChatRequest{
		Model: p.ModelID,
		Messages: []ChatMessage{
			{Role: "user", Content: BuildPrompt(req, p.maxInput)},
		},
		Temperature: Temperature,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error sending request to %s API: %w", p.label, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var chatResponse ChatResponse
	if err := json.Unmarshal(respBody, &chatResponse); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%s API error: %s", p.label, resp.Status)
		}
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if chatResponse.Error != nil {
		return "", fmt.Errorf("%s API error: %s", p.label, chatResponse.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API error: %s", p.label, resp.Status)
	}

	if len(chatResponse.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", p.label, ErrEmptyResponse)
	}
	summary := strings.TrimSpace(chatResponse.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%s: %w", p.label, ErrEmptyResponse)
	}

	return summary, nil
}
