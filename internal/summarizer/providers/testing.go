package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockResponseConfig holds configuration for mock API responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
	// OnRequest, when set, receives every request body the server sees.
	OnRequest func(r *http.Request, body []byte)
}

// MockServer creates a test server that returns the configured response
func MockServer(t *testing.T, config MockResponseConfig) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.OnRequest != nil {
			body, _ := io.ReadAll(r.Body)
			config.OnRequest(r, body)
		}

		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}
		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}

		status := config.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)

		if config.ResponseBody == nil {
			return
		}

		var respBytes []byte
		switch body := config.ResponseBody.(type) {
		case string:
			respBytes = []byte(body)
		case []byte:
			respBytes = body
		default:
			var err error
			respBytes, err = json.Marshal(body)
			if err != nil {
				t.Errorf("Failed to marshal mock response: %v", err)
				return
			}
		}

		if _, err := w.Write(respBytes); err != nil {
			t.Errorf("Failed to write response body: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// TestProvider is a simple implementation of LLMProvider for testing
type TestProvider struct {
	name         string
	returnError  error
	returnString string

	mu    sync.Mutex
	calls int
}

// NewTestProvider creates a new TestProvider
func NewTestProvider(name string, returnString string, returnError error) *TestProvider {
	return &TestProvider{
		name:         name,
		returnString: returnString,
		returnError:  returnError,
	}
}

// Name returns the provider name
func (p *TestProvider) Name() string {
	return p.name
}

// Summarize returns the configured string or error
func (p *TestProvider) Summarize(_ context.Context, _ Request) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.returnString, p.returnError
}

// Calls returns how many times Summarize was invoked.
func (p *TestProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// CapturingProvider is a provider that captures the inputs for testing
type CapturingProvider struct {
	name         string
	returnError  error
	returnString string

	mu       sync.Mutex
	captured Request
}

// NewCapturingProvider creates a new CapturingProvider
func NewCapturingProvider(name, returnString string, returnError error) *CapturingProvider {
	return &CapturingProvider{
		name:         name,
		returnString: returnString,
		returnError:  returnError,
	}
}

// Name returns the provider name
func (p *CapturingProvider) Name() string {
	return p.name
}

// Summarize captures inputs and returns configured response
func (p *CapturingProvider) Summarize(_ context.Context, req Request) (string, error) {
	p.mu.Lock()
	p.captured = req
	p.mu.Unlock()
	return p.returnString, p.returnError
}

// Captured returns the request that was last passed to Summarize
func (p *CapturingProvider) Captured() Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captured
}
