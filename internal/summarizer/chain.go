package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/localrivet/docsummary/internal/summarizer/providers"
	"github.com/localrivet/docsummary/internal/telemetry"
	"github.com/localrivet/docsummary/internal/util"
)

const (
	// Default settings
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 2
	DefaultRetryDelay    = 2 * time.Second
	DefaultCacheCapacity = 1000
	DefaultCacheTTL      = 24 * time.Hour

	// EmptyTextError is reported in Result.Error for empty input.
	EmptyTextError = "Empty text"
)

// Errors
var (
	ErrNoProviders  = errors.New("no remote providers configured")
	ErrNotAvailable = errors.New("remote providers unavailable")
)

// ChainConfig holds configuration for the ChainSummarizer
type ChainConfig struct {
	// Providers are tried in order. When empty, Initialize builds the chain
	// from Factory and Order.
	Providers []providers.LLMProvider
	Factory   *providers.ProviderFactory
	Order     []string

	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	CacheCapacity int
	CacheTTL      time.Duration

	// RateLimit caps outbound provider calls per second. Zero means unlimited.
	RateLimit float64
	RateBurst int

	Metrics *telemetry.MetricsCollector
	Logger  *slog.Logger
}

// ChainSummarizer tries each remote provider in turn and falls back to the
// local extractive engine when none of them produce a summary.
type ChainSummarizer struct {
	chain       []providers.LLMProvider
	factory     *providers.ProviderFactory
	order       []string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	cache       *summaryCache
	limiter     *rate.Limiter
	metrics     *telemetry.MetricsCollector
	logger      *slog.Logger
	initialized bool
	mu          sync.RWMutex
}

// NewChainSummarizer creates a new ChainSummarizer with the given settings
func NewChainSummarizer(config *ChainConfig) *ChainSummarizer {
	if config == nil {
		config = &ChainConfig{}
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryDelay := config.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	}
	capacity := config.CacheCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.RateBurst
	if burst <= 0 {
		burst = 1
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ChainSummarizer{
		chain:      append([]providers.LLMProvider(nil), config.Providers...),
		factory:    config.Factory,
		order:      config.Order,
		timeout:    timeout,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		cache:      newSummaryCache(capacity, ttl),
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    metrics,
		logger:     logger.With("component", "summarizer"),
	}
}

// Initialize builds the provider chain from the factory if none was given.
func (s *ChainSummarizer) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if len(s.chain) == 0 && s.factory != nil {
		s.chain = s.factory.GetProviderChain(s.order)
	}

	names := make([]string, len(s.chain))
	for i, p := range s.chain {
		names[i] = p.Name()
	}
	if len(names) == 0 {
		s.logger.Warn("no remote summarization providers configured, using local engine only")
	} else {
		s.logger.Info("summarization providers ready", "chain", strings.Join(names, ","))
	}

	s.initialized = true
	return nil
}

// Providers returns the names of the remote providers in the order they are tried.
func (s *ChainSummarizer) Providers() []string {
	chain := s.providers()
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name()
	}
	return names
}

func (s *ChainSummarizer) providers() []providers.LLMProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain
}

// Summarize runs req through the provider chain. It only returns an error if
// initialization fails; provider failures end in the local engine.
func (s *ChainSummarizer) Summarize(ctx context.Context, req Request) (Result, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricTotalTime, time.Since(startTime))
	}()

	if strings.TrimSpace(req.Text) == "" {
		return Result{Summary: EmptyTextMessage, Provider: ProviderFallback, Error: EmptyTextError}, nil
	}

	s.mu.RLock()
	initialized := s.initialized
	s.mu.RUnlock()
	if !initialized {
		if err := s.Initialize(); err != nil {
			return Result{}, fmt.Errorf("failed to initialize summarizer: %w", err)
		}
	}

	opts := req.Options.WithDefaults(DefaultRatio)
	key := util.CacheKey(req.Text, opts.Requirement, opts.Language)
	if result, found := s.cache.get(key); found {
		s.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
		return result, nil
	}
	s.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)

	preq := providers.Request{Text: req.Text, Requirement: opts.Requirement, Language: opts.Language}
	chain := s.providers()

	var failures []string
	for i, provider := range chain {
		if i > 0 {
			s.metrics.IncrementCounter(telemetry.MetricFallbackAttempts, 1)
		}

		name := provider.Name()
		s.metrics.IncrementCounter(telemetry.APICallsMetric(name), 1)

		providerStart := time.Now()
		summary, err := s.summarizeWithRetries(ctx, provider, preq)
		if err == nil {
			s.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)
			s.metrics.RecordTimer(telemetry.ResponseTimeMetric(name), time.Since(providerStart))
			if i > 0 {
				s.metrics.IncrementCounter(telemetry.MetricFallbackSuccess, 1)
			}

			result := Result{Summary: summary, Provider: name}
			s.metrics.SetGauge(telemetry.MetricCacheSize, float64(s.cache.put(key, result)))
			return result, nil
		}

		s.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
		s.logger.Warn("provider failed", "provider", name, "error", err)
		failures = append(failures, name)

		if ctx.Err() != nil {
			break
		}
	}

	s.metrics.IncrementCounter(telemetry.MetricLocalFallback, 1)
	result := Result{
		Summary:  Summarize(req.Text, opts.Ratio, opts.Requirement),
		Provider: ProviderLocal,
	}
	if len(failures) > 0 {
		result.Error = fmt.Sprintf("%s: %s failed, using local summary", ErrNotAvailable, strings.Join(failures, ", "))
	}
	return result, nil
}

// summarizeWithRetries calls one provider, retrying with a linearly growing delay.
func (s *ChainSummarizer) summarizeWithRetries(ctx context.Context, provider providers.LLMProvider, req providers.Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.IncrementCounter(telemetry.MetricRetryAttempts, 1)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay * time.Duration(attempt)):
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		summary, err := provider.Summarize(attemptCtx, req)
		cancel()

		if err == nil && strings.TrimSpace(summary) != "" {
			if attempt > 0 {
				s.metrics.IncrementCounter(telemetry.MetricRetrySuccess, 1)
			}
			return summary, nil
		}
		if err == nil {
			err = providers.ErrEmptyResponse
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// GetMetrics returns the metrics collector for this summarizer
func (s *ChainSummarizer) GetMetrics() *telemetry.MetricsCollector {
	return s.metrics
}

// healthCheckText is sent to each provider by CheckProviderHealth.
const healthCheckText = "This is a brief health check for the summarization provider. It should produce a one line summary."

// CheckProviderHealth sends a short request to every provider and reports
// which of them answered.
func (s *ChainSummarizer) CheckProviderHealth(ctx context.Context) map[string]bool {
	results := make(map[string]bool)
	if err := s.Initialize(); err != nil {
		return results
	}

	for _, provider := range s.providers() {
		name := provider.Name()
		if _, checked := results[name]; checked {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := provider.Summarize(checkCtx, providers.Request{Text: healthCheckText, Language: DefaultLanguage})
		cancel()

		results[name] = err == nil
		s.metrics.SetGauge(telemetry.HealthMetric(name), boolToFloat64(results[name]))
	}

	return results
}

func boolToFloat64(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
