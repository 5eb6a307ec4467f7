package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/localrivet/docsummary/internal/telemetry"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	// StatusHealthy indicates a component is fully operational
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded indicates a component is operational but with reduced capability
	StatusDegraded HealthStatus = "degraded"

	// StatusUnhealthy indicates a component is not operational
	StatusUnhealthy HealthStatus = "unhealthy"

	// StatusUnconfigured marks a component that has nothing configured
	StatusUnconfigured HealthStatus = "unconfigured"
)

// Version is reported in health reports.
var Version = "dev"

// HealthReport contains information about the current health of the summarizer
type HealthReport struct {
	Status        HealthStatus       `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	Components    map[string]string  `json:"components"`
	Providers     map[string]bool    `json:"providers"`
	ResponseTimes map[string]float64 `json:"response_times_ms"`
	CacheStats    map[string]int64   `json:"cache_stats"`
	SuccessRate   float64            `json:"success_rate"`
	TotalRequests int64              `json:"total_requests"`
	Version       string             `json:"version"`
}

// CreateHealthReport probes every remote provider and combines the results
// with the collected metrics. The local engine is always healthy, so a chain
// with no working remote provider is degraded rather than unhealthy.
func CreateHealthReport(ctx context.Context, summarizer *ChainSummarizer) (*HealthReport, error) {
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is nil")
	}

	m := summarizer.GetMetrics()
	if m == nil {
		return nil, fmt.Errorf("metrics collector is nil")
	}

	providerHealth := summarizer.CheckProviderHealth(ctx)
	chain := summarizer.Providers()

	working := 0
	for _, healthy := range providerHealth {
		if healthy {
			working++
		}
	}

	status := StatusHealthy
	if working < len(providerHealth) || len(providerHealth) == 0 {
		status = StatusDegraded
	}

	totalSuccess := m.GetCounter(telemetry.MetricAPICallsSuccess)
	totalFailure := m.GetCounter(telemetry.MetricAPICallsFailure)
	totalRequests := totalSuccess + totalFailure

	var successRate float64
	if totalRequests > 0 {
		successRate = float64(totalSuccess) / float64(totalRequests) * 100.0
	}

	responseTimes := map[string]float64{
		"total": millis(m.GetTimerAverage(telemetry.MetricTotalTime)),
	}
	for _, name := range chain {
		responseTimes[name] = millis(m.GetTimerAverage(telemetry.ResponseTimeMetric(name)))
	}

	cacheStats := map[string]int64{
		"hits":   m.GetCounter(telemetry.MetricCacheHits),
		"misses": m.GetCounter(telemetry.MetricCacheMisses),
		"size":   int64(summarizer.cache.size()),
	}

	components := map[string]string{
		"cache":     string(StatusHealthy),
		"local":     string(StatusHealthy),
		"primary":   string(StatusUnconfigured),
		"fallbacks": string(StatusUnconfigured),
	}
	for i, name := range chain {
		state := string(StatusUnhealthy)
		if providerHealth[name] {
			state = string(StatusHealthy)
		}
		if i == 0 {
			components["primary"] = state
			continue
		}
		if components["fallbacks"] != string(StatusHealthy) {
			components["fallbacks"] = state
		}
	}

	return &HealthReport{
		Status:        status,
		Timestamp:     time.Now(),
		Components:    components,
		Providers:     providerHealth,
		ResponseTimes: responseTimes,
		CacheStats:    cacheStats,
		SuccessRate:   successRate,
		TotalRequests: totalRequests,
		Version:       Version,
	}, nil
}

// CreateHealthReportJSON generates a JSON health report for the summarizer
func CreateHealthReportJSON(ctx context.Context, summarizer *ChainSummarizer) (string, error) {
	report, err := CreateHealthReport(ctx, summarizer)
	if err != nil {
		return "", err
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal health report: %w", err)
	}

	return string(reportJSON), nil
}

// ResetMetrics resets all metrics for the summarizer
func ResetMetrics(summarizer *ChainSummarizer) error {
	if summarizer == nil {
		return fmt.Errorf("summarizer is nil")
	}

	m := summarizer.GetMetrics()
	if m == nil {
		return fmt.Errorf("metrics collector is nil")
	}

	m.Reset()
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
