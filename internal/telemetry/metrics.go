// Package telemetry provides metrics collection and reporting
// for monitoring the docsummary service.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// maxTimerSamples bounds the durations kept per timer.
const maxTimerSamples = 100

// MetricsCollector provides a thread-safe interface for collecting
// application metrics for monitoring and troubleshooting.
type MetricsCollector struct {
	counters   map[string]int64
	gauges     map[string]float64
	timers     map[string][]time.Duration
	latestTime map[string]time.Time
	mu         sync.RWMutex
}

// Summarizer metrics
const (
	MetricAPICallsSuccess = "summarizer.api_calls.success"
	MetricAPICallsFailure = "summarizer.api_calls.failure"

	MetricRetryAttempts = "summarizer.retry_attempts"
	MetricRetrySuccess  = "summarizer.retry_success"

	MetricFallbackAttempts = "summarizer.fallback_attempts"
	MetricFallbackSuccess  = "summarizer.fallback_success"
	MetricLocalFallback    = "summarizer.local_fallback"

	MetricCacheHits   = "summarizer.cache.hits"
	MetricCacheMisses = "summarizer.cache.misses"
	MetricCacheSize   = "summarizer.cache.size"

	MetricTotalTime = "summarizer.total_time"
)

// Document and HTTP metrics
const (
	MetricDocumentsUploaded  = "documents.uploaded"
	MetricDocumentsDeleted   = "documents.deleted"
	MetricSummariesGenerated = "summaries.generated"
	MetricSummariesUpdated   = "summaries.updated"
	MetricSummaryPersistFail = "summaries.persist_failures"
	MetricLastUpload         = "documents.last_upload"

	MetricHTTPRequests    = "http.requests"
	MetricHTTPErrors      = "http.errors"
	MetricHTTPRateLimited = "http.rate_limited"
	MetricHTTPLatency     = "http.latency"
)

// APICallsMetric is the counter of calls made to the named provider.
func APICallsMetric(provider string) string {
	return "summarizer.api_calls." + provider
}

// ResponseTimeMetric is the timer of successful calls to the named provider.
func ResponseTimeMetric(provider string) string {
	return "summarizer.response_time." + provider
}

// HealthMetric is the 0/1 gauge of the named provider's last health check.
func HealthMetric(provider string) string {
	return "summarizer.health." + provider
}

// NewMetricsCollector creates a new MetricsCollector instance
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		timers:     make(map[string][]time.Duration),
		latestTime: make(map[string]time.Time),
	}
}

// IncrementCounter increments a named counter by the specified amount
func (m *MetricsCollector) IncrementCounter(name string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name] += amount
}

// SetGauge sets a named gauge to the specified value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[name] = value
}

// RecordTimer records a duration for the specified timer
func (m *MetricsCollector) RecordTimer(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := append(m.timers[name], duration)
	if len(samples) > maxTimerSamples {
		samples = samples[len(samples)-maxTimerSamples:]
	}
	m.timers[name] = samples
}

// RecordTimestamp records the current time for the specified event
func (m *MetricsCollector) RecordTimestamp(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latestTime[name] = time.Now()
}

// GetCounter retrieves the current value of a counter
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counters[name]
}

// GetGauge retrieves the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gauges[name]
}

// GetTimerAverage calculates the average duration for a timer
func (m *MetricsCollector) GetTimerAverage(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return average(m.timers[name])
}

// GetTimerP95 calculates the 95th percentile duration for a timer
func (m *MetricsCollector) GetTimerP95(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return p95(m.timers[name])
}

// GetTimeSince calculates the time elapsed since a recorded timestamp
func (m *MetricsCollector) GetTimeSince(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	timestamp, exists := m.latestTime[name]
	if !exists {
		return 0
	}

	return time.Since(timestamp)
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func p95(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// TimerStats summarizes the samples of one timer.
type TimerStats struct {
	Count int    `json:"count"`
	AvgMS int64  `json:"avg_ms"`
	P95MS int64  `json:"p95_ms"`
	Avg   string `json:"avg"`
	P95   string `json:"p95"`
}

// Snapshot is a point-in-time copy of every metric, shaped for JSON output.
type Snapshot struct {
	Counters map[string]int64      `json:"counters"`
	Gauges   map[string]float64    `json:"gauges"`
	Timers   map[string]TimerStats `json:"timers"`
	LastSeen map[string]time.Time  `json:"last_seen"`
}

// Snapshot copies the current metrics.
func (m *MetricsCollector) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timers:   make(map[string]TimerStats, len(m.timers)),
		LastSeen: make(map[string]time.Time, len(m.latestTime)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.gauges {
		snap.Gauges[k] = v
	}
	for k, samples := range m.timers {
		avg, pct := average(samples), p95(samples)
		snap.Timers[k] = TimerStats{
			Count: len(samples),
			AvgMS: avg.Milliseconds(),
			P95MS: pct.Milliseconds(),
			Avg:   avg.String(),
			P95:   pct.String(),
		}
	}
	for k, v := range m.latestTime {
		snap.LastSeen[k] = v
	}
	return snap
}

// GetReport generates a report of all collected metrics
func (m *MetricsCollector) GetReport() string {
	snap := m.Snapshot()

	var b strings.Builder
	b.WriteString("Metrics Report:\n")
	b.WriteString("==============\n\n")

	b.WriteString("Counters:\n")
	for _, name := range sortedKeys(snap.Counters) {
		fmt.Fprintf(&b, "  %s: %d\n", name, snap.Counters[name])
	}

	b.WriteString("\nGauges:\n")
	for _, name := range sortedKeys(snap.Gauges) {
		fmt.Fprintf(&b, "  %s: %.2f\n", name, snap.Gauges[name])
	}

	b.WriteString("\nTimers (avg):\n")
	for _, name := range sortedKeys(snap.Timers) {
		t := snap.Timers[name]
		fmt.Fprintf(&b, "  %s: avg=%s p95=%s count=%d\n", name, t.Avg, t.P95, t.Count)
	}

	b.WriteString("\nTime Since:\n")
	for _, name := range sortedKeys(snap.LastSeen) {
		ts := snap.LastSeen[name]
		fmt.Fprintf(&b, "  %s: %v ago (%s)\n", name, time.Since(ts).Round(time.Millisecond), ts.Format(time.RFC3339))
	}

	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset clears all collected metrics
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timers = make(map[string][]time.Duration)
	m.latestTime = make(map[string]time.Time)
}
