package main

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/client"
)

type benchResult struct {
	Timestamp          string         `json:"timestamp"`
	BaseURL            string         `json:"base_url"`
	Scenario           string         `json:"scenario"`
	Transactions       int            `json:"transactions"`
	Concurrency        int            `json:"concurrency"`
	ItemsPerCart       int            `json:"items_per_cart"`
	SuccessfulRequests int            `json:"successful_requests"`
	ErrorRequests      int            `json:"error_requests"`
	Replays            int            `json:"replays"`
	DurationSeconds    float64        `json:"duration_seconds"`
	AvgLatencyMs       float64        `json:"avg_latency_ms"`
	MinLatencyMs       float64        `json:"min_latency_ms"`
	MaxLatencyMs       float64        `json:"max_latency_ms"`
	P50LatencyMs       float64        `json:"p50_latency_ms"`
	P90LatencyMs       float64        `json:"p90_latency_ms"`
	P95LatencyMs       float64        `json:"p95_latency_ms"`
	P99LatencyMs       float64        `json:"p99_latency_ms"`
	ThroughputRPS      float64        `json:"throughput_rps"`
	StatusCounts       map[string]int `json:"status_counts"`
	ErrorClasses       map[string]int `json:"error_classes"`
	FirstError         string         `json:"first_error"`
}

type metrics struct {
	mu           sync.Mutex
	success      int
	errors       int
	replays      int
	total        time.Duration
	minLatency   time.Duration
	maxLatency   time.Duration
	latenciesMs  []float64
	statusCounts map[string]int
	errorClasses map[string]int
	firstError   string
}

func newMetrics() *metrics {
	return &metrics{
		statusCounts: make(map[string]int),
		errorClasses: make(map[string]int),
	}
}

// record counts one shopper run. A successful run is keyed by the status
// the checkout answered with.
func (m *metrics) record(latency time.Duration, out outcome, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.errors++
		status, class := classifyError(err)
		m.statusCounts[status]++
		m.errorClasses[class]++
		if m.firstError == "" {
			m.firstError = err.Error()
		}
		return
	}
	m.success++
	m.statusCounts[strconv.Itoa(out.status)]++
	if out.replayed {
		m.replays++
	}
	m.total += latency
	if m.minLatency == 0 || latency < m.minLatency {
		m.minLatency = latency
	}
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	m.latenciesMs = append(m.latenciesMs, float64(latency.Microseconds())/1000)
}

func (m *metrics) result(duration time.Duration) benchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := benchResult{
		SuccessfulRequests: m.success,
		ErrorRequests:      m.errors,
		Replays:            m.replays,
		DurationSeconds:    duration.Seconds(),
		StatusCounts:       m.statusCounts,
		ErrorClasses:       m.errorClasses,
		FirstError:         m.firstError,
	}
	if m.success > 0 {
		r.AvgLatencyMs = float64(m.total.Microseconds()) / 1000 / float64(m.success)
		r.MinLatencyMs = float64(m.minLatency.Microseconds()) / 1000
		r.MaxLatencyMs = float64(m.maxLatency.Microseconds()) / 1000
	}
	if duration > 0 {
		r.ThroughputRPS = float64(m.success) / duration.Seconds()
	}
	r.P50LatencyMs, r.P90LatencyMs, r.P95LatencyMs, r.P99LatencyMs = calcPercentiles(m.latenciesMs)
	return r
}

func classifyError(err error) (status, class string) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "transport", "transport"
	}
	status = strconv.Itoa(apiErr.Status)
	switch {
	case apiErr.Status == 409:
		return status, "business_rejected"
	case apiErr.Status >= 500:
		return status, "http_5xx"
	default:
		return status, "http_4xx"
	}
}

func calcPercentiles(values []float64) (float64, float64, float64, float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentile(sorted, 0.50), percentile(sorted, 0.90), percentile(sorted, 0.95), percentile(sorted, 0.99)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
