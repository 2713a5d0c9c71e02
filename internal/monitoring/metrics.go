package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	PredictionCount     int64
	HazardousCount      int64
	NonHazardousCount   int64
	RateLimitIPBlocks   int64
	AverageResponseTime int64 // in nanoseconds
	PredictionLatency   int64 // total nanoseconds spent in the predict route
	PredictionRequests  int64
	StartTime           time.Time

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// failed predictions keyed by error category
	PredictionFailures      map[string]int64
	PredictionFailuresMutex sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
		PredictionFailures:   make(map[string]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// RecordPrediction counts a successful prediction by class
func (m *Metrics) RecordPrediction(hazardous bool) {
	atomic.AddInt64(&m.PredictionCount, 1)
	if hazardous {
		atomic.AddInt64(&m.HazardousCount, 1)
	} else {
		atomic.AddInt64(&m.NonHazardousCount, 1)
	}
}

// RecordPredictionFailure counts a failed prediction under its error category
func (m *Metrics) RecordPredictionFailure(category string) {
	m.PredictionFailuresMutex.Lock()
	defer m.PredictionFailuresMutex.Unlock()
	m.PredictionFailures[category]++
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordPredictionLatency adds one predict request to the latency average
func (m *Metrics) RecordPredictionLatency(duration time.Duration) {
	atomic.AddInt64(&m.PredictionLatency, duration.Nanoseconds())
	atomic.AddInt64(&m.PredictionRequests, 1)
}

// AveragePredictionLatency returns the mean predict route latency
func (m *Metrics) AveragePredictionLatency() time.Duration {
	n := atomic.LoadInt64(&m.PredictionRequests)
	if n == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.PredictionLatency) / n)
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetPredictionFailures returns failed prediction counts by error category
func (m *Metrics) GetPredictionFailures() map[string]int64 {
	m.PredictionFailuresMutex.RLock()
	defer m.PredictionFailuresMutex.RUnlock()

	failures := make(map[string]int64, len(m.PredictionFailures))
	for category, count := range m.PredictionFailures {
		failures[category] = count
	}
	return failures
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"total_requests":       requests,
		"error_count":          errors,
		"error_rate_percent":   errorRate,
		"avg_response_time_ms": float64(avgResponseTime) / 1000000,
		"start_time":           m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1000000,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1000000,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1000000,
		"status_code_distribution": m.GetStatusCodeDistribution(),

		"predictions": map[string]interface{}{
			"total":          atomic.LoadInt64(&m.PredictionCount),
			"hazardous":      atomic.LoadInt64(&m.HazardousCount),
			"non_hazardous":  atomic.LoadInt64(&m.NonHazardousCount),
			"failures":       m.GetPredictionFailures(),
			"avg_latency_ms": float64(m.AveragePredictionLatency()) / 1000000,
		},
		"rate_limit_ip_blocks": atomic.LoadInt64(&m.RateLimitIPBlocks),
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.PredictionCount, 0)
	atomic.StoreInt64(&m.HazardousCount, 0)
	atomic.StoreInt64(&m.NonHazardousCount, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)
	atomic.StoreInt64(&m.AverageResponseTime, 0)
	atomic.StoreInt64(&m.PredictionLatency, 0)
	atomic.StoreInt64(&m.PredictionRequests, 0)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.PredictionFailuresMutex.Lock()
	m.PredictionFailures = make(map[string]int64)
	m.PredictionFailuresMutex.Unlock()

	m.StartTime = time.Now()
}
