package indexer

import (
	"sync"
	"time"
)

const latencyHistorySize = 10

// endpoint tracks one Chronik-compatible base URL: its circuit breaker, a
// rolling latency history, and the last observed error (for diagnostics).
type endpoint struct {
	URL string

	breaker *circuitBreaker

	mu        sync.Mutex
	latencies []time.Duration
	lastError error
	healthy   bool
}

func newEndpoint(url string, failThreshold int, cooldown time.Duration) *endpoint {
	return &endpoint{
		URL:     url,
		breaker: newCircuitBreaker(failThreshold, cooldown),
		healthy: true,
	}
}

func (e *endpoint) recordSuccess(latency time.Duration) {
	e.breaker.RecordSuccess()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.healthy = true
	e.lastError = nil
	e.latencies = append(e.latencies, latency)
	if len(e.latencies) > latencyHistorySize {
		e.latencies = e.latencies[len(e.latencies)-latencyHistorySize:]
	}
}

func (e *endpoint) recordFailure(err error) {
	e.breaker.RecordFailure()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.healthy = false
	e.lastError = err
}

// averageLatency returns the mean of the recorded latency samples, or zero
// when no samples have been collected yet.
func (e *endpoint) averageLatency() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range e.latencies {
		total += l
	}
	return total / time.Duration(len(e.latencies))
}

func (e *endpoint) status() (healthy bool, lastError error, avgLatency time.Duration) {
	e.mu.Lock()
	healthy = e.healthy
	lastError = e.lastError
	e.mu.Unlock()
	return healthy, lastError, e.averageLatency()
}
