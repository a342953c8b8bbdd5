package indexer

import (
	"sync"
	"time"
)

type circuitState string

const (
	circuitClosed   circuitState = "closed"
	circuitOpen     circuitState = "open"
	circuitHalfOpen circuitState = "half_open"
)

const circuitHalfOpenMax = 1

// circuitBreaker trips an endpoint out of rotation after a run of
// consecutive failures, and lets a single probe request back in once the
// cooldown elapses.
//
// State machine:
//   - closed (normal): requests pass. On failure, increment counter.
//     counter >= threshold -> open.
//   - open (tripped): requests blocked until cooldown elapses -> half_open.
//   - half_open (testing): allow one request through. success -> closed
//     (reset counter). failure -> open (restart cooldown).
type circuitBreaker struct {
	mu              sync.Mutex
	state           circuitState
	consecutiveFails int
	threshold       int
	cooldown        time.Duration
	lastFailure     time.Time
	halfOpenCount   int
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{
		state:     circuitClosed,
		threshold: threshold,
		cooldown:  cooldown,
	}
}

func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if time.Since(cb.lastFailure) >= cb.cooldown {
			cb.state = circuitHalfOpen
			cb.halfOpenCount = 1
			return true
		}
		return false
	case circuitHalfOpen:
		if cb.halfOpenCount < circuitHalfOpenMax {
			cb.halfOpenCount++
			return true
		}
		return false
	default:
		return false
	}
}

func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFails = 0
	cb.state = circuitClosed
	cb.halfOpenCount = 0
}

func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = time.Now()

	if cb.state == circuitHalfOpen {
		cb.state = circuitOpen
		cb.halfOpenCount = 0
		return
	}
	if cb.consecutiveFails >= cb.threshold {
		cb.state = circuitOpen
		cb.halfOpenCount = 0
	}
}

func (cb *circuitBreaker) State() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
