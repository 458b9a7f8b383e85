package infra

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CBState is the breaker's position in the closed → open → half-open cycle.
type CBState int

const (
	CBClosed   CBState = iota // calls pass through
	CBOpen                    // calls fail with ErrCircuitOpen
	CBHalfOpen                // trial calls decide the next state
)

// String names the state for health output and logs.
func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig sets the trip and recovery thresholds. Zero fields
// take the DefaultCBConfig values.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures that trip the breaker
	SuccessThreshold int           // consecutive half-open successes that close it
	OpenTimeout      time.Duration // time spent open before a trial call
}

// DefaultCBConfig is tuned for object-storage calls.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker guards calls to the object store. While open every call fails
// fast with ErrCircuitOpen; after OpenTimeout a few trial calls decide whether
// to close again.
type CircuitBreaker struct {
	mu          sync.Mutex
	cfg         CircuitBreakerConfig
	state       CBState
	failures    int
	successes   int
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State returns the current state, moving open → half-open once the timeout elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.lastFailure) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open. Context cancellation by the
// caller is not counted as a store failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch {
	case err == nil:
		cb.onSuccess()
	case ctx.Err() != nil:
	default:
		cb.onFailure()
	}
	return err
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailure = cb.now()
	switch cb.state {
	case CBClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = CBOpen
			cb.successes = 0
		}
	case CBHalfOpen:
		cb.state = CBOpen
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}
