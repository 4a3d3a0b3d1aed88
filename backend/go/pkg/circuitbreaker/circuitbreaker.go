// Package circuitbreaker implements the circuit breaker pattern used to
// guard calls to external collaborators (LLM backends, data stores).
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the current state of a breaker.
type State int

const (
	// Closed allows requests through; failures are counted.
	Closed State = iota
	// Open rejects requests immediately.
	Open
	// HalfOpen lets trial requests through to probe recovery.
	HalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker rejects a request.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips after a run of consecutive failures and recovers through a
// half-open probe phase.
type Breaker struct {
	failureThreshold uint32
	successThreshold uint32
	cooldown         time.Duration

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
}

// New creates a Breaker.
// failureThreshold: consecutive failures that open the circuit.
// successThreshold: consecutive half-open successes that close it again.
// cooldown: how long the circuit stays open before probing.
func New(failureThreshold, successThreshold uint32, cooldown time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		state:            Closed,
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeProbe()
	return b.state
}

// Do runs fn under the breaker. When the circuit is open it returns
// ErrOpen without invoking fn; otherwise fn's error is returned as-is and
// recorded.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	b.maybeProbe()
	if b.state == Open {
		b.mu.Unlock()
		return ErrOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// maybeProbe transitions Open to HalfOpen once the cooldown has elapsed.
// Caller must hold the lock.
func (b *Breaker) maybeProbe() {
	if b.state == Open && time.Since(b.openedAt) > b.cooldown {
		b.state = HalfOpen
		b.successes = 0
	}
}

// onSuccess records a successful call. Caller must hold the lock.
func (b *Breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	case Closed:
		b.failures = 0
	}
}

// onFailure records a failed call. Caller must hold the lock.
func (b *Breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip opens the circuit. Caller must hold the lock.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = time.Now()
	b.failures = 0
	b.successes = 0
}
