package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned without invoking the guarded call.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// CircuitBreaker guards the broadcast publish path. A run of consecutive
// failures opens the circuit; while open, publishes fail fast instead of
// stacking timeouts behind an unreachable transport. After the cooldown a
// single probe call is let through.
type CircuitBreaker struct {
	name        string
	maxFailures uint32
	openTimeout time.Duration

	mutex    sync.Mutex
	state    State
	failures uint32
	expiry   time.Time
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:        name,
		maxFailures: 5,
		openTimeout: 30 * time.Second,
		state:       StateClosed,
	}
}

// Execute runs req unless the circuit is open.
func (cb *CircuitBreaker) Execute(req func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := req()
	cb.afterRequest(err == nil)
	return err
}

// State reports the current state, applying the open→half-open
// transition if the cooldown has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.currentState(time.Now())
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.currentState(time.Now()) == StateOpen {
		return ErrBreakerOpen
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if success {
		cb.failures = 0
		cb.state = StateClosed
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = StateOpen
		cb.expiry = time.Now().Add(cb.openTimeout)
	}
}

func (cb *CircuitBreaker) currentState(now time.Time) State {
	if cb.state == StateOpen && cb.expiry.Before(now) {
		cb.state = StateHalfOpen
	}
	return cb.state
}
