package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // Normal operation, calls pass through.
	Open                  // Failing, calls are rejected immediately.
	HalfOpen              // Probing recovery, a single call is let through.
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Option configures a Breaker.
type Option func(*Breaker)

// WithStateChange registers fn to be called after every state transition.
// It may be given more than once. fn runs with the breaker's lock held and
// must not call back into it.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = append(b.onChange, fn) }
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	maxFailures     int
	resetTimeout    time.Duration
	lastFailureTime time.Time
	probing         bool
	onChange        []func(from, to State)
}

// New creates a Breaker that opens after maxFailures consecutive errors
// and attempts recovery after resetTimeout.
func New(maxFailures int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		state:        Closed,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	for _, fn := range b.onChange {
		fn(from, to)
	}
}

// Neutral wraps err so that Execute returns it unwrapped without counting
// it as a success or a failure. A half-open probe that ends this way leaves
// the breaker half-open for the next caller.
func Neutral(err error) error {
	if err == nil {
		return nil
	}
	return &neutralError{err: err}
}

type neutralError struct{ err error }

func (e *neutralError) Error() string { return e.err.Error() }
func (e *neutralError) Unwrap() error { return e.err }

// Execute runs fn through the circuit breaker. If the circuit is open, or a
// half-open probe is already in flight, ErrCircuitOpen is returned without
// calling fn. A panic in fn counts as a failure and is propagated.
func (b *Breaker) Execute(fn func() error) (err error) {
	b.mu.Lock()
	switch b.state {
	case Open:
		if time.Since(b.lastFailureTime) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.setState(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	returned := false
	defer func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.probing = false

		var n *neutralError
		switch {
		case !returned:
			b.recordFailure()
		case errors.As(err, &n):
			err = n.err
		case err != nil:
			b.recordFailure()
		default:
			b.failures = 0
			b.setState(Closed)
		}
	}()

	err = fn()
	returned = true
	return err
}

func (b *Breaker) recordFailure() {
	b.failures++
	b.lastFailureTime = time.Now()
	if b.state == HalfOpen || b.failures >= b.maxFailures {
		b.setState(Open)
	}
}

// State returns the current state of the breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
