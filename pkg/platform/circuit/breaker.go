// Package circuit wraps sony/gobreaker with the options and error values the
// rest of the service uses.
package circuit

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrOpen is returned (wrapping the gobreaker error) when a call is rejected
// without reaching the dependency.
var ErrOpen = errors.New("circuit open")

// State is the breaker state.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

type config struct {
	failureThreshold uint32
	halfOpenRequests uint32
	openTimeout      time.Duration
	interval         time.Duration
	isSuccessful     func(error) bool
	onStateChange    func(name string, from, to State)
}

// Option configures a Breaker instance.
type Option func(*config)

// WithFailureThreshold sets the number of consecutive failures that opens the circuit.
// Default is 5.
func WithFailureThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.failureThreshold = uint32(n) //nolint:gosec // n > 0
		}
	}
}

// WithHalfOpenRequests sets how many probe requests pass while half-open.
// Default is 1.
func WithHalfOpenRequests(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.halfOpenRequests = uint32(n) //nolint:gosec // n > 0
		}
	}
}

// WithOpenTimeout sets how long the circuit stays open before probing.
// Default is 30s.
func WithOpenTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithSuccessPredicate marks errors that should not count as failures, such
// as a lookup for an id that doesn't exist.
func WithSuccessPredicate(fn func(error) bool) Option {
	return func(c *config) {
		c.isSuccessful = fn
	}
}

// WithStateChange registers a callback for state transitions.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(c *config) {
		c.onStateChange = fn
	}
}

// Breaker guards calls returning T.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker with the given name and options.
func New[T any](name string, opts ...Option) *Breaker[T] {
	cfg := config{
		failureThreshold: 5,
		halfOpenRequests: 1,
		openTimeout:      30 * time.Second,
		interval:         time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	threshold := cfg.failureThreshold
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.halfOpenRequests,
		Interval:    cfg.interval,
		Timeout:     cfg.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful:  cfg.isSuccessful,
		OnStateChange: cfg.onStateChange,
	}
	return &Breaker[T]{name: name, cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Name returns the circuit breaker's name for logging/metrics.
func (b *Breaker[T]) Name() string {
	return b.name
}

// State returns the current circuit state.
func (b *Breaker[T]) State() State {
	return b.cb.State()
}

// IsOpen returns true if the circuit is open (tripped).
func (b *Breaker[T]) IsOpen() bool {
	return b.cb.State() == StateOpen
}

// Execute runs fn unless the circuit rejects the call, in which case the
// returned error wraps ErrOpen.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return result, fmt.Errorf("%s: %w: %w", b.name, ErrOpen, err)
	}
	return result, err
}
