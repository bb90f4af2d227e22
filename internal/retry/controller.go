// Package retry wraps a consumer-side fetch in bounded retry with a fixed
// backoff, so that transient provider failures (typically a cold start) do not
// surface on the first attempt.
package retry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/logger"
	"github.com/guttosm/neowatch/internal/metrics"
)

// ColdStartHint is appended to the root cause once every attempt has failed.
const ColdStartHint = "If this is your first request in a while, the server may be waking up. Please try again."

// State is the position of a Controller in its fetch lifecycle.
type State int

const (
	Idle State = iota
	Fetching
	AwaitingBackoff
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case AwaitingBackoff:
		return "awaiting_backoff"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Policy bounds a Controller. MaxAttempts counts the initial attempt.
type Policy struct {
	MaxAttempts  int
	BackoffDelay time.Duration
}

// DefaultPolicy is one attempt plus two retries, two minutes apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BackoffDelay: 120 * time.Second}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return strings.TrimSuffix(apperr.Message(e.Err), ".") + ". " + ColdStartHint
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithObserver registers fn to be called on every state transition.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithMetrics records attempts and completed backoff waits.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller drives a single logical fetch through its retry lifecycle.
// A Controller is meant for one Run; build a new one per load.
type Controller struct {
	policy   Policy
	clock    clockwork.Clock
	observer func(State)
	metrics  *metrics.Metrics

	mu       sync.Mutex
	state    State
	attempts int
	waits    int
}

// New creates a Controller in the Idle state. Non-positive policy values fall
// back to DefaultPolicy.
func New(policy Policy, opts ...Option) *Controller {
	def := DefaultPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.BackoffDelay < 0 {
		policy.BackoffDelay = def.BackoffDelay
	}
	c := &Controller{
		policy: policy,
		clock:  clockwork.NewRealClock(),
		state:  Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run calls fetch until it succeeds, fails with a non-retryable error or the
// attempt budget is spent.
//
// When ctx is cancelled while a retry is pending, the retry is dropped, the
// controller is left exactly as it was and ctx.Err() is returned.
func (c *Controller) Run(ctx context.Context, fetch func(ctx context.Context) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempt := c.begin()
		err := fetch(ctx)
		if err == nil {
			c.count("success")
			c.transition(Succeeded)
			return nil
		}
		c.count("failure")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !apperr.Retryable(err) {
			c.transition(Failed)
			return err
		}
		if attempt >= c.policy.MaxAttempts {
			c.transition(Failed)
			return &ExhaustedError{Attempts: attempt, Err: err}
		}

		logger.L().Warn().
			Int("attempt", attempt).
			Int("max_attempts", c.policy.MaxAttempts).
			Dur("backoff", c.policy.BackoffDelay).
			Err(err).
			Msg("fetch failed, retry scheduled")

		c.transition(AwaitingBackoff)
		if err := c.wait(ctx); err != nil {
			return err
		}
	}
}

// wait blocks for the backoff delay or until ctx is done.
func (c *Controller) wait(ctx context.Context) error {
	fired := make(chan struct{})
	pending := c.Schedule(c.policy.BackoffDelay, func() { close(fired) })

	select {
	case <-fired:
	case <-ctx.Done():
		pending.Cancel()
		return ctx.Err()
	}

	c.mu.Lock()
	c.waits++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.RetryBackoffs.Inc()
	}
	return nil
}

// Pending is a scheduled call that has not necessarily fired yet.
type Pending struct {
	timer clockwork.Timer
}

// Cancel prevents the call from running. It reports true only if the call
// had not fired yet; once it returns true the call never runs.
func (p *Pending) Cancel() bool {
	return p.timer.Stop()
}

// Schedule runs fn once after delay on the controller's clock.
func (c *Controller) Schedule(delay time.Duration, fn func()) *Pending {
	return &Pending{timer: c.clock.AfterFunc(delay, fn)}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many times fetch has been invoked.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Waits returns how many backoff delays fully elapsed.
func (c *Controller) Waits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waits
}

func (c *Controller) begin() int {
	c.mu.Lock()
	c.attempts++
	n := c.attempts
	c.mu.Unlock()
	c.transition(Fetching)
	return n
}

func (c *Controller) transition(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.observer != nil {
		c.observer(s)
	}
}

func (c *Controller) count(result string) {
	if c.metrics != nil {
		c.metrics.RetryAttempts.WithLabelValues(result).Inc()
	}
}
