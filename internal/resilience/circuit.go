package resilience

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var breakerNopLogger = zerolog.Nop()

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

const (
	defaultOpenFor = 30 * time.Second
	defaultWindow  = time.Minute
)

// State represents the current breaker state.
type State int

const (
	// Closed accepts all requests and tracks failures.
	Closed State = iota
	// Open rejects requests until the cool-off period expires.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
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

// Counts is a point-in-time view of a breaker.
type Counts struct {
	State     State
	Failures  int
	Successes int
	OpenedAt  time.Time
}

// Breaker is a failure-ratio circuit breaker. Outcomes are counted in a fixed
// window that restarts every Window; the breaker opens once MinRequests
// outcomes are seen and the failure ratio reaches FailureRatio.
type Breaker struct {
	mu sync.Mutex

	minRequests  int
	failureRatio float64
	openFor      time.Duration
	window       time.Duration
	target       string
	logger       *zerolog.Logger
	now          func() time.Time

	state       State
	counts      Counts
	windowStart time.Time
	probing     bool
}

// NewBreaker constructs a breaker with the default one minute counting window.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = defaultOpenFor
	}
	b := &Breaker{
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		window:       defaultWindow,
		now:          time.Now,
	}
	b.windowStart = b.now()
	return b
}

// Allow reports whether a request may proceed. After the cool-off an open
// breaker moves to half-open and admits one probe; other callers are refused
// until that probe reports.
func (b *Breaker) Allow(ctx context.Context) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.counts.OpenedAt) < b.openFor {
			return false
		}
		b.changeStateLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records the outcome of an allowed request. A nil breaker ignores
// reports and always allows.
func (b *Breaker) Report(ctx context.Context, success bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.changeStateLocked(ctx, Closed)
		} else {
			b.changeStateLocked(ctx, Open)
		}
		return
	}

	if now := b.now(); now.Sub(b.windowStart) >= b.window {
		b.windowStart = now
		b.counts.Failures, b.counts.Successes = 0, 0
	}
	if success {
		b.counts.Successes++
	} else {
		b.counts.Failures++
	}
	total := b.counts.Failures + b.counts.Successes
	if total >= b.minRequests && float64(b.counts.Failures)/float64(total) >= b.failureRatio {
		b.changeStateLocked(ctx, Open)
	}
}

// Execute runs fn when the breaker allows it and reports the outcome. Errors
// for which ignore returns true count as successes, so expected domain
// failures such as "not found" do not trip the breaker.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error, ignore func(error) bool) error {
	if b == nil {
		return fn(ctx)
	}
	if !b.Allow(ctx) {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	b.Report(ctx, err == nil || (ignore != nil && ignore(err)))
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns the state and the counts of the current window.
func (b *Breaker) Snapshot() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.counts
	c.State = b.state
	return c
}

// Backoff returns an exponential backoff duration for the provided attempt.
// Jitter is expressed as a fraction (e.g. 0.2 == 20%).
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(attempt-1)
	if jitterPct <= 0 {
		return d
	}
	spread := float64(d) * jitterPct
	return d + time.Duration((rand.Float64()*2-1)*spread)
}

// WithTarget names the guarded dependency in metrics and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.publishLocked()
	return b
}

// WithLogger sets the logger used when no request logger is on the context.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = &logger
	return b
}

// WithWindow sets the counting window.
func (b *Breaker) WithWindow(window time.Duration) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if window > 0 {
		b.window = window
	}
	return b
}

func (b *Breaker) changeStateLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.counts = Counts{}
	b.windowStart = b.now()
	if next == Open {
		b.counts.OpenedAt = b.windowStart
	}
	b.publishLocked()

	label := b.label()
	BreakerTransitions.WithLabelValues(label, prev.String(), next.String()).Inc()
	if next == Open {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}
	evt := b.loggerFor(ctx).Info().Str("target", label).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishLocked() {
	BreakerState.WithLabelValues(b.label()).Set(float64(b.state))
}

func (b *Breaker) label() string {
	if b.target == "" {
		return "default"
	}
	return b.target
}

func (b *Breaker) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if b.logger == nil {
		return &breakerNopLogger
	}
	return b.logger
}
