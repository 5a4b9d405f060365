// Package circuitbreaker implements the three-state failure-isolation
// breaker shared by every upstream collaborator call (search providers,
// scrapers, vector store, LLM providers).
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/types"
)

// State is one of the breaker's three admission states.
type State int

const (
	// StateClosed admits all calls.
	StateClosed State = iota
	// StateOpen rejects all calls until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen admits a bounded number of probe calls.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// Config parameterizes a breaker: failure-threshold N, recovery-timeout T,
// and half-open-max-calls K — K also doubles as the number of consecutive
// half-open successes required to close.
type Config struct {
	// Threshold is the consecutive-failure count that trips the breaker.
	Threshold int

	// Timeout bounds a single call.
	Timeout time.Duration

	// ResetTimeout is how long the breaker stays Open before probing again.
	ResetTimeout time.Duration

	// HalfOpenMaxCalls bounds concurrent probes in HalfOpen and is the
	// number of consecutive successes needed to close.
	HalfOpenMaxCalls int

	// OnStateChange, if set, is invoked (async) on every state transition.
	OnStateChange func(from State, to State)
}

// DefaultConfig returns reasonable breaker parameters.
func DefaultConfig() *Config {
	return &Config{
		Threshold:        5,
		Timeout:          30 * time.Second,
		ResetTimeout:     60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker wraps a call with failure isolation.
type CircuitBreaker interface {
	// Call executes fn, returning ErrCircuitOpen instead if the breaker
	// does not admit it.
	Call(ctx context.Context, fn func() error) error

	// CallWithResult is Call with a return value.
	CallWithResult(ctx context.Context, fn func() (any, error)) (any, error)

	// State returns the current state.
	State() State

	// Reset forces the breaker back to Closed.
	Reset()
}

type breaker struct {
	config *Config
	logger *zap.Logger

	mu                sync.RWMutex
	state             State
	failureCount      int
	successCount      int // consecutive successes while HalfOpen
	lastFailureTime   time.Time
	halfOpenCallCount int // probes admitted in the current HalfOpen episode
}

// NewCircuitBreaker constructs a breaker, correcting non-positive config
// fields to their defaults.
func NewCircuitBreaker(config *Config, logger *zap.Logger) CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}

	if config.Threshold <= 0 {
		config.Threshold = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 60 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &breaker{
		config: config,
		logger: logger,
		state:  StateClosed,
	}
}

func (b *breaker) Call(ctx context.Context, fn func() error) error {
	_, err := b.CallWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

// CallWithResult is the breaker's core logic: admission check, timeout
// enforcement, state-machine transition on completion.
func (b *breaker) CallWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	resultCh := make(chan callResult, 1)
	go func() {
		result, err := fn()
		resultCh <- callResult{result: result, err: err}
	}()

	select {
	case <-callCtx.Done():
		err := fmt.Errorf("circuit breaker call timed out: %w", callCtx.Err())
		b.afterCall(false)
		return nil, err

	case res := <-resultCh:
		// Client errors (malformed request, auth, quota) don't indicate an
		// unhealthy dependency and shouldn't trip the breaker.
		success := res.err == nil || isClientError(res.err)
		b.afterCall(success)

		if !success {
			return nil, res.err
		}
		return res.result, nil
	}
}

type callResult struct {
	result any
	err    error
}

var clientErrorCodes = map[types.ErrorCode]bool{
	types.ErrInvalidRequest:  true,
	types.ErrAuthentication:  true,
	types.ErrUnauthorized:    true,
	types.ErrForbidden:       true,
	types.ErrQuotaExceeded:   true,
	types.ErrContentFiltered: true,
	types.ErrToolValidation:  true,
	types.ErrContextTooLong:  true,
}

// isClientError reports whether err reflects a bad request rather than an
// unhealthy upstream, per §4.1's "unexpected exceptions ... re-raised
// without counting toward the failure tally" rule.
func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return clientErrorCodes[types.GetErrorCode(err)]
}

func (b *breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.lastFailureTime) > b.config.ResetTimeout {
			b.setState(StateHalfOpen)
			b.halfOpenCallCount = 1
			b.successCount = 0
			b.logger.Info("circuit breaker entering half-open")
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if b.halfOpenCallCount >= b.config.HalfOpenMaxCalls {
			return ErrTooManyCallsInHalfOpen
		}
		b.halfOpenCallCount++
		return nil

	default:
		return fmt.Errorf("circuit breaker in unknown state: %v", b.state)
	}
}

func (b *breaker) afterCall(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.onSuccess()
	} else {
		b.onFailure()
	}
}

func (b *breaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failureCount = 0

	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.config.HalfOpenMaxCalls {
			b.logger.Info("circuit breaker closing",
				zap.Int("consecutive_successes", b.successCount),
			)
			b.setState(StateClosed)
			b.failureCount = 0
			b.successCount = 0
			b.halfOpenCallCount = 0
		}

	case StateOpen:
		b.logger.Warn("circuit breaker received success while open")
	}
}

func (b *breaker) onFailure() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.config.Threshold {
			b.logger.Warn("circuit breaker opening",
				zap.Int("failure_count", b.failureCount),
				zap.Int("threshold", b.config.Threshold),
			)
			b.setState(StateOpen)
		}

	case StateHalfOpen:
		b.logger.Warn("circuit breaker reopening after half-open failure",
			zap.Int("half_open_calls", b.halfOpenCallCount),
		)
		b.setState(StateOpen)
		b.halfOpenCallCount = 0
		b.successCount = 0

	case StateOpen:
		b.logger.Warn("circuit breaker received failure while open")
	}
}

func (b *breaker) setState(newState State) {
	oldState := b.state
	b.state = newState

	if b.config.OnStateChange != nil {
		go b.config.OnStateChange(oldState, newState)
	}
}

func (b *breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldState := b.state
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.halfOpenCallCount = 0

	b.logger.Info("circuit breaker reset", zap.String("from_state", oldState.String()))

	if b.config.OnStateChange != nil {
		go b.config.OnStateChange(oldState, StateClosed)
	}
}

var (
	ErrCircuitOpen            = errors.New("circuit breaker is open")
	ErrTooManyCallsInHalfOpen = errors.New("too many calls in half-open state")
)
