package llmgateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/internal/metrics"
	"github.com/Trafexofive/DeepSearchStack/llm/circuitbreaker"
)

// Strategy names one of the seven selection modes the router supports.
type Strategy string

const (
	StrategyRandom         Strategy = "random"
	StrategyRoundRobin     Strategy = "round-robin"
	StrategyLeastLatency   Strategy = "least-latency"
	StrategyLowestCost     Strategy = "lowest-cost"
	StrategyHighestQuality Strategy = "highest-quality"
	StrategyFailover       Strategy = "failover"
	StrategyPreferred      Strategy = "preferred"
)

// ErrNoAvailableProvider is returned when no registered provider is both
// available and breaker-closed, or (for preferred/failover) none of the
// requested candidates qualify.
var ErrNoAvailableProvider = errors.New("llmgateway: no available provider")

// Request parameterizes one routing decision.
type Request struct {
	Strategy          Strategy
	PreferredProvider string   // consulted by "preferred"
	FailoverList      []string // consulted by "failover", in preference order
	Fallback          bool     // retry-once-on-failure gate
}

// Decision is the outcome of one Select call.
type Decision struct {
	Provider Provider
	Reason   string
}

// health is the per-provider routing state the router accumulates across
// calls, independent of the global C3 metrics recorder, grounded on
// llm/router/router.go's ModelHealth (average latency, consecutive errors).
type health struct {
	avgLatency  time.Duration
	errorStreak int
}

// Router selects among a Registry's providers per a named Strategy,
// tracking per-provider latency/error-streak health, per-provider breaker
// admission (reusing the same lazy-cache-one-breaker-per-name pattern as
// search.Fanout), and in-flight call counts, with retry-once-on-failure
// fallback to a different available provider.
type Router struct {
	registry *Registry
	recorder *metrics.Recorder
	logger   *zap.Logger

	mu       sync.Mutex
	health   map[string]*health
	breakers map[string]circuitbreaker.CircuitBreaker
	inFlight map[string]*int64
	rrIndex  uint64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRouter builds a Router over registry. recorder may be nil (outcomes
// are simply not recorded to C3).
func NewRouter(registry *Registry, recorder *metrics.Recorder, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		registry: registry,
		recorder: recorder,
		logger:   logger,
		health:   make(map[string]*health),
		breakers: make(map[string]circuitbreaker.CircuitBreaker),
		inFlight: make(map[string]*int64),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Router) breakerFor(name string) circuitbreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), r.logger)
		r.breakers[name] = b
	}
	return b
}

func (r *Router) healthFor(name string) *health {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.health[name]
	if !ok {
		h = &health{}
		r.health[name] = h
	}
	return h
}

func (r *Router) inFlightCounter(name string) *int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.inFlight[name]
	if !ok {
		var v int64
		c = &v
		r.inFlight[name] = c
	}
	return c
}

// InFlight reports the current in-flight call count for provider.
func (r *Router) InFlight(name string) int64 {
	return atomic.LoadInt64(r.inFlightCounter(name))
}

// ErrorStreak reports provider's current consecutive-failure count.
func (r *Router) ErrorStreak(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.health[name]; ok {
		return h.errorStreak
	}
	return 0
}

// available returns every registered provider that is currently reporting
// healthy and whose breaker is not Open.
func (r *Router) available(ctx context.Context) []Provider {
	all := r.registry.All()
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if !p.Available(ctx) {
			continue
		}
		if r.breakerFor(p.Name()).State() == circuitbreaker.StateOpen {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Select applies req.Strategy over the currently available-and-breaker-
// closed provider set.
func (r *Router) Select(ctx context.Context, req Request) (Decision, error) {
	candidates := r.available(ctx)
	if len(candidates) == 0 {
		return Decision{}, ErrNoAvailableProvider
	}

	switch req.Strategy {
	case StrategyPreferred:
		for _, p := range candidates {
			if p.Name() == req.PreferredProvider {
				return Decision{Provider: p, Reason: "preferred_match"}, nil
			}
		}
		return Decision{}, fmt.Errorf("%w: preferred provider %q unavailable", ErrNoAvailableProvider, req.PreferredProvider)

	case StrategyFailover:
		for _, name := range req.FailoverList {
			for _, p := range candidates {
				if p.Name() == name {
					return Decision{Provider: p, Reason: "failover_first_available"}, nil
				}
			}
		}
		return Decision{}, fmt.Errorf("%w: no failover candidate available", ErrNoAvailableProvider)

	case StrategyLowestCost:
		best := candidates[0]
		for _, p := range candidates[1:] {
			if p.Cost() < best.Cost() {
				best = p
			}
		}
		return Decision{Provider: best, Reason: "lowest_cost"}, nil

	case StrategyHighestQuality:
		best := candidates[0]
		for _, p := range candidates[1:] {
			if p.Quality() > best.Quality() {
				best = p
			}
		}
		return Decision{Provider: best, Reason: "highest_quality"}, nil

	case StrategyLeastLatency:
		best := candidates[0]
		bestLatency := r.healthFor(best.Name()).avgLatency
		for _, p := range candidates[1:] {
			latency := r.healthFor(p.Name()).avgLatency
			if bestLatency == 0 || (latency > 0 && latency < bestLatency) {
				best, bestLatency = p, latency
			}
		}
		return Decision{Provider: best, Reason: "least_latency"}, nil

	case StrategyRoundRobin:
		idx := atomic.AddUint64(&r.rrIndex, 1) - 1
		return Decision{Provider: candidates[idx%uint64(len(candidates))], Reason: "round_robin"}, nil

	case StrategyRandom, "":
		r.rngMu.Lock()
		idx := r.rng.Intn(len(candidates))
		r.rngMu.Unlock()
		return Decision{Provider: candidates[idx], Reason: "random"}, nil

	default:
		return Decision{}, fmt.Errorf("llmgateway: unknown routing strategy %q", req.Strategy)
	}
}

// recordOutcome folds one call's latency/success into the provider's
// routing health and, if set, into the shared C3 recorder.
func (r *Router) recordOutcome(name string, start time.Time, callErr error) {
	latency := time.Since(start)

	h := r.healthFor(name)
	r.mu.Lock()
	if h.avgLatency == 0 {
		h.avgLatency = latency
	} else {
		// exponential moving average, weight 0.2 on the new sample
		h.avgLatency = (h.avgLatency*4 + latency) / 5
	}
	if callErr != nil {
		h.errorStreak++
	} else {
		h.errorStreak = 0
	}
	r.mu.Unlock()

	if r.recorder == nil {
		return
	}
	errType := ""
	if callErr != nil {
		errType = "llm_error"
	}
	r.recorder.RecordRequest(metrics.RequestSample{
		Timestamp:    start,
		Provider:     name,
		ResponseTime: latency,
		Success:      callErr == nil,
		ErrorType:    errType,
	})
}

// pickOtherThan returns a random available provider other than exclude, or
// nil if none remain.
func (r *Router) pickOtherThan(ctx context.Context, exclude string) Provider {
	candidates := r.available(ctx)
	others := make([]Provider, 0, len(candidates))
	for _, p := range candidates {
		if p.Name() != exclude {
			others = append(others, p)
		}
	}
	if len(others) == 0 {
		return nil
	}
	r.rngMu.Lock()
	idx := r.rng.Intn(len(others))
	r.rngMu.Unlock()
	return others[idx]
}

// call wraps one Complete invocation with in-flight accounting and outcome
// recording; the in-flight counter is decremented on every exit path.
func (r *Router) call(ctx context.Context, p Provider, req *ChatRequest) (*ChatResponse, error) {
	name := p.Name()
	counter := r.inFlightCounter(name)
	atomic.AddInt64(counter, 1)
	defer atomic.AddInt64(counter, -1)

	start := time.Now()
	resp, err := p.Complete(ctx, req)
	r.recordOutcome(name, start, err)
	return resp, err
}

// Complete selects a provider per req.Strategy and completes req. On
// failure, if req.Fallback is set and the failing provider's error streak
// is still below 3, a different available provider is selected and the
// call retried exactly once.
func (r *Router) Complete(ctx context.Context, req Request, chat *ChatRequest) (*ChatResponse, error) {
	decision, err := r.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, callErr := r.call(ctx, decision.Provider, chat)
	if callErr == nil || !req.Fallback {
		return resp, callErr
	}
	if r.ErrorStreak(decision.Provider.Name()) >= 3 {
		return resp, callErr
	}

	alt := r.pickOtherThan(ctx, decision.Provider.Name())
	if alt == nil {
		return resp, callErr
	}
	return r.call(ctx, alt, chat)
}

// Stream selects a provider per req.Strategy and streams chat. Fallback
// retries only apply if the upstream Stream call itself fails before any
// chunk is emitted; once forwarding has begun, a mid-stream failure is
// surfaced as-is so a client never sees a request retried after partial
// output — partial output is not replayable.
func (r *Router) Stream(ctx context.Context, req Request, chat *ChatRequest) (<-chan StreamChunk, error) {
	decision, err := r.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	name := decision.Provider.Name()
	counter := r.inFlightCounter(name)
	atomic.AddInt64(counter, 1)
	start := time.Now()

	upstream, callErr := decision.Provider.Stream(ctx, chat)
	if callErr != nil {
		atomic.AddInt64(counter, -1)
		r.recordOutcome(name, start, callErr)

		if !req.Fallback || r.ErrorStreak(name) >= 3 {
			return nil, callErr
		}
		alt := r.pickOtherThan(ctx, name)
		if alt == nil {
			return nil, callErr
		}
		return r.Stream(ctx, Request{Strategy: StrategyPreferred, PreferredProvider: alt.Name()}, chat)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer atomic.AddInt64(counter, -1)

		var streamErr error
		for chunk := range upstream {
			if chunk.Err != nil {
				streamErr = chunk.Err
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				r.recordOutcome(name, start, ctx.Err())
				return
			}
		}
		r.recordOutcome(name, start, streamErr)
	}()
	return out, nil
}
