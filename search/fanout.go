package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Trafexofive/DeepSearchStack/internal/metrics"
	"github.com/Trafexofive/DeepSearchStack/llm/circuitbreaker"
)

// ProviderOutcome summarizes one provider's contribution to a fan-out.
type ProviderOutcome struct {
	Provider string
	Results  int
	Err      error
}

// FanoutResult is the gathered, deduplicated output of a fan-out call.
type FanoutResult struct {
	Results  []Result
	Outcomes []ProviderOutcome
}

// Fanout dispatches a query concurrently across a provider subset, gathers
// results, dedups by URL, and reports per-provider outcomes. Breaker state
// is held per provider name so a repeatedly failing backend stops being
// dialed until its reset timeout elapses.
type Fanout struct {
	registry *Registry
	metrics  *metrics.Collector
	recorder *metrics.Recorder
	logger   *zap.Logger

	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker
}

// NewFanout constructs a Fanout over registry, recording outcomes through
// collector/recorder (either may be nil, e.g. in tests).
func NewFanout(registry *Registry, collector *metrics.Collector, recorder *metrics.Recorder, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		registry: registry,
		metrics:  collector,
		recorder: recorder,
		logger:   logger,
		breakers: make(map[string]circuitbreaker.CircuitBreaker),
	}
}

func (f *Fanout) breakerFor(provider string) circuitbreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.breakers[provider]; ok {
		return b
	}
	b := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), f.logger)
	f.breakers[provider] = b
	return b
}

// Run executes the query against every provider named in q.Providers (or,
// if empty, every registered provider), honoring q.Timeout as the bound on
// each individual adapter call. A provider whose breaker is open is
// skipped and recorded as a failure without being dialed.
func (f *Fanout) Run(ctx context.Context, q Query) (FanoutResult, error) {
	providers, resolveErr := f.registry.Resolve(q.Providers)
	if len(providers) == 0 {
		if resolveErr != nil {
			return FanoutResult{}, resolveErr
		}
		return FanoutResult{}, nil
	}

	timeout := q.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	type partial struct {
		provider string
		results  []Result
		err      error
	}
	partials := make([]partial, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			breaker := f.breakerFor(p.Name())

			res, err := breaker.CallWithResult(gctx, func() (any, error) {
				return p.Query(gctx, q.Text, timeout)
			})

			duration := time.Since(start)
			status := "success"
			var results []Result
			if err != nil {
				status = "error"
				if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
					status = "breaker_open"
				}
			} else if res != nil {
				results, _ = res.([]Result)
			}

			partials[i] = partial{provider: p.Name(), results: results, err: err}

			if f.metrics != nil {
				f.metrics.RecordSearchProviderCall(p.Name(), status, duration)
				if status == "breaker_open" || (err != nil && breaker.State() == circuitbreaker.StateOpen) {
					f.metrics.RecordCircuitBreakerTrip(p.Name())
				}
			}
			if f.recorder != nil {
				errType := ""
				if err != nil {
					errType = status
				}
				f.recorder.RecordRequest(metrics.RequestSample{
					Timestamp:    start,
					Provider:     p.Name(),
					ResponseTime: duration,
					Success:      err == nil,
					ErrorType:    errType,
				})
			}
			if err != nil {
				f.logger.Warn("search provider call failed",
					zap.String("provider", p.Name()), zap.Error(err))
			}

			// Never fail the group: a provider error is gathered, not fatal.
			return nil
		})
	}
	// errgroup.Wait only ever returns nil here since no goroutine returns
	// an error, but gctx cancellation still propagates to in-flight calls
	// if the parent context is canceled.
	_ = g.Wait()

	out := FanoutResult{
		Outcomes: make([]ProviderOutcome, 0, len(partials)),
	}
	seen := make(map[string]struct{})
	for _, part := range partials {
		out.Outcomes = append(out.Outcomes, ProviderOutcome{
			Provider: part.provider,
			Results:  len(part.results),
			Err:      part.err,
		})
		for _, r := range part.results {
			if r.URL == "" {
				continue
			}
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			out.Results = append(out.Results, r)
		}
	}

	// Results are appended in provider-list order and, within a provider,
	// in the adapter's own return order — that insertion order is the
	// stable tie-break base C6's ranker sorts against.

	return out, resolveErr
}
