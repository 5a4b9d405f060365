package llmgateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGatewayProvider is a minimal Provider stub for router tests: no
// network, configurable failure/availability/latency per call.
type fakeGatewayProvider struct {
	name      string
	cost      CostOrdinal
	quality   QualityOrdinal
	available bool
	latency   time.Duration

	mu       sync.Mutex
	failNext int // number of upcoming Complete calls that return an error
	calls    int
}

func (f *fakeGatewayProvider) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	f.mu.Lock()
	f.calls++
	fail := f.failNext > 0
	if fail {
		f.failNext--
	}
	f.mu.Unlock()

	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	if fail {
		return nil, errors.New("boom")
	}
	return &ChatResponse{}, nil
}

func (f *fakeGatewayProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	f.mu.Lock()
	fail := f.failNext > 0
	if fail {
		f.failNext--
	}
	f.mu.Unlock()

	if fail {
		return nil, errors.New("boom")
	}
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Delta: Message{Content: "hi"}}
	close(ch)
	return ch, nil
}

func (f *fakeGatewayProvider) Available(ctx context.Context) bool { return f.available }
func (f *fakeGatewayProvider) Name() string                       { return f.name }
func (f *fakeGatewayProvider) Cost() CostOrdinal                  { return f.cost }
func (f *fakeGatewayProvider) Quality() QualityOrdinal            { return f.quality }

func newTestRouter(providers ...Provider) *Router {
	reg := NewRegistry()
	for _, p := range providers {
		reg.Register(p)
	}
	return NewRouter(reg, nil, nil)
}

func TestRouter_SelectPreferredHonorsAvailability(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true}
	b := &fakeGatewayProvider{name: "b", available: false}
	r := newTestRouter(a, b)

	d, err := r.Select(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", d.Provider.Name())

	_, err = r.Select(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "b"})
	assert.ErrorIs(t, err, ErrNoAvailableProvider)
}

func TestRouter_SelectFailoverPicksFirstAvailableInList(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: false}
	b := &fakeGatewayProvider{name: "b", available: true}
	c := &fakeGatewayProvider{name: "c", available: true}
	r := newTestRouter(a, b, c)

	d, err := r.Select(context.Background(), Request{Strategy: StrategyFailover, FailoverList: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "b", d.Provider.Name())
}

func TestRouter_SelectLowestCostPrefersCheaperOrdinal(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true, cost: CostHigh}
	b := &fakeGatewayProvider{name: "b", available: true, cost: CostLow}
	r := newTestRouter(a, b)

	d, err := r.Select(context.Background(), Request{Strategy: StrategyLowestCost})
	require.NoError(t, err)
	assert.Equal(t, "b", d.Provider.Name())
}

func TestRouter_SelectHighestQualityPrefersBetterOrdinal(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true, quality: QualityLow}
	b := &fakeGatewayProvider{name: "b", available: true, quality: QualityHigh}
	r := newTestRouter(a, b)

	d, err := r.Select(context.Background(), Request{Strategy: StrategyHighestQuality})
	require.NoError(t, err)
	assert.Equal(t, "b", d.Provider.Name())
}

func TestRouter_SelectRoundRobinCyclesDeterministically(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true}
	b := &fakeGatewayProvider{name: "b", available: true}
	r := newTestRouter(a, b)

	var seen []string
	for i := 0; i < 4; i++ {
		d, err := r.Select(context.Background(), Request{Strategy: StrategyRoundRobin})
		require.NoError(t, err)
		seen = append(seen, d.Provider.Name())
	}
	assert.Equal(t, seen[0], seen[2])
	assert.Equal(t, seen[1], seen[3])
	assert.NotEqual(t, seen[0], seen[1])
}

func TestRouter_SelectNoAvailableProviderErrors(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: false}
	r := newTestRouter(a)

	_, err := r.Select(context.Background(), Request{Strategy: StrategyRandom})
	assert.ErrorIs(t, err, ErrNoAvailableProvider)
}

func TestRouter_CompleteRetriesOnceOnFailureWhenFallbackEnabled(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true, failNext: 1}
	b := &fakeGatewayProvider{name: "b", available: true}
	r := newTestRouter(a, b)

	_, err := r.Complete(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a", Fallback: true}, &ChatRequest{})
	assert.NoError(t, err)
	assert.Equal(t, 1, a.calls)
}

func TestRouter_CompleteDoesNotRetryWithoutFallback(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true, failNext: 1}
	b := &fakeGatewayProvider{name: "b", available: true}
	r := newTestRouter(a, b)

	_, err := r.Complete(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a", Fallback: false}, &ChatRequest{})
	assert.Error(t, err)
}

func TestRouter_CompleteStopsRetryingOnceErrorStreakReachesThree(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true}
	r := newTestRouter(a)

	for i := 0; i < 3; i++ {
		a.failNext = 1
		_, _ = r.Complete(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a", Fallback: true}, &ChatRequest{})
	}
	assert.Equal(t, 3, r.ErrorStreak("a"))

	a.failNext = 1
	_, err := r.Complete(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a", Fallback: true}, &ChatRequest{})
	assert.Error(t, err)
}

func TestRouter_InFlightReturnsToZeroAfterCall(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true}
	r := newTestRouter(a)

	_, err := r.Complete(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a"}, &ChatRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, r.InFlight("a"))
}

func TestRouter_StreamDoesNotRetryAfterChunksEmitted(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true}
	r := newTestRouter(a)

	ch, err := r.Stream(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a", Fallback: true}, &ChatRequest{})
	require.NoError(t, err)

	var chunks []StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 1)
	assert.EqualValues(t, 0, r.InFlight("a"))
}

func TestRouter_StreamRetriesOnUpstreamFailureBeforeAnyBytes(t *testing.T) {
	a := &fakeGatewayProvider{name: "a", available: true, failNext: 1}
	b := &fakeGatewayProvider{name: "b", available: true}
	r := newTestRouter(a, b)

	ch, err := r.Stream(context.Background(), Request{Strategy: StrategyPreferred, PreferredProvider: "a", Fallback: true}, &ChatRequest{})
	require.NoError(t, err)

	var chunks []StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	assert.Len(t, chunks, 1)
}
