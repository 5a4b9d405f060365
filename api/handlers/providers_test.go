package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/search"
)

// fakeSearchProvider is a minimal search.Provider double used only to
// populate a search.Registry for list/introspection tests.
type fakeSearchProvider struct{ name string }

func (f fakeSearchProvider) Query(ctx context.Context, query string, timeout time.Duration) ([]search.Result, error) {
	return nil, nil
}
func (f fakeSearchProvider) Name() string    { return f.name }
func (f fakeSearchProvider) Weight() float64 { return 1 }

// fakeLLMProvider is a minimal llmgateway.Provider double.
type fakeLLMProvider struct {
	name      string
	available bool
	cost      llmgateway.CostOrdinal
	quality   llmgateway.QualityOrdinal
	reply     *llmgateway.ChatResponse
	err       error
}

func (f *fakeLLMProvider) Complete(ctx context.Context, req *llmgateway.ChatRequest) (*llmgateway.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}
func (f *fakeLLMProvider) Stream(ctx context.Context, req *llmgateway.ChatRequest) (<-chan llmgateway.StreamChunk, error) {
	ch := make(chan llmgateway.StreamChunk)
	close(ch)
	return ch, nil
}
func (f *fakeLLMProvider) Available(ctx context.Context) bool        { return f.available }
func (f *fakeLLMProvider) Name() string                              { return f.name }
func (f *fakeLLMProvider) Cost() llmgateway.CostOrdinal               { return f.cost }
func (f *fakeLLMProvider) Quality() llmgateway.QualityOrdinal         { return f.quality }

func TestProvidersHandler_ListsBothRegistries(t *testing.T) {
	searchReg := search.NewRegistry()
	searchReg.Register(fakeSearchProvider{name: "whoogle"})
	searchReg.Register(fakeSearchProvider{name: "arxiv"})

	llmReg := llmgateway.NewRegistry()
	llmReg.Register(&fakeLLMProvider{name: "openai", available: true, cost: llmgateway.CostMedium, quality: llmgateway.QualityHigh})

	h := NewProvidersHandler(searchReg, llmReg, nil)

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var payload providersResponse
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Len(t, payload.SearchProviders, 2)
	require.Len(t, payload.LLMProviders, 1)
	assert.Equal(t, "openai", payload.LLMProviders[0].Name)
	assert.True(t, payload.LLMProviders[0].Available)
}

func TestProvidersHandler_EmptyRegistriesReturnEmptyLists(t *testing.T) {
	h := NewProvidersHandler(search.NewRegistry(), llmgateway.NewRegistry(), nil)

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
