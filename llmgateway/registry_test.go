package llmgateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGatewayProvider struct {
	name    string
	cost    CostOrdinal
	quality QualityOrdinal
}

func (s *stubGatewayProvider) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Provider: s.name}, nil
}
func (s *stubGatewayProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	close(ch)
	return ch, nil
}
func (s *stubGatewayProvider) Available(ctx context.Context) bool { return true }
func (s *stubGatewayProvider) Name() string                       { return s.name }
func (s *stubGatewayProvider) Cost() CostOrdinal                  { return s.cost }
func (s *stubGatewayProvider) Quality() QualityOrdinal            { return s.quality }

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubGatewayProvider{name: "a"})

	p, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Name())
}

func TestRegistry_ListIsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubGatewayProvider{name: "zeta"})
	reg.Register(&stubGatewayProvider{name: "alpha"})

	assert.Equal(t, []string{"alpha", "zeta"}, reg.List())
}

func TestRegistry_AllMatchesListOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubGatewayProvider{name: "zeta"})
	reg.Register(&stubGatewayProvider{name: "alpha"})

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "zeta", all[1].Name())
}

func TestRegistry_DefaultRequiresSetDefault(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubGatewayProvider{name: "a"})

	_, err := reg.Default()
	assert.Error(t, err)

	require.NoError(t, reg.SetDefault("a"))
	p, err := reg.Default()
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name())
}

func TestRegistry_SetDefaultUnknownProviderErrors(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.SetDefault("nonexistent"))
}

func TestRegistry_Len(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Len())
	reg.Register(&stubGatewayProvider{name: "a"})
	assert.Equal(t, 1, reg.Len())
}
