package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	weight float64
}

func (s stubProvider) Query(ctx context.Context, query string, timeout time.Duration) ([]Result, error) {
	return []Result{{Title: query, URL: "https://example.com/" + s.name, Provider: s.name, Confidence: s.weight}}, nil
}
func (s stubProvider) Name() string    { return s.name }
func (s stubProvider) Weight() float64 { return s.weight }

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "whoogle", weight: 0.8})

	p, ok := reg.Get("whoogle")
	require.True(t, ok)
	assert.Equal(t, "whoogle", p.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "searxng"})
	reg.Register(stubProvider{name: "arxiv"})
	reg.Register(stubProvider{name: "whoogle"})

	assert.Equal(t, []string{"arxiv", "searxng", "whoogle"}, reg.List())
}

func TestRegistry_ResolveEmptySubsetReturnsAll(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "a"})
	reg.Register(stubProvider{name: "b"})

	resolved, err := reg.Resolve(nil)
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
}

func TestRegistry_ResolveNamedSubset(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "a"})
	reg.Register(stubProvider{name: "b"})
	reg.Register(stubProvider{name: "c"})

	resolved, err := reg.Resolve([]string{"a", "c"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "a", resolved[0].Name())
	assert.Equal(t, "c", resolved[1].Name())
}

func TestRegistry_ResolveUnknownProviderReturnsError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "a"})

	resolved, err := reg.Resolve([]string{"a", "nonexistent"})
	require.Error(t, err)
	assert.Len(t, resolved, 1, "known providers still resolved alongside the error")
}

func TestRegistry_RegisterReplacesSameName(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "a"})
	require.Equal(t, 1, reg.Len())

	reg.Register(stubProvider{name: "a", weight: 0.5})
	assert.Equal(t, 1, reg.Len(), "re-registering the same name replaces, not duplicates")
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubProvider{name: "a"})
	reg.Register(stubProvider{name: "b"})

	reg.Unregister("a")
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Get("a")
	assert.False(t, ok)
}
