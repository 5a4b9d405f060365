package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrave_QueryWithoutKeyReturnsEmpty(t *testing.T) {
	b := NewBrave("http://unused.invalid", "", 0.8, nil)
	results, err := b.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBrave_QueryAttachesSubscriptionHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("X-Subscription-Token"))
		w.Write([]byte(`{"web":{"results":[{"title":"t","url":"https://example.com","description":"d"}]}}`))
	}))
	defer server.Close()

	b := NewBrave(server.URL, "secret-key", 0.8, nil)
	results, err := b.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "brave", results[0].Provider)
}

func TestQwant_QueryWithoutKeyReturnsEmpty(t *testing.T) {
	q := NewQwant("http://unused.invalid", "", 0.7, nil)
	results, err := q.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGoogleCSE_QueryWithoutKeyOrCSEIDReturnsEmpty(t *testing.T) {
	g := NewGoogleCSE("http://unused.invalid", "", "", 0.85, nil)
	results, err := g.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	assert.Empty(t, results)

	g2 := NewGoogleCSE("http://unused.invalid", "key-only", "", 0.85, nil)
	results2, err2 := g2.Query(context.Background(), "q", time.Second)
	require.NoError(t, err2)
	assert.Empty(t, results2)
}

func TestGoogleCSE_QueryWithCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "cx", r.URL.Query().Get("cx"))
		w.Write([]byte(`{"items":[{"title":"t","link":"https://example.com","snippet":"s"}]}`))
	}))
	defer server.Close()

	g := NewGoogleCSE(server.URL, "k", "cx", 0.85, nil)
	results, err := g.Query(context.Background(), "q", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "googlecse", results[0].Provider)
}
