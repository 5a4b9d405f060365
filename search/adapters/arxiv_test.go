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

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <published>2024-01-01T00:00:00Z</published>
    <title>
      Attention   Is All You Need Again
    </title>
    <summary>A survey of   transformer variants.</summary>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <published>2024-02-01T00:00:00Z</published>
    <title>Diffusion models</title>
    <summary>Generative modeling notes.</summary>
  </entry>
</feed>`

func TestArXiv_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "search_query=all%3A")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivFeedXML))
	}))
	defer server.Close()

	a := NewArXiv(server.URL, 0.85, nil)
	results, err := a.Query(context.Background(), "transformers", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Attention Is All You Need Again", results[0].Title)
	assert.Equal(t, "http://arxiv.org/abs/2401.00001v1", results[0].URL)
	assert.Equal(t, "A survey of transformer variants.", results[0].Description)
	assert.Equal(t, "arxiv", results[0].Provider)
	assert.Equal(t, 0.85, results[0].Confidence)
	assert.Equal(t, 2024, results[0].PublishedDate.Year())

	// second entry has no alternate link; falls back to the <id> as URL.
	assert.Equal(t, "http://arxiv.org/abs/2401.00002v1", results[1].URL)
}

func TestArXiv_QueryPropagatesTransportError(t *testing.T) {
	a := NewArXiv("http://127.0.0.1:1", 0.85, nil)
	results, err := a.Query(context.Background(), "x", 50*time.Millisecond)
	assert.Error(t, err)
	assert.Empty(t, results)
}
