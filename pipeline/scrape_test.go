package pipeline

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/types"
)

type fakeCrawler struct {
	inFlight  int64
	maxInFlight int64
	delay     time.Duration
	fail      map[string]bool
	short     map[string]bool
}

func (f *fakeCrawler) Crawl(ctx context.Context, url, strategy string) (types.ScrapedContent, error) {
	n := atomic.AddInt64(&f.inFlight, 1)
	for {
		max := atomic.LoadInt64(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt64(&f.maxInFlight, max, n) {
			break
		}
	}
	defer atomic.AddInt64(&f.inFlight, -1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return types.ScrapedContent{}, ctx.Err()
		}
	}

	if f.fail != nil && f.fail[url] {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: "boom"}, nil
	}

	content := strings.Repeat("this is plenty of scraped content to pass the minimum length filter check. ", 4)
	if f.short != nil && f.short[url] {
		content = "short"
	}
	return types.ScrapedContent{URL: url, Content: content, Success: true, WordCount: wordCount(content)}, nil
}

func resultsWithURLs(urls ...string) []types.SearchResult {
	out := make([]types.SearchResult, len(urls))
	for i, u := range urls {
		out[i] = types.SearchResult{URL: u}
	}
	return out
}

func TestScraper_FiltersFailedFetches(t *testing.T) {
	crawler := &fakeCrawler{fail: map[string]bool{"https://b": true}}
	cfg := config.DefaultScrapingConfig()
	s := NewScraper(crawler, cfg, nil)

	out := s.Run(context.Background(), resultsWithURLs("https://a", "https://b"))
	require.Len(t, out, 1)
	assert.Equal(t, "https://a", out[0].URL)
}

func TestScraper_FiltersContentBelowMinLength(t *testing.T) {
	crawler := &fakeCrawler{short: map[string]bool{"https://b": true}}
	cfg := config.DefaultScrapingConfig()
	cfg.MinContentLength = 20
	s := NewScraper(crawler, cfg, nil)

	out := s.Run(context.Background(), resultsWithURLs("https://a", "https://b"))
	require.Len(t, out, 1)
	assert.Equal(t, "https://a", out[0].URL)
}

func TestScraper_CapsAtMaxScrapeURLs(t *testing.T) {
	crawler := &fakeCrawler{}
	cfg := config.DefaultScrapingConfig()
	cfg.MaxScrapeURLs = 2
	s := NewScraper(crawler, cfg, nil)

	out := s.Run(context.Background(), resultsWithURLs("https://a", "https://b", "https://c"))
	assert.Len(t, out, 2)
}

func TestScraper_BoundsConcurrencyBySemaphore(t *testing.T) {
	crawler := &fakeCrawler{delay: 30 * time.Millisecond}
	cfg := config.DefaultScrapingConfig()
	cfg.Concurrency = 2
	cfg.MaxScrapeURLs = 6
	s := NewScraper(crawler, cfg, nil)

	out := s.Run(context.Background(), resultsWithURLs("https://a", "https://b", "https://c", "https://d", "https://e", "https://f"))
	assert.Len(t, out, 6)
	assert.LessOrEqual(t, atomic.LoadInt64(&crawler.maxInFlight), int64(2))
}

func TestScraper_DisabledReturnsNil(t *testing.T) {
	crawler := &fakeCrawler{}
	cfg := config.DefaultScrapingConfig()
	cfg.Enabled = false
	s := NewScraper(crawler, cfg, nil)

	out := s.Run(context.Background(), resultsWithURLs("https://a"))
	assert.Nil(t, out)
}

func TestScraper_EmptyResultsReturnsNil(t *testing.T) {
	s := NewScraper(&fakeCrawler{}, config.DefaultScrapingConfig(), nil)
	out := s.Run(context.Background(), nil)
	assert.Nil(t, out)
}
