package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// Scraper bounds concurrent crawler dispatch to the first K ranked results
// and filters out failed or too-short fetches.
type Scraper struct {
	crawler Crawler
	cfg     config.ScrapingConfig
	logger  *zap.Logger
}

// NewScraper builds a Scraper dispatching through crawler per cfg.
func NewScraper(crawler Crawler, cfg config.ScrapingConfig, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{crawler: crawler, cfg: cfg, logger: logger}
}

// Run scrapes the first K of results, K = min(len(results), cfg.MaxScrapeURLs),
// with concurrency bounded by a semaphore of size cfg.Concurrency. Each call
// carries its own timeout. Failed fetches and content below
// cfg.MinContentLength are dropped. The returned order follows completion
// order, not input order, per spec.
func (s *Scraper) Run(ctx context.Context, results []types.SearchResult) []types.ScrapedContent {
	if !s.cfg.Enabled || len(results) == 0 {
		return nil
	}

	k := s.cfg.MaxScrapeURLs
	if k <= 0 || k > len(results) {
		k = len(results)
	}
	targets := results[:k]

	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var (
		mu  sync.Mutex
		out []types.ScrapedContent
		wg  sync.WaitGroup
	)

	for _, r := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context already done; no point starting further fetches.
			break
		}

		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			defer sem.Release(1)

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			content, err := s.crawler.Crawl(callCtx, url, s.cfg.ExtractionStrategy)
			if err != nil {
				s.logger.Debug("crawl call errored", zap.String("url", url), zap.Error(err))
				return
			}
			if !content.Success {
				return
			}
			if content.WordCount == 0 {
				content.WordCount = wordCount(content.Content)
			}
			if len(content.Content) < s.cfg.MinContentLength {
				return
			}

			mu.Lock()
			out = append(out, content)
			mu.Unlock()
		}(r.URL)
	}

	wg.Wait()
	return out
}
