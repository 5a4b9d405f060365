// Package pipeline implements the orchestrated stages between a ranked
// search result set and a synthesized answer: scrape, chunk+embed,
// retrieve, and synthesis.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/types"
)

// Crawler is the opaque URL-to-content collaborator the scrape stage
// dispatches to; this process never re-implements extraction logic.
type Crawler interface {
	Crawl(ctx context.Context, url, extractionStrategy string) (types.ScrapedContent, error)
}

// HTTPCrawler speaks the crawler's documented POST /crawl contract,
// grounded on search/adapters/base.go's shared-client/timeout-as-context
// idiom.
type HTTPCrawler struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPCrawler builds a crawler client against baseURL.
func NewHTTPCrawler(baseURL string, logger *zap.Logger) *HTTPCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCrawler{baseURL: baseURL, client: &http.Client{}, logger: logger}
}

type crawlRequest struct {
	URL                string `json:"url"`
	ExtractionStrategy string `json:"extraction_strategy,omitempty"`
}

type crawlResponse struct {
	URL            string            `json:"url"`
	Content        string            `json:"content"`
	ExtractedData  map[string]string `json:"extracted_data,omitempty"`
	Success        bool              `json:"success"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

// Crawl issues one POST /crawl call. A transport failure or non-2xx status
// is returned as a ScrapedContent with Success=false rather than an error,
// so the scrape stage's per-URL semaphore loop never needs special-case
// handling for crawler-level failures versus content-level ones.
func (c *HTTPCrawler) Crawl(ctx context.Context, url, extractionStrategy string) (types.ScrapedContent, error) {
	body, err := json.Marshal(crawlRequest{URL: url, ExtractionStrategy: extractionStrategy})
	if err != nil {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: err.Error()}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawl", bytes.NewReader(body))
	if err != nil {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("crawl request failed", zap.String("url", url), zap.Error(err))
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: err.Error()}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: err.Error()}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: fmt.Sprintf("crawler status %d", resp.StatusCode)}, nil
	}

	var decoded crawlResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: err.Error()}, nil
	}
	if !decoded.Success {
		return types.ScrapedContent{URL: url, Success: false, ErrorMessage: decoded.ErrorMessage}, nil
	}

	title := decoded.ExtractedData["title"]
	return types.ScrapedContent{
		URL:       url,
		Title:     title,
		Content:   decoded.Content,
		WordCount: wordCount(decoded.Content),
		Success:   true,
	}, nil
}

func wordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
