// Package adapters implements search.Provider for each supported back-end:
// a Google-proxy (Whoogle), a meta-search engine (SearXNG), a distributed
// P2P engine (YaCy), Wikipedia, DuckDuckGo's instant-answer API,
// StackExchange, arXiv, and the optional key-gated engines (Brave, Qwant,
// Google Programmable Search).
package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// base holds what every HTTP-backed adapter needs: identity, endpoint,
// static confidence weight, and a shared client/logger. Concrete adapters
// embed it and implement their own request-building and response-parsing.
type base struct {
	name    string
	baseURL string
	apiKey  string
	weight  float64
	client  *http.Client
	logger  *zap.Logger
}

func newBase(name, baseURL, apiKey string, weight float64, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		weight:  weight,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (b base) Name() string    { return b.name }
func (b base) Weight() float64 { return b.weight }

// get issues a GET request against url with the given timeout and returns
// the raw response body. Any failure (transport error, non-2xx status) is
// returned as a plain error for the caller to fold into an empty result set.
func (b base) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	return b.getAuthed(ctx, url, timeout, nil)
}

// getAuthed is get with an optional decorator applied to the request before
// it is sent, used by the key-gated adapters to attach auth headers.
func (b base) getAuthed(ctx context.Context, url string, timeout time.Duration, decorate func(*http.Request)) ([]byte, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", b.name, err)
	}
	req.Header.Set("Accept", "application/json, text/html, application/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", "DeepSearchStack/1.0 (+search-fanout)")
	if decorate != nil {
		decorate(req)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", b.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", b.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: unexpected status %d", b.name, resp.StatusCode)
	}
	return body, nil
}

// logFailure records a recoverable per-provider failure; the caller still
// returns (nil, err) to its own caller, never a panic.
func (b base) logFailure(op string, err error) {
	b.logger.Warn("search provider call failed",
		zap.String("provider", b.name),
		zap.String("op", op),
		zap.Error(err))
}
