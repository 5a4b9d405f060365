package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Trafexofive/DeepSearchStack/types"
	"go.uber.org/zap"
)

// Brave queries the Brave Search API, which requires a subscription key.
// Query is total: with no key configured it returns an empty result set
// rather than erroring, so an optional provider left unconfigured is
// silently skipped by the fan-out layer instead of failing it.
type Brave struct {
	base
}

func NewBrave(baseURL, apiKey string, weight float64, logger *zap.Logger) *Brave {
	return &Brave{base: newBase("brave", baseURL, apiKey, weight, logger)}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *Brave) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	if b.apiKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/res/v1/web/search?q=%s", strings.TrimRight(b.baseURL, "/"), url.QueryEscape(query))
	body, err := b.getAuthed(ctx, endpoint, timeout, func(req *http.Request) {
		req.Header.Set("X-Subscription-Token", b.apiKey)
	})
	if err != nil {
		b.logFailure("query", err)
		return nil, err
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		b.logFailure("parse", err)
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Provider:    "brave",
			Confidence:  b.weight,
		})
	}
	return results, nil
}

// Qwant queries the Qwant API, which also requires a key for sustained use.
type Qwant struct {
	base
}

func NewQwant(baseURL, apiKey string, weight float64, logger *zap.Logger) *Qwant {
	return &Qwant{base: newBase("qwant", baseURL, apiKey, weight, logger)}
}

type qwantResponse struct {
	Data struct {
		Result struct {
			Items []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
				Desc  string `json:"desc"`
			} `json:"items"`
		} `json:"result"`
	} `json:"data"`
}

func (q *Qwant) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	if q.apiKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v3/search/web?q=%s&count=10", strings.TrimRight(q.baseURL, "/"), url.QueryEscape(query))
	body, err := q.getAuthed(ctx, endpoint, timeout, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+q.apiKey)
	})
	if err != nil {
		q.logFailure("query", err)
		return nil, err
	}

	var parsed qwantResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		q.logFailure("parse", err)
		return nil, fmt.Errorf("qwant: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Data.Result.Items))
	for _, item := range parsed.Data.Result.Items {
		if item.URL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:       item.Title,
			URL:         item.URL,
			Description: item.Desc,
			Provider:    "qwant",
			Confidence:  q.weight,
		})
	}
	return results, nil
}

// GoogleCSE queries Google's Programmable Search Engine API, which requires
// both an API key and a search-engine ID.
type GoogleCSE struct {
	base
	cseID string
}

func NewGoogleCSE(baseURL, apiKey, cseID string, weight float64, logger *zap.Logger) *GoogleCSE {
	return &GoogleCSE{base: newBase("googlecse", baseURL, apiKey, weight, logger), cseID: cseID}
}

type googleCSEResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (g *GoogleCSE) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	if g.apiKey == "" || g.cseID == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s?key=%s&cx=%s&q=%s",
		strings.TrimRight(g.baseURL, "/"), url.QueryEscape(g.apiKey), url.QueryEscape(g.cseID), url.QueryEscape(query))

	body, err := g.get(ctx, endpoint, timeout)
	if err != nil {
		g.logFailure("query", err)
		return nil, err
	}

	var parsed googleCSEResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		g.logFailure("parse", err)
		return nil, fmt.Errorf("googlecse: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Snippet,
			Provider:    "googlecse",
			Confidence:  g.weight,
		})
	}
	return results, nil
}
