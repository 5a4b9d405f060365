package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Trafexofive/DeepSearchStack/types"
	"go.uber.org/zap"
)

// Whoogle queries a self-hosted Whoogle (Google-proxy) instance via its
// JSON API (?format=json) — despite serving rendered HTML to browsers,
// Whoogle's search endpoint returns structured JSON the same shape as
// SearXNG's when asked for it.
type Whoogle struct {
	base
}

// NewWhoogle builds a Whoogle adapter against baseURL (e.g. http://localhost:5000).
func NewWhoogle(baseURL string, weight float64, logger *zap.Logger) *Whoogle {
	return &Whoogle{base: newBase("whoogle", baseURL, "", weight, logger)}
}

type whoogleResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

func (w *Whoogle) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", strings.TrimRight(w.baseURL, "/"), url.QueryEscape(query))

	body, err := w.get(ctx, endpoint, timeout)
	if err != nil {
		w.logFailure("query", err)
		return nil, err
	}

	var parsed whoogleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		w.logFailure("parse", err)
		return nil, fmt.Errorf("whoogle: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Snippet,
			Provider:    "whoogle",
			Confidence:  w.weight,
		})
	}
	return results, nil
}
