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

// SearXNG queries a self-hosted SearXNG meta-search instance via its JSON
// API (?format=json).
type SearXNG struct {
	base
}

func NewSearXNG(baseURL string, weight float64, logger *zap.Logger) *SearXNG {
	return &SearXNG{base: newBase("searxng", baseURL, "", weight, logger)}
}

type searxngResponse struct {
	Results []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		Content   string `json:"content"`
		PublishedDate string `json:"publishedDate"`
	} `json:"results"`
}

func (s *SearXNG) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", strings.TrimRight(s.baseURL, "/"), url.QueryEscape(query))

	body, err := s.get(ctx, endpoint, timeout)
	if err != nil {
		s.logFailure("query", err)
		return nil, err
	}

	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		s.logFailure("parse", err)
		return nil, fmt.Errorf("searxng: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Description:   r.Content,
			Provider:      "searxng",
			Confidence:    s.weight,
			PublishedDate: parseLooseDate(r.PublishedDate),
		})
	}
	return results, nil
}
