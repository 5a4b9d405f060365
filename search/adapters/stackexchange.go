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

// StackExchange queries the StackExchange API's /search/advanced endpoint,
// defaulting to the stackoverflow.com site.
type StackExchange struct {
	base
	site string
}

func NewStackExchange(baseURL, site string, weight float64, logger *zap.Logger) *StackExchange {
	if site == "" {
		site = "stackoverflow"
	}
	return &StackExchange{
		base: newBase("stackexchange", baseURL, "", weight, logger),
		site: site,
	}
}

type stackExchangeResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		IsAnswered  bool   `json:"is_answered"`
		Score       int    `json:"score"`
		CreationDate int64 `json:"creation_date"`
	} `json:"items"`
}

func (s *StackExchange) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search/advanced?order=desc&sort=relevance&q=%s&site=%s",
		strings.TrimRight(s.baseURL, "/"), url.QueryEscape(query), s.site)

	body, err := s.get(ctx, endpoint, timeout)
	if err != nil {
		s.logFailure("query", err)
		return nil, err
	}

	var parsed stackExchangeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		s.logFailure("parse", err)
		return nil, fmt.Errorf("stackexchange: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		confidence := s.weight
		if item.IsAnswered {
			confidence = s.weight * 1.1
			if confidence > 1 {
				confidence = 1
			}
		}
		var published time.Time
		if item.CreationDate > 0 {
			published = time.Unix(item.CreationDate, 0)
		}
		results = append(results, types.SearchResult{
			Title:         item.Title,
			URL:           item.Link,
			Provider:      "stackexchange",
			Confidence:    confidence,
			PublishedDate: published,
		})
	}
	return results, nil
}
