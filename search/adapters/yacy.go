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

// YaCy queries a distributed P2P YaCy peer via its Solr-compatible
// yacysearch.json endpoint.
type YaCy struct {
	base
}

func NewYaCy(baseURL string, weight float64, logger *zap.Logger) *YaCy {
	return &YaCy{base: newBase("yacy", baseURL, "", weight, logger)}
}

type yacyResponse struct {
	Channels []struct {
		Items []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Description string `json:"description"`
			PubDate     string `json:"pubDate"`
		} `json:"items"`
	} `json:"channels"`
}

func (y *YaCy) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/yacysearch.json?query=%s", strings.TrimRight(y.baseURL, "/"), url.QueryEscape(query))

	body, err := y.get(ctx, endpoint, timeout)
	if err != nil {
		y.logFailure("query", err)
		return nil, err
	}

	var parsed yacyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		y.logFailure("parse", err)
		return nil, fmt.Errorf("yacy: decode response: %w", err)
	}

	var results []types.SearchResult
	for _, ch := range parsed.Channels {
		for _, item := range ch.Items {
			if item.Link == "" {
				continue
			}
			results = append(results, types.SearchResult{
				Title:         item.Title,
				URL:           item.Link,
				Description:   item.Description,
				Provider:      "yacy",
				Confidence:    y.weight,
				PublishedDate: parseLooseDate(item.PubDate),
			})
		}
	}
	return results, nil
}
