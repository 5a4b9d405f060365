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

// DuckDuckGo queries the instant-answer API (api.duckduckgo.com/?format=json).
// It has no general web-result list; results come from the abstract and the
// related-topics list.
type DuckDuckGo struct {
	base
}

func NewDuckDuckGo(baseURL string, weight float64, logger *zap.Logger) *DuckDuckGo {
	return &DuckDuckGo{base: newBase("duckduckgo", baseURL, "", weight, logger)}
}

type duckDuckGoResponse struct {
	AbstractText string `json:"AbstractText"`
	AbstractURL  string `json:"AbstractURL"`
	Heading      string `json:"Heading"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		strings.TrimRight(d.baseURL, "/"), url.QueryEscape(query))

	body, err := d.get(ctx, endpoint, timeout)
	if err != nil {
		d.logFailure("query", err)
		return nil, err
	}

	var parsed duckDuckGoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		d.logFailure("parse", err)
		return nil, fmt.Errorf("duckduckgo: decode response: %w", err)
	}

	var results []types.SearchResult
	if parsed.AbstractURL != "" {
		results = append(results, types.SearchResult{
			Title:       parsed.Heading,
			URL:         parsed.AbstractURL,
			Description: parsed.AbstractText,
			Provider:    "duckduckgo",
			Confidence:  d.weight,
		})
	}
	for _, topic := range parsed.RelatedTopics {
		if topic.FirstURL == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:       firstSentence(topic.Text),
			URL:         topic.FirstURL,
			Description: topic.Text,
			Provider:    "duckduckgo",
			Confidence:  d.weight * 0.8, // related topics rank below the direct abstract
		})
	}
	return results, nil
}

func firstSentence(s string) string {
	if idx := strings.Index(s, " - "); idx > 0 {
		return s[:idx]
	}
	return s
}
