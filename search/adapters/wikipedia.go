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

// Wikipedia queries the Wikipedia REST search API
// (/w/rest.php/v1/search/page).
type Wikipedia struct {
	base
}

func NewWikipedia(baseURL string, weight float64, logger *zap.Logger) *Wikipedia {
	return &Wikipedia{base: newBase("wikipedia", baseURL, "", weight, logger)}
}

type wikipediaResponse struct {
	Pages []struct {
		Title       string `json:"title"`
		Key         string `json:"key"`
		Excerpt     string `json:"excerpt"`
		Description string `json:"description"`
	} `json:"pages"`
}

func (w *Wikipedia) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/w/rest.php/v1/search/page?q=%s&limit=10",
		strings.TrimRight(w.baseURL, "/"), url.QueryEscape(query))

	body, err := w.get(ctx, endpoint, timeout)
	if err != nil {
		w.logFailure("query", err)
		return nil, err
	}

	var parsed wikipediaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		w.logFailure("parse", err)
		return nil, fmt.Errorf("wikipedia: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(parsed.Pages))
	for _, p := range parsed.Pages {
		if p.Key == "" {
			continue
		}
		desc := p.Description
		if desc == "" {
			desc = stripHTMLTags(p.Excerpt)
		}
		results = append(results, types.SearchResult{
			Title:       p.Title,
			URL:         fmt.Sprintf("%s/wiki/%s", strings.TrimRight(w.baseURL, "/"), url.PathEscape(p.Key)),
			Description: desc,
			Provider:    "wikipedia",
			Confidence:  w.weight,
		})
	}
	return results, nil
}

// stripHTMLTags removes the <span class="searchmatch">...</span> markup
// Wikipedia's excerpt field embeds around matched terms.
func stripHTMLTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
