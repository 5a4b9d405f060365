package adapters

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Trafexofive/DeepSearchStack/types"
	"go.uber.org/zap"
)

// ArXiv queries the arXiv export API, which returns an Atom XML feed.
type ArXiv struct {
	base
}

func NewArXiv(baseURL string, weight float64, logger *zap.Logger) *ArXiv {
	return &ArXiv{base: newBase("arxiv", baseURL, "", weight, logger)}
}

// arxivFeed mirrors the Atom feed shape with the "atom:"/"arxiv:" namespace
// prefixes stripped, since encoding/xml matches local names regardless of
// the declared namespace URI.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	ID        string `xml:"id"`
	Links     []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
}

func (a *ArXiv) Query(ctx context.Context, query string, timeout time.Duration) ([]types.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/api/query?search_query=all:%s&max_results=10",
		strings.TrimRight(a.baseURL, "/"), url.QueryEscape(query))

	body, err := a.get(ctx, endpoint, timeout)
	if err != nil {
		a.logFailure("query", err)
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		a.logFailure("parse", err)
		return nil, fmt.Errorf("arxiv: decode response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		link := entry.ID
		for _, l := range entry.Links {
			if l.Rel == "alternate" && l.Href != "" {
				link = l.Href
				break
			}
		}
		if link == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:         collapseWhitespace(entry.Title),
			URL:           link,
			Description:   collapseWhitespace(entry.Summary),
			Provider:      "arxiv",
			Confidence:    a.weight,
			PublishedDate: parseLooseDate(strings.TrimSpace(entry.Published)),
		})
	}
	return results, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
