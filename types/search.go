package types

import "time"

// SearchSortMethod selects how a caller wants fan-out results ordered.
type SearchSortMethod string

const (
	SearchSortRelevance     SearchSortMethod = "relevance"
	SearchSortDate          SearchSortMethod = "date"
	SearchSortSourceQuality SearchSortMethod = "source-quality"
)

// SearchQuery is a normalized search request handed to the fan-out layer.
type SearchQuery struct {
	Text       string
	Providers  []string // empty means "all enabled providers"
	MaxResults int
	Sort       SearchSortMethod
	Timeout    time.Duration
}

// SearchResult is one normalized hit from a search back-end, before or
// after ranking. URL is the deduplication identity key; a SearchResult with
// an empty URL is discarded by the fan-out layer's dedup pass.
type SearchResult struct {
	Title           string
	URL             string
	Description     string
	Provider        string
	Confidence      float64 // ∈ [0,1], the originating provider's static weight
	Score           float64 // final ranked score: 0.7·tfidf_cosine + 0.3·domain_authority
	Rank            int     // assigned post-sort by the ranker; 0 means unranked
	DomainAuthority float64 // ∈ [0,1], looked up by host during ranking; 0.5 default
	PublishedDate   time.Time
}
