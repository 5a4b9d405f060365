// Package search provides the provider registry and fan-out layer that
// queries heterogeneous web-search back-ends and normalizes their results
// into a common schema.
package search

import "github.com/Trafexofive/DeepSearchStack/types"

// Re-export the shared search types so callers only need to import
// the search package, not types directly, mirroring how the llm package
// re-exports its own domain types.
type (
	Query      = types.SearchQuery
	Result     = types.SearchResult
	SortMethod = types.SearchSortMethod
)

const (
	SortRelevance     = types.SearchSortRelevance
	SortDate          = types.SearchSortDate
	SortSourceQuality = types.SearchSortSourceQuality
)
