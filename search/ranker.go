package search

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/Trafexofive/DeepSearchStack/types"
)

// tokenPattern splits on runs of non-alphanumeric characters; tokens are
// lowercased, matching the simple bag-of-words TF-IDF treatment below.
var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

func tokenize(s string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(s), -1)
	return matches
}

// Ranker scores and orders fan-out results by relevance, recency, or source
// quality.
type Ranker struct {
	// authority maps a host or second-level domain to its static authority
	// score in [0,1]. Exact host is tried first, then the second-level
	// domain (e.g. "docs.python.org" falls back to "python.org"); absent
	// entries default to 0.5.
	authority map[string]float64
}

// NewRanker builds a Ranker over an authority table. A nil table uses
// DefaultDomainAuthority.
func NewRanker(authority map[string]float64) *Ranker {
	if authority == nil {
		authority = DefaultDomainAuthority()
	}
	return &Ranker{authority: authority}
}

// DefaultDomainAuthority is a small static table of well-known reference,
// documentation, and Q&A domains. It is a placeholder for a real authority
// signal (backlink graph, traffic rank) this deployment doesn't have access
// to; everything else falls back to the 0.5 default.
func DefaultDomainAuthority() map[string]float64 {
	return map[string]float64{
		"wikipedia.org":     0.95,
		"arxiv.org":         0.9,
		"github.com":        0.85,
		"stackoverflow.com": 0.85,
		"python.org":        0.9,
		"go.dev":            0.9,
		"golang.org":        0.9,
		"mozilla.org":       0.85,
		"w3.org":            0.85,
		"ietf.org":          0.85,
		"nature.com":        0.88,
		"ncbi.nlm.nih.gov":  0.9,
		"reddit.com":        0.55,
		"medium.com":        0.6,
		"quora.com":         0.5,
	}
}

// DomainAuthority looks up host's authority: exact match, then second-level
// domain, then the 0.5 default.
func (r *Ranker) DomainAuthority(host string) float64 {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if v, ok := r.authority[host]; ok {
		return v
	}
	if sld := secondLevelDomain(host); sld != host {
		if v, ok := r.authority[sld]; ok {
			return v
		}
	}
	return 0.5
}

// secondLevelDomain returns the last two labels of host (e.g.
// "docs.python.org" -> "python.org"); hosts with fewer than two labels are
// returned unchanged.
func secondLevelDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// Rank scores every result against query via TF-IDF cosine similarity (the
// result set is the TF-IDF corpus) blended with domain authority, sorts per
// method, and assigns 1..N ranks in place. The input slice is sorted and
// returned; callers should not rely on the pre-Rank order surviving.
func (r *Ranker) Rank(query string, results []types.SearchResult, method types.SearchSortMethod) []types.SearchResult {
	if len(results) == 0 {
		return results
	}

	docs := make([][]string, len(results))
	for i, res := range results {
		docs[i] = tokenize(res.Title + " " + res.Description)
	}
	idf := buildIDF(docs)
	queryVec := termFreq(tokenize(query))

	for i := range results {
		docVec := termFreq(docs[i])
		cosine := cosineTFIDF(queryVec, docVec, idf)

		host := ""
		if u, err := url.Parse(results[i].URL); err == nil {
			host = u.Hostname()
		}
		da := r.DomainAuthority(host)

		results[i].DomainAuthority = da
		results[i].Score = 0.7*cosine + 0.3*da
	}

	sortResults(results, method)

	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func sortResults(results []types.SearchResult, method types.SearchSortMethod) {
	switch method {
	case types.SearchSortDate:
		sort.SliceStable(results, func(i, j int) bool {
			di, dj := results[i].PublishedDate, results[j].PublishedDate
			if !di.Equal(dj) {
				return di.After(dj)
			}
			return results[i].Score > results[j].Score
		})
	case types.SearchSortSourceQuality:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].DomainAuthority != results[j].DomainAuthority {
				return results[i].DomainAuthority > results[j].DomainAuthority
			}
			return results[i].Score > results[j].Score
		})
	default: // types.SearchSortRelevance and unset
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
}

// buildIDF computes inverse document frequency over docs using add-one
// smoothing (idf = ln(N/(df+1)) + 1), so the weight is finite for every
// term that occurs in the corpus. Terms outside the corpus get no entry.
func buildIDF(docs [][]string) map[string]float64 {
	n := float64(len(docs))
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(n/(float64(count)+1)) + 1
	}
	return idf
}

// termFreq returns raw term counts; cosine similarity is scale-invariant so
// no normalization by document length is needed.
func termFreq(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// cosineTFIDF computes cosine similarity between a query's raw term
// frequencies and a document's, weighting each shared term by idf (terms
// absent from idf, i.e. novel to the query, get a weight of 1).
func cosineTFIDF(query, doc map[string]int, idf map[string]float64) float64 {
	weight := func(term string, count int) float64 {
		w, ok := idf[term]
		if !ok {
			w = 1 // neutral weight for a term absent from both idf and the corpus
		}
		return float64(count) * w
	}

	var dot, qNorm, dNorm float64
	for term, qc := range query {
		qw := weight(term, qc)
		qNorm += qw * qw
		if dc, ok := doc[term]; ok {
			dot += qw * weight(term, dc)
		}
	}
	for term, dc := range doc {
		dw := weight(term, dc)
		dNorm += dw * dw
	}

	if qNorm == 0 || dNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(qNorm) * math.Sqrt(dNorm))
}
