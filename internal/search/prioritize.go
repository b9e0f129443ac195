package search

import (
	"sort"

	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

// Prioritize deduplicates results by URL, moves official-domain sources to
// the front, and truncates to max. Ordering within each tier is stable so
// the upstream relevance ranking is preserved.
func Prioritize(tech string, results []pipeline.SearchResult, max int) []pipeline.SearchResult {
	seen := make(map[string]struct{}, len(results))
	deduped := make([]pipeline.SearchResult, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return IsOfficialSource(tech, deduped[i].URL) && !IsOfficialSource(tech, deduped[j].URL)
	})

	if max > 0 && len(deduped) > max {
		deduped = deduped[:max]
	}
	return deduped
}
