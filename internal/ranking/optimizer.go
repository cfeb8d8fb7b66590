// Package ranking turns a topic into optimized search queries and raw
// search hits into ranked, domain-diverse learning resources.
//
// Both Optimize and Rank are pure functions of their inputs: identical
// inputs always produce identical, identically-ordered output, and
// neither touches shared mutable state.
package ranking

import (
	"strings"

	"github.com/TianxingChang/Kairos-sub000/internal/vocab"
)

// maxQueries caps how many alternative query strings Optimize produces.
const maxQueries = 5

// QueryOptions configures query optimization.
type QueryOptions struct {
	// MaxQueries limits the number of queries returned; values outside
	// (0, 5] fall back to 5.
	MaxQueries int
}

// Optimize produces an ordered list of alternative search-query strings
// for a topic: role-modified variants first (tutorial, documentation,
// video course), programming-specific phrasing when the topic is a known
// technology, and the bare topic last. The list is de-duplicated while
// preserving priority order.
func Optimize(topic string, opts QueryOptions) []string {
	base := strings.Join(strings.Fields(topic), " ")
	if base == "" {
		return nil
	}

	limit := opts.MaxQueries
	if limit <= 0 || limit > maxQueries {
		limit = maxQueries
	}

	candidates := []string{
		base + " tutorial",
		base + " documentation",
		base + " video course",
	}
	if vocab.IsTechnology(base) {
		candidates = append(candidates, "learn "+base+" programming")
	}
	candidates = append(candidates, base)

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, limit)
	for _, q := range candidates {
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, q)
		if len(queries) == limit {
			break
		}
	}
	return queries
}
