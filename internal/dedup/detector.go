package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

// Detector finds exact and approximate duplicates among stored items.
// It is read-only over its input and safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given configuration.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// Detect finds duplicate pairs in a snapshot of stored items. Items are
// partitioned by content type; comparisons only occur within a
// partition. Matches are symmetric: each pair is reported once, with
// item ids in input order.
func (d *Detector) Detect(items []types.StoredItem) []types.DuplicateMatch {
	var matches []types.DuplicateMatch

	partitions := make(map[string][]types.StoredItem)
	var order []string
	for _, item := range items {
		if _, seen := partitions[item.ContentType]; !seen {
			order = append(order, item.ContentType)
		}
		partitions[item.ContentType] = append(partitions[item.ContentType], item)
	}

	for _, contentType := range order {
		matches = append(matches, d.detectPartition(partitions[contentType])...)
	}
	return matches
}

func (d *Detector) detectPartition(items []types.StoredItem) []types.DuplicateMatch {
	var matches []types.DuplicateMatch

	// Exact pass: hash collisions are duplicates with similarity 1.0.
	buckets := make(map[string][]int)
	var hashOrder []string
	for i, item := range items {
		h := d.exactHash(item)
		if _, seen := buckets[h]; !seen {
			hashOrder = append(hashOrder, h)
		}
		buckets[h] = append(buckets[h], i)
	}

	exact := make(map[int]bool)
	for _, h := range hashOrder {
		bucket := buckets[h]
		if len(bucket) < 2 {
			continue
		}
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				matches = append(matches, types.DuplicateMatch{
					Item1ID:         items[bucket[i]].ItemID,
					Item2ID:         items[bucket[j]].ItemID,
					SimilarityScore: 1.0,
					MatchType:       types.MatchExact,
					Scores:          types.ComponentScores{Title: 1.0, URL: 1.0, Domain: 1.0, Tag: 1.0},
				})
			}
			exact[bucket[i]] = true
		}
	}

	// Approximate pass over the remaining unique-hash items.
	var unique []int
	for i := range items {
		if !exact[i] {
			unique = append(unique, i)
		}
	}
	for x := 0; x < len(unique); x++ {
		for y := x + 1; y < len(unique); y++ {
			if m, ok := d.compare(items[unique[x]], items[unique[y]]); ok {
				matches = append(matches, m)
			}
		}
	}
	return matches
}

// compare scores one pair of items and reports a match when the combined
// score clears the similar threshold.
func (d *Detector) compare(a, b types.StoredItem) (types.DuplicateMatch, bool) {
	scores := types.ComponentScores{
		Title:  titleSimilarity(a.Title, b.Title),
		URL:    urlSimilarity(a.OriginalURL, b.OriginalURL),
		Domain: domainSimilarity(a.OriginalURL, b.OriginalURL),
		Tag:    tagSimilarity(a.Tags, b.Tags),
	}
	combined := d.cfg.TitleWeight*scores.Title +
		d.cfg.URLWeight*scores.URL +
		d.cfg.DomainWeight*scores.Domain +
		d.cfg.TagWeight*scores.Tag

	if combined < d.cfg.SimilarThreshold {
		return types.DuplicateMatch{}, false
	}
	matchType := types.MatchSimilar
	if combined >= d.cfg.NearExactThreshold {
		matchType = types.MatchNearExact
	}
	return types.DuplicateMatch{
		Item1ID:         a.ItemID,
		Item2ID:         b.ItemID,
		SimilarityScore: combined,
		MatchType:       matchType,
		Scores:          scores,
	}, true
}

// exactHash fingerprints the identity fields of an item.
func (d *Detector) exactHash(item types.StoredItem) string {
	parts := []string{
		normalizeTitle(item.Title),
		strings.TrimSpace(item.OriginalURL),
		item.ContentType,
	}
	if d.cfg.IncludeFileSize {
		parts = append(parts, strconv.FormatInt(item.FileSizeBytes, 10))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Group clusters duplicate matches into transitive groups: it builds an
// undirected adjacency map and extracts connected components with at
// least two members. Group membership is transitive even when not all
// pairs were directly compared above threshold. Output is deterministic:
// ids are sorted within each group, and groups are sorted by their first
// member.
func Group(matches []types.DuplicateMatch) [][]string {
	adjacency := make(map[string][]string)
	for _, m := range matches {
		adjacency[m.Item1ID] = append(adjacency[m.Item1ID], m.Item2ID)
		adjacency[m.Item2ID] = append(adjacency[m.Item2ID], m.Item1ID)
	}

	nodes := make([]string, 0, len(adjacency))
	for id := range adjacency {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	visited := make(map[string]bool, len(nodes))
	var groups [][]string
	for _, start := range nodes {
		if visited[start] {
			continue
		}
		// Iterative depth-first traversal of one component.
		var component []string
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, id)
			for _, next := range adjacency[id] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		if len(component) >= 2 {
			sort.Strings(component)
			groups = append(groups, component)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}
