// Package dedup provides offline duplicate detection and clustering over
// curated item metadata.
//
// # Overview
//
// The detector runs as a batch job over a read-only snapshot of stored
// items. It never mutates its input and sits off the ingestion hot path;
// callers decide run cadence.
//
// # Architecture
//
// Detection happens in two passes, comparisons only occurring between
// items of the same content type:
//
//  1. Exact pass: items are hashed over (normalized title, original url,
//     content type, and optionally file size). Hash collisions are
//     emitted as exact matches with similarity 1.0.
//  2. Approximate pass: remaining unique-hash items are compared
//     pairwise on four signals (title string-distance ratio, url
//     similarity, domain identity, and tag-set Jaccard overlap)
//     combined with configurable weights. Scores at or above the
//     near-exact threshold emit "near_exact" matches, scores at or
//     above the similar threshold emit "similar", and everything below
//     is discarded.
//
// Grouping builds an undirected adjacency map from the matches and
// extracts connected components, so transitive duplicates end up in one
// group even when not every pair was directly compared above threshold.
//
// # Configuration
//
// Defaults are conservative: near-exact at 0.95, similar at 0.8, and
// signal weights of 0.4 title / 0.3 url / 0.2 domain / 0.1 tags. See
// DefaultConfig.
package dedup
