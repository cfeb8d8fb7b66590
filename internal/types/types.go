package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Intent represents the classified purpose of a free-text command.
type Intent string

const (
	// IntentTopicSearch means the command asks to find learning resources on a topic.
	IntentTopicSearch Intent = "topic_search"

	// IntentURLCrawl means the command asks to fetch content from a specific URL.
	IntentURLCrawl Intent = "url_crawl"

	// IntentUnknown means the command could not be classified with enough confidence.
	IntentUnknown Intent = "unknown"
)

// IsValid checks if the intent value is valid
func (i Intent) IsValid() bool {
	switch i {
	case IntentTopicSearch, IntentURLCrawl, IntentUnknown:
		return true
	}
	return false
}

// ParsedCommand is the result of classifying a free-text command.
//
// A ParsedCommand is created per classification call and discarded after
// dispatch; it is never persisted. Callers must treat any command with
// confidence below 0.5, or intent unknown, as needing clarification and
// must not dispatch it.
type ParsedCommand struct {
	Intent         Intent   `json:"intent"`
	Topic          string   `json:"topic,omitempty"`
	URL            string   `json:"url,omitempty"`
	Confidence     float64  `json:"confidence"`
	AmbiguousParts []string `json:"ambiguous_parts,omitempty"`
	OriginalText   string   `json:"original_text"`
}

// Validate checks the structural invariants of a parsed command:
// topic-search commands carry a topic (at least 2 characters) and no URL,
// crawl commands carry a URL with scheme and host and no topic, and
// confidence is always within [0, 1].
func (c *ParsedCommand) Validate() error {
	if !c.Intent.IsValid() {
		return fmt.Errorf("invalid intent: %s", c.Intent)
	}
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", c.Confidence)
	}
	switch c.Intent {
	case IntentTopicSearch:
		if len(strings.TrimSpace(c.Topic)) < 2 {
			return fmt.Errorf("topic_search requires a topic of at least 2 characters (got %q)", c.Topic)
		}
		if c.URL != "" {
			return fmt.Errorf("topic_search must not carry a url (got %q)", c.URL)
		}
	case IntentURLCrawl:
		if c.Topic != "" {
			return fmt.Errorf("url_crawl must not carry a topic (got %q)", c.Topic)
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			return fmt.Errorf("url_crawl requires a parsable url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("url_crawl requires a url with scheme and host (got %q)", c.URL)
		}
	}
	return nil
}

// NeedsClarification reports whether the command is too uncertain to dispatch.
func (c *ParsedCommand) NeedsClarification() bool {
	return c.Intent == IntentUnknown || c.Confidence < 0.5
}

// SearchHit is a raw result from the discovery backend. Hits are
// ephemeral: they feed the ranker and are never persisted by this core.
type SearchHit struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Source      map[string]string `json:"source,omitempty"`
}

// ContentType categorizes a learning resource by its format.
type ContentType string

const (
	ContentTutorial      ContentType = "tutorial"
	ContentDocumentation ContentType = "documentation"
	ContentVideo         ContentType = "video"
	ContentCourse        ContentType = "course"
	ContentDiscussion    ContentType = "discussion"
	ContentArticle       ContentType = "article"
)

// LearningResource is a ranked, scored resource produced by the ranker.
// Resources are immutable once built; their lifetime ends when the caller
// persists or discards them.
type LearningResource struct {
	URL              string      `json:"url"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	RelevanceScore   float64     `json:"relevance_score"`
	ContentType      ContentType `json:"content_type"`
	EstimatedQuality float64     `json:"estimated_quality"`
}

// Validate checks score bounds on a learning resource
func (r *LearningResource) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	if r.RelevanceScore < 0.0 || r.RelevanceScore > 1.0 {
		return fmt.Errorf("relevance_score must be between 0.0 and 1.0 (got %.2f)", r.RelevanceScore)
	}
	if r.EstimatedQuality < 0.0 || r.EstimatedQuality > 1.0 {
		return fmt.Errorf("estimated_quality must be between 0.0 and 1.0 (got %.2f)", r.EstimatedQuality)
	}
	return nil
}

// StoredItem is a previously curated item supplied by the persistence
// layer. The duplicate detector reads these snapshots and never mutates
// them.
type StoredItem struct {
	ItemID        string    `json:"item_id"`
	Title         string    `json:"title"`
	ContentType   string    `json:"content_type"`
	SourceDomain  string    `json:"source_domain"`
	OriginalURL   string    `json:"original_url"`
	Tags          []string  `json:"tags,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes,omitempty"`
	StorageDate   time.Time `json:"storage_date,omitempty"`
}

// MatchType categorizes how strongly two items duplicate each other.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchNearExact MatchType = "near_exact"
	MatchSimilar   MatchType = "similar"
)

// ComponentScores holds the per-signal similarity sub-scores that were
// combined into a DuplicateMatch's overall score.
type ComponentScores struct {
	Title  float64 `json:"title"`
	URL    float64 `json:"url"`
	Domain float64 `json:"domain"`
	Tag    float64 `json:"tag"`
}

// DuplicateMatch records that two stored items were judged duplicates.
// Matches are symmetric: a match between A and B is equivalent regardless
// of argument order.
type DuplicateMatch struct {
	Item1ID         string          `json:"item1_id"`
	Item2ID         string          `json:"item2_id"`
	SimilarityScore float64         `json:"similarity_score"`
	MatchType       MatchType       `json:"match_type"`
	Scores          ComponentScores `json:"scores"`
}

// Validate checks if the match has valid values
func (m *DuplicateMatch) Validate() error {
	if m.Item1ID == "" || m.Item2ID == "" {
		return fmt.Errorf("both item ids are required")
	}
	if m.SimilarityScore < 0.0 || m.SimilarityScore > 1.0 {
		return fmt.Errorf("similarity_score must be between 0.0 and 1.0 (got %.2f)", m.SimilarityScore)
	}
	switch m.MatchType {
	case MatchExact, MatchNearExact, MatchSimilar:
	default:
		return fmt.Errorf("invalid match_type: %s", m.MatchType)
	}
	return nil
}

// CrawlContent is the opaque content handle returned by a crawl. The
// core never inspects the payload; extraction is an external concern.
type CrawlContent struct {
	URL       string          `json:"url"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SearchMetadata describes how a topic search was executed.
type SearchMetadata struct {
	Topic     string        `json:"topic"`
	Queries   []string      `json:"queries"`
	TotalHits int           `json:"total_hits"`
	Duration  time.Duration `json:"duration"`
	Truncated bool          `json:"truncated"`
}
