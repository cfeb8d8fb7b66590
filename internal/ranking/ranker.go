package ranking

import (
	"net/url"
	"sort"
	"strings"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
	"github.com/TianxingChang/Kairos-sub000/internal/vocab"
)

// RankOptions configures ranking and filtering of raw search hits.
type RankOptions struct {
	// Limit truncates the ranked output; 0 means no truncation.
	Limit int

	// MaxPerDomain caps how many results one source domain may
	// contribute. Zero falls back to the default of 2.
	MaxPerDomain int

	// EducationalOnly drops hits whose domain is neither in the
	// authority table nor on an edu/gov TLD.
	EducationalOnly bool
}

const defaultMaxPerDomain = 2

// qualityKeywords signal authoritative, well-maintained content.
var qualityKeywords = []string{
	"official",
	"documentation",
	"tutorial",
	"guide",
	"reference",
	"examples",
}

// Rank scores raw search hits against a topic and returns ranked
// learning resources: sorted by combined relevance and estimated quality
// (descending, stable on ties), filtered for domain diversity, and
// truncated to the limit.
func Rank(hits []types.SearchHit, topic string, opts RankOptions) []types.LearningResource {
	maxPerDomain := opts.MaxPerDomain
	if maxPerDomain <= 0 {
		maxPerDomain = defaultMaxPerDomain
	}

	scored := make([]types.LearningResource, 0, len(hits))
	for _, hit := range hits {
		if opts.EducationalOnly {
			if !isEducationalDomain(domainOf(hit.URL)) {
				continue
			}
		}
		scored = append(scored, types.LearningResource{
			URL:              hit.URL,
			Title:            hit.Title,
			Description:      hit.Description,
			RelevanceScore:   relevanceScore(hit, topic),
			ContentType:      classifyContentType(hit),
			EstimatedQuality: estimatedQuality(hit),
		})
	}

	// Stable: ties preserve input order.
	sort.SliceStable(scored, func(i, j int) bool {
		si := scored[i].RelevanceScore + scored[i].EstimatedQuality
		sj := scored[j].RelevanceScore + scored[j].EstimatedQuality
		return si > sj
	})

	perDomain := make(map[string]int)
	ranked := make([]types.LearningResource, 0, len(scored))
	for _, r := range scored {
		domain := domainOf(r.URL)
		if domain != "" {
			// Items with unparsable URLs are always admitted.
			if perDomain[domain] >= maxPerDomain {
				continue
			}
			perDomain[domain]++
		}
		ranked = append(ranked, r)
		if opts.Limit > 0 && len(ranked) == opts.Limit {
			break
		}
	}
	return ranked
}

// relevanceScore measures topic/text word overlap with bonuses for exact
// phrase presence, topic words in the title, and educational keywords.
// Capped at 1.0.
func relevanceScore(hit types.SearchHit, topic string) float64 {
	topicLower := strings.ToLower(strings.TrimSpace(topic))
	topicWords := strings.Fields(topicLower)
	if len(topicWords) == 0 {
		return 0
	}

	text := strings.ToLower(hit.Title + " " + hit.Description)
	textWords := wordSet(text)
	titleWords := wordSet(strings.ToLower(hit.Title))

	matched := 0
	inTitle := false
	for _, w := range topicWords {
		if textWords[w] {
			matched++
		}
		if titleWords[w] {
			inTitle = true
		}
	}

	score := float64(matched) / float64(len(topicWords))
	if strings.Contains(text, topicLower) {
		score += 0.3
	}
	if inTitle {
		score += 0.2
	}
	if vocab.HasEducationalKeyword(text) {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// estimatedQuality combines domain authority, content keywords,
// description length, and URL structure into one score, capped at 1.0.
func estimatedQuality(hit types.SearchHit) float64 {
	score := 0.5*domainAuthority(hit.URL) +
		0.25*contentKeywordScore(hit.Title+" "+hit.Description) +
		0.15*descriptionLengthScore(hit.Description) +
		0.1*urlStructureScore(hit.URL)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func contentKeywordScore(text string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range qualityKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	score := float64(hits) / 3.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// descriptionLengthScore rewards substantive but not bloated
// descriptions: 50-300 characters is ideal.
func descriptionLengthScore(desc string) float64 {
	n := len(strings.TrimSpace(desc))
	switch {
	case n == 0:
		return 0
	case n < 50:
		return 0.6 * float64(n) / 50
	case n <= 300:
		return 1.0
	case n <= 600:
		return 0.7
	default:
		return 0.4
	}
}

// urlStructureScore penalizes deep paths, query strings, and very long
// URLs. Unparsable URLs get the neutral default.
func urlStructureScore(rawURL string) float64 {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return 0.5
	}
	score := 1.0
	depth := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			depth++
		}
	}
	if depth > 4 {
		score -= 0.3
	}
	if u.RawQuery != "" {
		score -= 0.2
	}
	if len(rawURL) > 120 {
		score -= 0.2
	}
	if score < 0.2 {
		score = 0.2
	}
	return score
}

// classifyContentType infers the resource format from its domain, path,
// and text.
func classifyContentType(hit types.SearchHit) types.ContentType {
	domain := domainOf(hit.URL)
	text := strings.ToLower(hit.Title + " " + hit.Description)

	switch domain {
	case "youtube.com", "vimeo.com":
		return types.ContentVideo
	case "udemy.com", "coursera.org", "edx.org", "khanacademy.org":
		return types.ContentCourse
	case "stackoverflow.com", "reddit.com", "news.ycombinator.com":
		return types.ContentDiscussion
	}

	lowerURL := strings.ToLower(hit.URL)
	switch {
	case strings.Contains(text, "video") || strings.Contains(lowerURL, "/watch"):
		return types.ContentVideo
	case strings.Contains(text, "course"):
		return types.ContentCourse
	case strings.HasPrefix(domain, "docs.") || strings.HasPrefix(domain, "developer.") ||
		strings.Contains(lowerURL, "/docs") || strings.Contains(text, "documentation") ||
		strings.Contains(text, "reference"):
		return types.ContentDocumentation
	case strings.Contains(text, "tutorial") || strings.Contains(text, "how to") ||
		strings.Contains(text, "guide"):
		return types.ContentTutorial
	default:
		return types.ContentArticle
	}
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' || r == '+' || r == '#')
	}) {
		set[w] = true
	}
	return set
}
