package classify

import "regexp"

// intentPattern is one entry in a declarative detection table: a pattern,
// the confidence boost it contributes, and whether its first capture
// group extracts the command parameter (url or topic).
type intentPattern struct {
	name    string
	re      *regexp.Regexp
	boost   float64
	extract bool
}

// Confidence boosts contributed by URL literals found in the text.
const (
	absoluteURLBoost = 0.4
	bareDomainBoost  = 0.25
)

// absoluteURLPattern matches absolute http(s) URL literals.
var absoluteURLPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// bareDomainPattern matches bare-domain literals like "example.com" or
// "docs.python.org/3/tutorial". Tokens matching the exclusion vocabulary
// (technology names like "node.js") are filtered out after matching.
var bareDomainPattern = regexp.MustCompile(`(?i)\b(?:[a-z0-9][a-z0-9-]*\.)+(?:com|org|net|io|dev|edu|gov|ai|co)\b(?:/[^\s]*)?`)

// urlIntentPatterns is the weighted table driving URL-crawl intent
// detection. Order is priority order: the first extracting pattern that
// captures a plausible URL wins the extraction.
var urlIntentPatterns = []intentPattern{
	{
		name:    "crawl-verb-with-target",
		re:      regexp.MustCompile(`(?i)^(?:crawl|scrape|fetch|extract|grab|pull)\s+(\S+)`),
		boost:   0.5,
		extract: true,
	},
	{
		name:  "crawl-verb",
		re:    regexp.MustCompile(`(?i)\b(?:crawl|scrape|fetch|extract)\b`),
		boost: 0.2,
	},
	{
		name:  "deictic-page-reference",
		re:    regexp.MustCompile(`(?i)\b(?:this|that|the)\s+(?:url|link|page|site|website)\b`),
		boost: 0.3,
	},
	{
		name:  "content-from",
		re:    regexp.MustCompile(`(?i)\bcontent\s+(?:of|from)\b`),
		boost: 0.2,
	},
}

// topicIntentPatterns is the weighted table driving topic-search intent
// detection, in priority order for topic extraction.
var topicIntentPatterns = []intentPattern{
	{
		name:    "resources-on-topic",
		re:      regexp.MustCompile(`(?i)^(?:find|search(?:\s+for)?|get|show\s+me|give\s+me)\s+(?:some\s+)?(?:resources|tutorials|materials|guides|videos|courses|docs|documentation)\s+(?:on|about|for)\s+(.+)$`),
		boost:   0.6,
		extract: true,
	},
	{
		name:    "find-topic-resources",
		re:      regexp.MustCompile(`(?i)^(?:find|search(?:\s+for)?|get|show\s+me)\s+(.+?)\s+(?:tutorials?|resources?|guides?|courses?|videos?|materials)$`),
		boost:   0.6,
		extract: true,
	},
	{
		name:    "learn-about",
		re:      regexp.MustCompile(`(?i)^(?:learn|study|teach\s+me)\s+(?:about\s+)?(.+)$`),
		boost:   0.55,
		extract: true,
	},
	{
		name:    "question-form",
		re:      regexp.MustCompile(`(?i)^(?:what\s+is|what\s+are|how\s+to|how\s+do\s+i\s+use)\s+(.+)$`),
		boost:   0.4,
		extract: true,
	},
	{
		name:  "educational-indicator",
		re:    regexp.MustCompile(`(?i)\b(?:tutorials?|resources?|guides?|courses?|learning|studying)\b`),
		boost: 0.3,
	},
}

// shortInputBoost is the confidence boost for inputs of at most two
// words that match the known technology vocabulary; the whole input
// becomes the topic.
const shortInputBoost = 0.55

// urlPresencePenalty is subtracted from topic confidence whenever any
// URL literal appears in the text.
const urlPresencePenalty = 0.4
