// Package classify turns free-text commands into classified intents with
// confidence scores and extracted parameters.
//
// Classification is a pure function: two independent weighted-pattern
// detectors (URL crawl and topic search) score the input, and the result
// with the stronger signal wins. URL detection is checked first when both
// detectors exceed the dispatch threshold. Any result below 0.5
// confidence, or with unknown intent, must be treated by the caller as
// needing clarification and never dispatched.
package classify

import (
	"strings"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
	"github.com/TianxingChang/Kairos-sub000/internal/vocab"
)

// dispatchThreshold is the confidence a detector must exceed for its
// result to be returned outright.
const dispatchThreshold = 0.5

// Classifier classifies free-text commands. It is stateless and safe for
// concurrent use; the pattern tables are static configuration.
type Classifier struct {
	urlPatterns   []intentPattern
	topicPatterns []intentPattern
}

// New creates a classifier with the default pattern tables.
func New() *Classifier {
	return &Classifier{
		urlPatterns:   urlIntentPatterns,
		topicPatterns: topicIntentPatterns,
	}
}

// detection is the intermediate output of one detector.
type detection struct {
	confidence float64
	param      string // extracted url or topic
	ambiguous  []string
}

// Classify classifies a free-text command. It is total: it never fails,
// and encodes uncertainty in the confidence score instead. Empty or
// unparseable input yields unknown intent with confidence 0.
func (c *Classifier) Classify(text string) types.ParsedCommand {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.ParsedCommand{
			Intent:         types.IntentUnknown,
			Confidence:     0,
			AmbiguousParts: []string{"empty input"},
			OriginalText:   text,
		}
	}

	urlDet := c.detectURL(trimmed)
	topicDet := c.detectTopic(trimmed)

	var cmd types.ParsedCommand
	switch {
	case urlDet.confidence > dispatchThreshold:
		// URL detection wins the tie-break when both exceed the threshold.
		cmd = buildURLCommand(urlDet, text)
		if topicDet.confidence > dispatchThreshold {
			cmd.AmbiguousParts = append(cmd.AmbiguousParts, "both url and topic intent detected")
		}
	case topicDet.confidence > dispatchThreshold:
		cmd = buildTopicCommand(topicDet, text)
	case urlDet.confidence >= topicDet.confidence && urlDet.confidence > 0:
		cmd = buildURLCommand(urlDet, text)
	case topicDet.confidence > 0:
		cmd = buildTopicCommand(topicDet, text)
	default:
		cmd = types.ParsedCommand{
			Intent:         types.IntentUnknown,
			Confidence:     0,
			AmbiguousParts: []string{"no recognizable intent"},
			OriginalText:   text,
		}
	}

	if cmd.Intent != types.IntentUnknown && cmd.Confidence < dispatchThreshold {
		cmd.AmbiguousParts = append(cmd.AmbiguousParts, "low confidence")
	}

	// Malformed results are downgraded to unknown, never surfaced as errors.
	if err := cmd.Validate(); err != nil {
		cmd = types.ParsedCommand{
			Intent:         types.IntentUnknown,
			Confidence:     0,
			AmbiguousParts: append(cmd.AmbiguousParts, err.Error()),
			OriginalText:   text,
		}
	}
	return cmd
}

func buildURLCommand(det detection, original string) types.ParsedCommand {
	return types.ParsedCommand{
		Intent:         types.IntentURLCrawl,
		URL:            det.param,
		Confidence:     clamp(det.confidence),
		AmbiguousParts: det.ambiguous,
		OriginalText:   original,
	}
}

func buildTopicCommand(det detection, original string) types.ParsedCommand {
	return types.ParsedCommand{
		Intent:         types.IntentTopicSearch,
		Topic:          det.param,
		Confidence:     clamp(det.confidence),
		AmbiguousParts: det.ambiguous,
		OriginalText:   original,
	}
}

// detectURL scans for URL literals and weighted URL-intent patterns.
// Confidence is the sum of boosts, capped at 1.0. If no pattern
// extracted a url but a literal was found, the literal becomes the
// extracted url.
func (c *Classifier) detectURL(text string) detection {
	var det detection

	literals := findURLLiterals(text)
	if len(literals.absolute) > 0 {
		det.confidence += absoluteURLBoost
	}
	if len(literals.bare) > 0 {
		det.confidence += bareDomainBoost
	}

	for _, p := range c.urlPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		det.confidence += p.boost
		if p.extract && det.param == "" && len(m) > 1 {
			if u, ok := normalizeURLCandidate(m[1]); ok {
				det.param = u
			}
		}
	}

	if det.param == "" {
		if len(literals.absolute) > 0 {
			det.param = literals.absolute[0]
		} else if len(literals.bare) > 0 {
			det.param = "https://" + literals.bare[0]
		}
	}
	if len(literals.absolute)+len(literals.bare) > 1 {
		det.ambiguous = append(det.ambiguous, "multiple url candidates")
	}

	det.confidence = clamp(det.confidence)
	return det
}

// detectTopic matches weighted topic-intent patterns plus the short-input
// technology heuristic, penalizing -0.4 whenever a URL literal is present
// in the text.
func (c *Classifier) detectTopic(text string) detection {
	var det detection

	for _, p := range c.topicPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		det.confidence += p.boost
		if p.extract && det.param == "" && len(m) > 1 {
			det.param = cleanTopic(m[1])
		}
	}

	words := strings.Fields(text)
	if len(words) <= 2 && vocab.IsTechnology(text) {
		det.confidence += shortInputBoost
		if det.param == "" {
			det.param = cleanTopic(text)
		}
	}

	literals := findURLLiterals(text)
	if len(literals.absolute) > 0 || len(literals.bare) > 0 {
		det.confidence -= urlPresencePenalty
		if det.confidence < 0 {
			det.confidence = 0
		}
	}

	// Indicator-only matches carry confidence but no extracted topic;
	// fall back to the input with indicator words stripped.
	if det.param == "" && det.confidence > 0 {
		det.param = cleanTopic(stripIndicatorWords(text))
	}

	det.confidence = clamp(det.confidence)
	return det
}

// urlLiterals holds URL literals found in the input, split by kind.
type urlLiterals struct {
	absolute []string
	bare     []string
}

func findURLLiterals(text string) urlLiterals {
	var lits urlLiterals
	lits.absolute = absoluteURLPattern.FindAllString(text, -1)

	// Scan for bare domains only outside absolute URLs, so
	// "https://example.com" does not also count as a bare literal.
	remainder := absoluteURLPattern.ReplaceAllString(text, " ")
	for _, tok := range bareDomainPattern.FindAllString(remainder, -1) {
		if vocab.IsDomainExclusion(tok) {
			continue
		}
		lits.bare = append(lits.bare, tok)
	}
	return lits
}

// normalizeURLCandidate turns an extracted token into a crawlable URL.
// Absolute URLs pass through; bare domains get an https scheme; anything
// else is rejected.
func normalizeURLCandidate(token string) (string, bool) {
	token = strings.TrimRight(token, ".,;:!?")
	if absoluteURLPattern.MatchString(token) {
		return absoluteURLPattern.FindString(token), true
	}
	if bareDomainPattern.MatchString(token) && !vocab.IsDomainExclusion(token) {
		return "https://" + bareDomainPattern.FindString(token), true
	}
	return "", false
}

var indicatorWords = map[string]bool{
	"find": true, "search": true, "get": true, "show": true, "give": true,
	"me": true, "some": true, "for": true, "on": true, "about": true,
	"tutorial": true, "tutorials": true, "resource": true, "resources": true,
	"guide": true, "guides": true, "course": true, "courses": true,
	"video": true, "videos": true, "material": true, "materials": true,
	"learning": true, "studying": true, "docs": true, "documentation": true,
}

func stripIndicatorWords(text string) string {
	var kept []string
	for _, w := range strings.Fields(text) {
		if indicatorWords[strings.ToLower(strings.Trim(w, ".,!?"))] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// cleanTopic trims punctuation and whitespace from an extracted topic.
func cleanTopic(topic string) string {
	return strings.Trim(strings.TrimSpace(topic), ".,!?\"'")
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
