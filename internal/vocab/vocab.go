// Package vocab holds the static vocabularies shared by the command
// classifier and the ranking engine: known technology terms, educational
// keywords, and domain-literal exclusions. Tables are plain data so they
// can be tested and swapped without touching control flow.
package vocab

import "strings"

// technologies is the known technology/topic vocabulary used by the
// classifier's short-input heuristic and the query optimizer's
// programming-specific phrasing.
var technologies = map[string]bool{
	"python":     true,
	"go":         true,
	"golang":     true,
	"rust":       true,
	"javascript": true,
	"typescript": true,
	"java":       true,
	"kotlin":     true,
	"swift":      true,
	"ruby":       true,
	"php":        true,
	"c":          true,
	"c++":        true,
	"c#":         true,
	"scala":      true,
	"haskell":    true,
	"elixir":     true,
	"react":      true,
	"vue":        true,
	"angular":    true,
	"svelte":     true,
	"node":       true,
	"django":     true,
	"flask":      true,
	"rails":      true,
	"spring":     true,
	"docker":     true,
	"kubernetes": true,
	"terraform":  true,
	"ansible":    true,
	"git":        true,
	"linux":      true,
	"bash":       true,
	"sql":        true,
	"postgres":   true,
	"postgresql": true,
	"mysql":      true,
	"sqlite":     true,
	"mongodb":    true,
	"redis":      true,
	"kafka":      true,
	"grpc":       true,
	"graphql":    true,
	"rest":       true,
	"http":       true,
	"tcp":        true,
	"webassembly": true,
	"wasm":       true,
	"tensorflow": true,
	"pytorch":    true,
	"numpy":      true,
	"pandas":     true,
	"algorithms": true,
	"concurrency": true,
	"microservices": true,
	"devops":     true,
	"security":   true,
	"cryptography": true,
	"networking": true,
	"compilers":  true,
	"databases":  true,
	"testing":    true,
	"regex":      true,
	"css":        true,
	"html":       true,
}

// technologyPhrases are multi-word topics recognized as a whole.
var technologyPhrases = map[string]bool{
	"machine learning":  true,
	"deep learning":     true,
	"data science":      true,
	"computer vision":   true,
	"operating systems": true,
	"system design":     true,
	"web development":   true,
	"data structures":   true,
	"neural networks":   true,
	"functional programming": true,
	"distributed systems":    true,
}

// domainExclusions are tokens that look like bare domains but are
// technology names, not sites to crawl.
var domainExclusions = map[string]bool{
	"node.js":   true,
	"vue.js":    true,
	"react.js":  true,
	"next.js":   true,
	"nuxt.js":   true,
	"express.js": true,
	"d3.js":     true,
	"three.js":  true,
	"socket.io": true,
	"asp.net":   true,
	".net":      true,
	"objective-c": true,
}

// EducationalKeywords signal learning-oriented content in titles and
// descriptions. Used by the ranker's relevance and quality scoring.
var EducationalKeywords = []string{
	"tutorial",
	"guide",
	"learn",
	"course",
	"documentation",
	"introduction",
	"beginner",
	"examples",
	"how to",
	"reference",
	"handbook",
	"walkthrough",
}

// IsTechnology reports whether the term (a single token or a short
// phrase) is in the known technology vocabulary.
func IsTechnology(term string) bool {
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return false
	}
	if technologies[normalized] || technologyPhrases[normalized] {
		return true
	}
	// Tolerate trailing punctuation like "python?" or "go!".
	normalized = strings.TrimRight(normalized, "?!.,")
	return technologies[normalized] || technologyPhrases[normalized]
}

// IsDomainExclusion reports whether a token that matched the bare-domain
// pattern is actually a technology name.
func IsDomainExclusion(token string) bool {
	return domainExclusions[strings.ToLower(strings.TrimSpace(token))]
}

// HasEducationalKeyword reports whether the lowercased text contains any
// educational keyword.
func HasEducationalKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range EducationalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
