package ranking

import (
	"net/url"
	"strings"
)

// authorityByDomain is the static domain-authority lookup, keyed by exact
// registered domain. Scores are heuristic priors in [0, 1].
var authorityByDomain = map[string]float64{
	"developer.mozilla.org": 0.95,
	"docs.python.org":       0.95,
	"go.dev":                0.95,
	"doc.rust-lang.org":     0.95,
	"kubernetes.io":         0.9,
	"github.com":            0.9,
	"stackoverflow.com":     0.9,
	"freecodecamp.org":      0.9,
	"khanacademy.org":       0.9,
	"realpython.com":        0.85,
	"coursera.org":          0.85,
	"edx.org":               0.85,
	"ocw.mit.edu":           0.9,
	"wikipedia.org":         0.85,
	"en.wikipedia.org":      0.85,
	"youtube.com":           0.8,
	"vimeo.com":             0.7,
	"udemy.com":             0.7,
	"w3schools.com":         0.7,
	"geeksforgeeks.org":     0.65,
	"dev.to":                0.6,
	"medium.com":            0.6,
	"reddit.com":            0.55,
	"news.ycombinator.com":  0.6,
}

// authorityByTLD is the fallback lookup by top-level domain, consulted
// when the exact domain is unknown.
var authorityByTLD = map[string]float64{
	"edu": 0.9,
	"gov": 0.85,
	"org": 0.7,
	"dev": 0.65,
	"io":  0.6,
}

const defaultAuthority = 0.5

// domainOf extracts the lowercased host (minus a www prefix) from a raw
// URL. It returns "" when the URL is unparsable or has no host.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// domainAuthority looks up the authority prior for a URL: exact domain
// first, then TLD, then the default of 0.5.
func domainAuthority(rawURL string) float64 {
	domain := domainOf(rawURL)
	if domain == "" {
		return defaultAuthority
	}
	if score, ok := authorityByDomain[domain]; ok {
		return score
	}
	if i := strings.LastIndex(domain, "."); i >= 0 {
		if score, ok := authorityByTLD[domain[i+1:]]; ok {
			return score
		}
	}
	return defaultAuthority
}

// isEducationalDomain reports whether a domain qualifies for the
// educational_domains_only filter: either listed in the authority table
// or carrying an edu/gov TLD.
func isEducationalDomain(domain string) bool {
	if domain == "" {
		return false
	}
	if _, ok := authorityByDomain[domain]; ok {
		return true
	}
	return strings.HasSuffix(domain, ".edu") || strings.HasSuffix(domain, ".gov")
}
