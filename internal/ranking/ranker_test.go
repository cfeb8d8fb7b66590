package ranking

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

func hit(url, title, desc string) types.SearchHit {
	return types.SearchHit{URL: url, Title: title, Description: desc}
}

func TestRankSortedDescending(t *testing.T) {
	hits := []types.SearchHit{
		hit("https://random.biz/x", "Unrelated page", "nothing to see"),
		hit("https://docs.python.org/3/tutorial/", "The Python Tutorial", "The official Python tutorial with examples for beginners, covering the language from the ground up."),
		hit("https://medium.com/@someone/post", "A post about python", "Some thoughts on python."),
	}

	ranked := Rank(hits, "python", RankOptions{})
	require.NotEmpty(t, ranked)

	for i := 1; i < len(ranked); i++ {
		prev := ranked[i-1].RelevanceScore + ranked[i-1].EstimatedQuality
		cur := ranked[i].RelevanceScore + ranked[i].EstimatedQuality
		assert.GreaterOrEqual(t, prev, cur, "output must be sorted by combined score")
	}
	assert.Equal(t, "https://docs.python.org/3/tutorial/", ranked[0].URL)
}

func TestRankScoreBounds(t *testing.T) {
	hits := []types.SearchHit{
		hit("https://docs.python.org/3/tutorial/", "Python tutorial guide reference documentation examples",
			"official documentation tutorial guide reference examples python python python"),
		hit("not a url at all", "", ""),
	}
	for _, r := range Rank(hits, "python", RankOptions{}) {
		assert.GreaterOrEqual(t, r.RelevanceScore, 0.0)
		assert.LessOrEqual(t, r.RelevanceScore, 1.0)
		assert.GreaterOrEqual(t, r.EstimatedQuality, 0.0)
		assert.LessOrEqual(t, r.EstimatedQuality, 1.0)
		require.NoError(t, r.Validate())
	}
}

func TestRankDomainDiversity(t *testing.T) {
	var hits []types.SearchHit
	for i := 0; i < 6; i++ {
		hits = append(hits, hit(
			fmt.Sprintf("https://medium.com/post-%d", i),
			fmt.Sprintf("Go tutorial part %d", i),
			"A tutorial about go covering goroutines and channels in reasonable depth for new users."))
	}
	hits = append(hits, hit("https://go.dev/tour", "A Tour of Go", "The official interactive Go tutorial."))

	ranked := Rank(hits, "go", RankOptions{})

	perDomain := make(map[string]int)
	for _, r := range ranked {
		perDomain[domainOf(r.URL)]++
	}
	assert.LessOrEqual(t, perDomain["medium.com"], 2, "never more than max_per_domain from one domain")
	assert.Equal(t, 1, perDomain["go.dev"])
}

func TestRankMaxPerDomainOption(t *testing.T) {
	var hits []types.SearchHit
	for i := 0; i < 4; i++ {
		hits = append(hits, hit(
			fmt.Sprintf("https://example.com/%d", i), "rust tutorial", "learn rust with this tutorial"))
	}
	ranked := Rank(hits, "rust", RankOptions{MaxPerDomain: 1})
	assert.Len(t, ranked, 1)
}

func TestRankUnparsableURLsAlwaysAdmitted(t *testing.T) {
	hits := []types.SearchHit{
		hit("::::not-a-url", "rust tutorial one", "learn rust"),
		hit("also not a url", "rust tutorial two", "learn rust"),
		hit("%%%", "rust tutorial three", "learn rust"),
	}
	ranked := Rank(hits, "rust", RankOptions{MaxPerDomain: 1})
	assert.Len(t, ranked, 3, "unparsable URLs bypass the diversity cap")
}

func TestRankIdempotent(t *testing.T) {
	hits := []types.SearchHit{
		hit("https://a.com/1", "python guide", "a guide to python"),
		hit("https://b.com/2", "python tutorial", "a tutorial on python"),
		hit("https://c.com/3", "python", "python python python"),
	}
	first := Rank(hits, "python", RankOptions{})
	second := Rank(hits, "python", RankOptions{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rank is not idempotent (-first +second):\n%s", diff)
	}
}

func TestRankTiesPreserveInputOrder(t *testing.T) {
	// Identical hits on different domains score identically; stable sort
	// must keep them in input order.
	hits := []types.SearchHit{
		hit("https://a.com/x", "go tutorial", "identical description for tie"),
		hit("https://b.com/x", "go tutorial", "identical description for tie"),
		hit("https://c.com/x", "go tutorial", "identical description for tie"),
	}
	ranked := Rank(hits, "go", RankOptions{})
	require.Len(t, ranked, 3)
	assert.Equal(t, "https://a.com/x", ranked[0].URL)
	assert.Equal(t, "https://b.com/x", ranked[1].URL)
	assert.Equal(t, "https://c.com/x", ranked[2].URL)
}

func TestRankTruncatesToLimit(t *testing.T) {
	var hits []types.SearchHit
	for i := 0; i < 10; i++ {
		hits = append(hits, hit(fmt.Sprintf("https://site%d.com/", i), "go tutorial", "learn go"))
	}
	ranked := Rank(hits, "go", RankOptions{Limit: 3})
	assert.Len(t, ranked, 3)
}

func TestRankEducationalOnly(t *testing.T) {
	hits := []types.SearchHit{
		hit("https://docs.python.org/3/", "Python docs", "official documentation"),
		hit("https://ocw.mit.edu/course", "MIT OpenCourseWare", "a python course"),
		hit("https://sketchy.biz/python", "python hacks", "definitely legitimate python content"),
	}
	ranked := Rank(hits, "python", RankOptions{EducationalOnly: true})
	for _, r := range ranked {
		assert.NotContains(t, r.URL, "sketchy.biz")
	}
	assert.Len(t, ranked, 2)
}

func TestDomainAuthorityLookup(t *testing.T) {
	tests := []struct {
		url   string
		score float64
	}{
		{"https://docs.python.org/3/", 0.95},
		{"https://www.github.com/golang/go", 0.9},
		{"https://cs.stanford.edu/class", 0.9},  // TLD fallback
		{"https://totally-unknown.biz/", 0.5},   // default
		{"not a url", 0.5},                      // unparsable
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.score, domainAuthority(tt.url), 0.0001, "url %q", tt.url)
	}
}

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		name string
		h    types.SearchHit
		want types.ContentType
	}{
		{"youtube", hit("https://youtube.com/watch?v=1", "Go talk", "conference recording"), types.ContentVideo},
		{"course site", hit("https://coursera.org/learn/go", "Go course", "specialization"), types.ContentCourse},
		{"docs host", hit("https://docs.python.org/3/", "Python 3 docs", ""), types.ContentDocumentation},
		{"discussion", hit("https://stackoverflow.com/q/1", "How do I...", ""), types.ContentDiscussion},
		{"tutorial text", hit("https://blog.example.com/p", "A hands-on tutorial", "step by step"), types.ContentTutorial},
		{"fallback", hit("https://example.com/post", "Thoughts on Go", "an essay"), types.ContentArticle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyContentType(tt.h))
		})
	}
}
