package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, serverURL string) (*Client, *fakeClock) {
	t.Helper()
	m, clock := newTestManager(t, serverURL)
	return NewClient(m, zap.NewNop()), clock
}

// backendHandler serves /health plus a single operation endpoint.
func backendHandler(path string, op http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case path:
			op(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}

func writeEnvelope(w http.ResponseWriter, success bool, data any, errMsg string) {
	body := map[string]any{"success": success}
	if data != nil {
		body["data"] = data
	}
	if errMsg != "" {
		body["error"] = errMsg
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rust concurrency tutorial", req.Query)
		assert.Equal(t, 10, req.MaxResults)

		writeEnvelope(w, true, map[string]any{
			"results": []map[string]any{
				{"url": "https://doc.rust-lang.org/book/", "title": "The Rust Book", "description": "Official guide"},
				{"url": "https://tokio.rs/", "title": "Tokio", "description": "Async runtime"},
			},
		}, "")
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	hits, err := c.Search(context.Background(), "rust concurrency tutorial", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "The Rust Book", hits[0].Title)
	assert.Equal(t, "https://tokio.rs/", hits[1].URL)
}

func TestSearchEmptyResults(t *testing.T) {
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, true, map[string]any{"results": []any{}}, "")
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	hits, err := c.Search(context.Background(), "obscure topic", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchEmptyQuery(t *testing.T) {
	c, _ := newTestClient(t, "http://localhost:1")
	_, err := c.Search(context.Background(), "", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestSearchStrictEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		respond http.HandlerFunc
		wantMsg string
	}{
		{
			name: "missing success flag",
			respond: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data": {"results": []}}`))
			},
			wantMsg: "missing success flag",
		},
		{
			name: "success false carries server detail",
			respond: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, false, nil, "search provider unavailable")
			},
			wantMsg: "search provider unavailable",
		},
		{
			name: "success without data",
			respond: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": true}`))
			},
			wantMsg: "missing data payload",
		},
		{
			name: "data without results field",
			respond: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, true, map[string]any{"items": []any{}}, "")
			},
			wantMsg: "missing results field",
		},
		{
			name: "non-json body",
			respond: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>gateway error</html>`))
			},
			wantMsg: "malformed response envelope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(backendHandler("/search", tt.respond))
			defer srv.Close()

			c, _ := newTestClient(t, srv.URL)
			_, err := c.Search(context.Background(), "anything", 5)
			require.Error(t, err)

			var opErr *OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, "search", opErr.Operation)
			assert.Contains(t, opErr.Message, tt.wantMsg)
		})
	}
}

func TestSearchRateLimitedNotRetried(t *testing.T) {
	var mu sync.Mutex
	searchCalls := 0
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		searchCalls++
		mu.Unlock()
		w.Header().Set(headerRateLimitRemaining, "0")
		w.Header().Set(headerRateLimitReset, "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL)
	_, err := c.Search(context.Background(), "python tutorial", 5)
	require.Error(t, err)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 0, rlErr.Remaining)
	assert.False(t, rlErr.ResetTime.IsZero())

	mu.Lock()
	assert.Equal(t, 1, searchCalls, "rate-limited request must not be retried inline")
	mu.Unlock()

	// The surfaced window now gates subsequent calls.
	assert.True(t, c.mgr.RateLimit().IsLimited(clock.now()))
}

func TestSearchServerErrorNotRetried(t *testing.T) {
	var mu sync.Mutex
	searchCalls := 0
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		searchCalls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	_, err := c.Search(context.Background(), "go generics", 5)
	require.Error(t, err)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, http.StatusInternalServerError, opErr.StatusCode)
	assert.Contains(t, opErr.Message, "upstream exploded")

	mu.Lock()
	assert.Equal(t, 1, searchCalls)
	mu.Unlock()
}

func TestSearchRetriesTransportFailure(t *testing.T) {
	var mu sync.Mutex
	searchCalls := 0
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		searchCalls++
		first := searchCalls == 1
		mu.Unlock()
		if first {
			// Drop the connection mid-request to simulate a transient
			// transport failure.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		writeEnvelope(w, true, map[string]any{"results": []any{}}, "")
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL)
	hits, err := c.Search(context.Background(), "kubernetes", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	mu.Lock()
	assert.Equal(t, 2, searchCalls)
	mu.Unlock()
	assert.NotEmpty(t, clock.recorded(), "retry must back off before reattempting")
}

func TestCrawl(t *testing.T) {
	srv := httptest.NewServer(backendHandler("/scrape", func(w http.ResponseWriter, r *http.Request) {
		var req crawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com/article", req.URL)

		writeEnvelope(w, true, map[string]any{
			"content": "page body",
			"format":  "markdown",
		}, "")
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL)
	content, err := c.Crawl(context.Background(), "https://example.com/article")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/article", content.URL)
	assert.Equal(t, clock.now(), content.FetchedAt)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(content.Data, &payload))
	assert.Equal(t, "page body", payload["content"])
}

func TestCrawlEmptyURL(t *testing.T) {
	c, _ := newTestClient(t, "http://localhost:1")
	_, err := c.Crawl(context.Background(), "")
	require.Error(t, err)
}

func TestClientConnectsOnDemand(t *testing.T) {
	var mu sync.Mutex
	healthCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			mu.Lock()
			healthCalls++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
			return
		}
		writeEnvelope(w, true, map[string]any{"results": []any{}}, "")
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	assert.Equal(t, StateDisconnected, c.mgr.State())

	_, err := c.Search(context.Background(), "typescript", 5)
	require.NoError(t, err)
	assert.Equal(t, StateConnected, c.mgr.State())

	mu.Lock()
	assert.Equal(t, 1, healthCalls)
	mu.Unlock()
}

func TestSearchWaitsForExhaustedWindow(t *testing.T) {
	var (
		mu               sync.Mutex
		mgr              *Manager
		limitedAtArrival []bool
	)
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		limitedAtArrival = append(limitedAtArrival, mgr.RateLimit().IsLimited(mgr.now()))
		mu.Unlock()
		writeEnvelope(w, true, map[string]any{"results": []any{}}, "")
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL)
	mu.Lock()
	mgr = c.mgr
	mu.Unlock()

	now := clock.now()
	c.mgr.rlMu.Lock()
	c.mgr.window = RateLimitWindow{
		RequestsRemaining: 0,
		ResetTime:         now.Add(1200 * time.Millisecond),
		WindowStart:       now,
	}
	c.mgr.rlMu.Unlock()

	hits, err := c.Search(context.Background(), "go channels", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	mu.Lock()
	require.Len(t, limitedAtArrival, 1)
	assert.False(t, limitedAtArrival[0], "request must not reach the backend while the window is exhausted")
	mu.Unlock()

	// The wait consumed the window before the request went out.
	assert.NotEmpty(t, clock.recorded())
	assert.False(t, clock.now().Before(now.Add(1200*time.Millisecond)))
}

func TestRetryAwaitsWindowSetDuringBackoff(t *testing.T) {
	var (
		mu               sync.Mutex
		mgr              *Manager
		searchCalls      int
		limitedAtArrival []bool
	)
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		searchCalls++
		first := searchCalls == 1
		limitedAtArrival = append(limitedAtArrival, mgr.RateLimit().IsLimited(mgr.now()))
		mu.Unlock()
		if first {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		writeEnvelope(w, true, map[string]any{"results": []any{}}, "")
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL)
	mu.Lock()
	mgr = c.mgr
	mu.Unlock()

	// During the backoff sleep after the dropped connection, a
	// concurrent request exhausts the shared window.
	innerSleep := c.mgr.sleep
	exhausted := false
	c.mgr.sleep = func(ctx context.Context, d time.Duration) error {
		if !exhausted {
			exhausted = true
			now := clock.now()
			c.mgr.rlMu.Lock()
			c.mgr.window = RateLimitWindow{
				RequestsRemaining: 0,
				ResetTime:         now.Add(2 * time.Second),
				WindowStart:       now,
			}
			c.mgr.rlMu.Unlock()
		}
		return innerSleep(ctx, d)
	}

	resetAt := clock.now().Add(2 * time.Second)
	hits, err := c.Search(context.Background(), "go channels", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	mu.Lock()
	require.Equal(t, 2, searchCalls)
	assert.False(t, limitedAtArrival[1], "retry must wait out a window exhausted during backoff")
	mu.Unlock()
	assert.False(t, clock.now().Before(resetAt), "retry must not go out before the window resets")
}

func TestClientTracksRateLimitHeaders(t *testing.T) {
	srv := httptest.NewServer(backendHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerRateLimitUsed, "7")
		w.Header().Set(headerRateLimitRemaining, "53")
		w.Header().Set(headerRateLimitReset, "45")
		writeEnvelope(w, true, map[string]any{"results": []any{}}, "")
	}))
	defer srv.Close()

	c, clock := newTestClient(t, srv.URL)
	_, err := c.Search(context.Background(), "elixir", 5)
	require.NoError(t, err)

	w := c.mgr.RateLimit()
	assert.Equal(t, 7, w.RequestsMade)
	assert.Equal(t, 53, w.RequestsRemaining)
	assert.Equal(t, clock.now().Add(45*time.Second), w.ResetTime)
	assert.False(t, w.IsLimited(clock.now()))
}
