package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

// Client issues search and crawl operations against the discovery
// backend through a Manager-owned session. It is safe for concurrent
// use; in-flight requests are bounded by the manager's MaxConcurrent
// setting.
type Client struct {
	mgr    *Manager
	logger *zap.Logger
	sem    *semaphore.Weighted
}

// NewClient creates a Client on top of an established or establishable
// session.
func NewClient(mgr *Manager, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		mgr:    mgr,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(mgr.cfg.MaxConcurrent)),
	}
}

// envelope is the backend's response wrapper. Every field is checked
// strictly: a missing success flag or absent data payload is an
// operation failure, never a zero-value result.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// searchRequest is the body of a search call.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// searchData is the payload of a successful search response. Results
// must be present, even when empty.
type searchData struct {
	Results *[]types.SearchHit `json:"results"`
}

// crawlRequest is the body of a scrape call.
type crawlRequest struct {
	URL string `json:"url"`
}

// Search runs a single query against the backend and returns the raw
// hits. An empty result list is a valid outcome.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	body, err := c.do(ctx, "search", query, "/search", searchRequest{
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, err
	}

	var data searchData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &OperationError{
			Operation: "search",
			Target:    query,
			Message:   fmt.Sprintf("malformed search payload: %v", err),
		}
	}
	if data.Results == nil {
		return nil, &OperationError{
			Operation: "search",
			Target:    query,
			Message:   "search payload missing results field",
		}
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("hits", len(*data.Results)))
	return *data.Results, nil
}

// Crawl fetches the content behind a URL. The payload is returned
// opaquely; callers hand it to downstream extraction.
func (c *Client) Crawl(ctx context.Context, target string) (*types.CrawlContent, error) {
	if target == "" {
		return nil, fmt.Errorf("url must not be empty")
	}

	body, err := c.do(ctx, "crawl", target, "/scrape", crawlRequest{URL: target})
	if err != nil {
		return nil, err
	}

	content := &types.CrawlContent{
		URL:       target,
		Data:      body,
		FetchedAt: c.mgr.now(),
	}
	c.logger.Debug("crawl completed",
		zap.String("url", target),
		zap.Int("bytes", len(body)))
	return content, nil
}

// do runs one backend operation end to end: acquire a concurrency
// slot, ensure the session is connected, then POST with retries on
// transient transport errors. The server-reported rate-limit window is
// awaited and the client-side limiter consulted before every attempt,
// so a window exhausted by a concurrent request during a retry backoff
// is still honored. Explicit rate-limit responses and backend-reported
// failures are never retried inline.
func (c *Client) do(ctx context.Context, op, target, path string, payload any) (json.RawMessage, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if err := c.mgr.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op, err)
	}

	var lastErr error
	attempts := c.mgr.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(c.mgr.cfg.RetryDelay, c.mgr.cfg.BackoffFactor, attempt-1)
			c.logger.Debug("retrying request",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if err := c.mgr.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := c.mgr.WaitForRateLimitReset(ctx); err != nil {
			return nil, err
		}
		if err := c.mgr.waitTurn(ctx); err != nil {
			return nil, err
		}

		data, err := c.post(ctx, op, target, path, reqBody, attempt)
		if err == nil {
			return data, nil
		}

		// Rate-limit and backend-reported errors fail fast.
		var rle *RateLimitError
		var oe *OperationError
		if errors.As(err, &rle) || errors.As(err, &oe) {
			return nil, err
		}
		if !isRetriable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%s %q failed after %d attempts: %w", op, target, attempts, lastErr)
}

// post issues one HTTP attempt and decodes the strict envelope.
func (c *Client) post(ctx context.Context, op, target, path string, body []byte, attempt int) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mgr.cfg.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.mgr.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.mgr.cfg.APIKey)
	}

	resp, err := c.mgr.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	c.mgr.recordResponse(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		w := c.mgr.RateLimit()
		return nil, &RateLimitError{
			Operation: op,
			Target:    target,
			Remaining: w.RequestsRemaining,
			ResetTime: w.ResetTime,
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &OperationError{
			Operation:  op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Attempts:   attempt,
			Message:    truncateBody(raw),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &OperationError{
			Operation:  op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Attempts:   attempt,
			Message:    fmt.Sprintf("malformed response envelope: %v", err),
		}
	}
	if env.Success == nil {
		return nil, &OperationError{
			Operation:  op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Attempts:   attempt,
			Message:    "response missing success flag",
		}
	}
	if !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "backend reported failure without detail"
		}
		return nil, &OperationError{
			Operation:  op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Attempts:   attempt,
			Message:    msg,
		}
	}
	if len(env.Data) == 0 {
		return nil, &OperationError{
			Operation:  op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Attempts:   attempt,
			Message:    "successful response missing data payload",
		}
	}
	return env.Data, nil
}

const maxResponseBytes = 10 << 20

func truncateBody(b []byte) string {
	const limit = 512
	s := string(b)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
