// Package curator wires classification, discovery, ranking and
// duplicate detection into one content-curation surface. The CLI and
// REPL talk to a Curator; everything below it stays composable on its
// own.
package curator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TianxingChang/Kairos-sub000/internal/classify"
	"github.com/TianxingChang/Kairos-sub000/internal/config"
	"github.com/TianxingChang/Kairos-sub000/internal/dedup"
	"github.com/TianxingChang/Kairos-sub000/internal/discovery"
	"github.com/TianxingChang/Kairos-sub000/internal/ranking"
	"github.com/TianxingChang/Kairos-sub000/internal/session"
	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

// Curator is the top-level curation service. It is safe for concurrent
// use.
type Curator struct {
	cfg        config.Config
	classifier *classify.Classifier
	mgr        *discovery.Manager
	client     *discovery.Client
	detector   *dedup.Detector
	jobs       *session.Store
	logger     *zap.Logger
}

// SearchResult is the outcome of a topic search: ranked resources plus
// metadata about how the search was executed.
type SearchResult struct {
	Resources []types.LearningResource `json:"resources"`
	Metadata  types.SearchMetadata     `json:"metadata"`
}

// DuplicateReport pairs the individual matches with the transitive
// duplicate groups derived from them.
type DuplicateReport struct {
	Matches []types.DuplicateMatch `json:"matches"`
	Groups  [][]string             `json:"groups"`
}

// New builds a Curator from the application configuration.
func New(cfg config.Config, logger *zap.Logger) (*Curator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mgr, err := discovery.NewManager(cfg.Discovery(), logger)
	if err != nil {
		return nil, fmt.Errorf("building discovery session: %w", err)
	}

	dedupCfg, err := dedup.ConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("building dedup config: %w", err)
	}
	detector, err := dedup.NewDetector(dedupCfg)
	if err != nil {
		return nil, fmt.Errorf("building duplicate detector: %w", err)
	}

	return &Curator{
		cfg:        cfg,
		classifier: classify.New(),
		mgr:        mgr,
		client:     discovery.NewClient(mgr, logger),
		detector:   detector,
		jobs:       session.NewStore(session.DefaultRetention),
		logger:     logger,
	}, nil
}

// Close tears down the backend session. The curator cannot be reused
// afterwards.
func (c *Curator) Close() {
	c.mgr.Disconnect()
}

// Classify parses a free-text command into a dispatchable intent.
func (c *Curator) Classify(text string) types.ParsedCommand {
	return c.classifier.Classify(text)
}

// SearchTopic finds, ranks and filters learning resources for a topic.
// The topic is expanded into optimized queries, each query is run
// against the backend, and the aggregated hits are ranked. Individual
// query failures are tolerated as long as at least one query succeeds;
// an explicit rate limit aborts the remaining queries.
func (c *Curator) SearchTopic(ctx context.Context, topic string) (*SearchResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}

	start := time.Now()
	queries := ranking.Optimize(topic, ranking.QueryOptions{})

	var (
		hits     []types.SearchHit
		seen     = make(map[string]bool)
		executed []string
		lastErr  error
	)
	for _, query := range queries {
		qhits, err := c.client.Search(ctx, query, c.cfg.MaxResults)
		if err != nil {
			var rlErr *discovery.RateLimitError
			if errors.As(err, &rlErr) {
				// The window is exhausted; further queries would only
				// trip it again.
				lastErr = err
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("query failed, continuing with remaining queries",
				zap.String("query", query),
				zap.Error(err))
			lastErr = err
			continue
		}
		executed = append(executed, query)
		for _, hit := range qhits {
			key := strings.ToLower(hit.URL)
			if hit.URL == "" || seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, hit)
		}
	}

	if len(executed) == 0 {
		return nil, fmt.Errorf("topic search %q: all %d queries failed: %w", topic, len(queries), lastErr)
	}

	resources := ranking.Rank(hits, topic, ranking.RankOptions{
		Limit:           c.cfg.MaxResults,
		MaxPerDomain:    c.cfg.MaxPerDomain,
		EducationalOnly: c.cfg.EducationalDomainsOnly,
	})

	result := &SearchResult{
		Resources: resources,
		Metadata: types.SearchMetadata{
			Topic:     topic,
			Queries:   executed,
			TotalHits: len(hits),
			Duration:  time.Since(start),
			Truncated: len(hits) > len(resources),
		},
	}
	c.logger.Info("topic search completed",
		zap.String("topic", topic),
		zap.Int("queries", len(executed)),
		zap.Int("hits", len(hits)),
		zap.Int("ranked", len(resources)))
	return result, nil
}

// Crawl fetches the content behind a URL and records the attempt as a
// session job. The returned job snapshot carries the content on
// success and the failure reason otherwise.
func (c *Curator) Crawl(ctx context.Context, url string) (session.CrawlJob, error) {
	job := c.jobs.Create(url)
	if err := c.jobs.Start(job.ID); err != nil {
		return job, err
	}

	content, err := c.client.Crawl(ctx, url)
	if err != nil {
		if failErr := c.jobs.Fail(job.ID, err.Error()); failErr != nil {
			c.logger.Warn("recording crawl failure", zap.Error(failErr))
		}
		snapshot, _ := c.jobs.Get(job.ID)
		return snapshot, err
	}

	if err := c.jobs.Complete(job.ID, content); err != nil {
		return job, err
	}
	snapshot, _ := c.jobs.Get(job.ID)
	c.logger.Info("crawl completed",
		zap.String("url", url),
		zap.String("job_id", job.ID))
	return snapshot, nil
}

// Jobs returns all crawl jobs tracked in this session, oldest first.
func (c *Curator) Jobs() []session.CrawlJob {
	return c.jobs.List()
}

// DetectDuplicates runs the offline duplicate scan over previously
// stored items and derives transitive duplicate groups.
func (c *Curator) DetectDuplicates(items []types.StoredItem) DuplicateReport {
	matches := c.detector.Detect(items)
	report := DuplicateReport{
		Matches: matches,
		Groups:  dedup.Group(matches),
	}
	c.logger.Info("duplicate scan completed",
		zap.Int("items", len(items)),
		zap.Int("matches", len(matches)),
		zap.Int("groups", len(report.Groups)))
	return report
}

// Health reports the backend session health and rate-limit snapshot.
func (c *Curator) Health(ctx context.Context) (discovery.HealthStatus, error) {
	return c.mgr.HealthCheck(ctx)
}

// Connect eagerly establishes the backend session. Operations connect
// on demand, so calling this is optional.
func (c *Curator) Connect(ctx context.Context) error {
	return c.mgr.Connect(ctx)
}
