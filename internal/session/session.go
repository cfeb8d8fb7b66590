// Package session tracks in-flight and recently finished crawl jobs for
// the lifetime of a process. Jobs live only in memory; finished jobs are
// evicted after a retention window so long-running sessions do not grow
// without bound.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

// JobState describes where a crawl job is in its lifecycle.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// IsValid checks if the job state is a known value.
func (s JobState) IsValid() bool {
	switch s {
	case JobPending, JobRunning, JobCompleted, JobFailed:
		return true
	}
	return false
}

// terminal reports whether the job will not change state again.
func (s JobState) terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CrawlJob records one crawl request and its outcome.
type CrawlJob struct {
	ID          string              `json:"id"`
	URL         string              `json:"url"`
	State       JobState            `json:"state"`
	Content     *types.CrawlContent `json:"content,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt time.Time           `json:"completed_at,omitempty"`
}

// DefaultRetention is how long finished jobs stay visible.
const DefaultRetention = 30 * time.Minute

// Store is an in-memory crawl job registry. It is safe for concurrent
// use.
type Store struct {
	mu        sync.Mutex
	jobs      map[string]*CrawlJob
	retention time.Duration

	now func() time.Time
}

// NewStore creates a Store. A non-positive retention falls back to
// DefaultRetention.
func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		jobs:      make(map[string]*CrawlJob),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a new pending job for the given URL and returns a
// snapshot of it.
func (s *Store) Create(url string) CrawlJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()

	job := &CrawlJob{
		ID:        uuid.NewString(),
		URL:       url,
		State:     JobPending,
		CreatedAt: s.now(),
	}
	s.jobs[job.ID] = job
	return *job
}

// Get returns a snapshot of the job with the given id.
func (s *Store) Get(id string) (CrawlJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()

	job, ok := s.jobs[id]
	if !ok {
		return CrawlJob{}, false
	}
	return *job, true
}

// Start marks a pending job as running.
func (s *Store) Start(id string) error {
	return s.transition(id, func(job *CrawlJob) error {
		if job.State != JobPending {
			return fmt.Errorf("job %s is %s, not pending", id, job.State)
		}
		job.State = JobRunning
		return nil
	})
}

// Complete stores the crawl result on a running job.
func (s *Store) Complete(id string, content *types.CrawlContent) error {
	return s.transition(id, func(job *CrawlJob) error {
		if job.State.terminal() {
			return fmt.Errorf("job %s already finished as %s", id, job.State)
		}
		job.State = JobCompleted
		job.Content = content
		job.CompletedAt = s.now()
		return nil
	})
}

// Fail records the failure reason on a job.
func (s *Store) Fail(id string, reason string) error {
	return s.transition(id, func(job *CrawlJob) error {
		if job.State.terminal() {
			return fmt.Errorf("job %s already finished as %s", id, job.State)
		}
		job.State = JobFailed
		job.Error = reason
		job.CompletedAt = s.now()
		return nil
	})
}

func (s *Store) transition(id string, apply func(*CrawlJob) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("unknown job %s", id)
	}
	return apply(job)
}

// List returns snapshots of all tracked jobs, oldest first.
func (s *Store) List() []CrawlJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()

	out := make([]CrawlJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of tracked jobs after eviction.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	return len(s.jobs)
}

// evictLocked drops finished jobs past the retention window. Running
// and pending jobs are never evicted.
func (s *Store) evictLocked() {
	cutoff := s.now().Add(-s.retention)
	for id, job := range s.jobs {
		if job.State.terminal() && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
