package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stemwave/stemwave-be/internal/models"
)

const (
	// DefaultCapacity bounds the per-user list.
	DefaultCapacity = 5
	// DefaultFailedGrace is how long a failed job stays visible before the
	// view returns to idle.
	DefaultFailedGrace = 30 * time.Second
)

type entry struct {
	job      models.SeparationJob
	failedAt time.Time
}

// RecentJobs is a bounded per-user view of the latest separation jobs, kept
// for fast UI recall. It is not authoritative: the job table is, and readers
// fall back to it on a miss. Newest first, insertion-order eviction.
type RecentJobs struct {
	mu       sync.Mutex
	capacity int
	grace    time.Duration
	byUser   map[uuid.UUID][]entry

	now func() time.Time // injectable clock
}

// NewRecentJobs creates a cache with the default capacity and grace period.
func NewRecentJobs() *RecentJobs {
	return &RecentJobs{
		capacity: DefaultCapacity,
		grace:    DefaultFailedGrace,
		byUser:   make(map[uuid.UUID][]entry),
		now:      time.Now,
	}
}

// Put inserts or refreshes the cached snapshot of job for its user.
func (c *RecentJobs) Put(job models.SeparationJob) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{job: job}
	if job.Status == models.JobFailed {
		e.failedAt = c.now()
	}

	jobs := c.byUser[job.UserID]
	// Refresh in place when the job is already cached.
	for i := range jobs {
		if jobs[i].job.ID == job.ID {
			jobs[i] = e
			c.byUser[job.UserID] = jobs
			return
		}
	}

	jobs = append([]entry{e}, jobs...)
	if len(jobs) > c.capacity {
		jobs = jobs[:c.capacity]
	}
	c.byUser[job.UserID] = jobs
}

// List returns the cached jobs for a user, newest first. Failed jobs past
// the grace period are dropped so the UI returns to idle.
func (c *RecentJobs) List(userID uuid.UUID) []models.SeparationJob {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.byUser[userID][:0]
	var out []models.SeparationJob
	for _, e := range c.byUser[userID] {
		if !e.failedAt.IsZero() && now.Sub(e.failedAt) > c.grace {
			continue
		}
		kept = append(kept, e)
		out = append(out, e.job)
	}
	if len(kept) == 0 {
		delete(c.byUser, userID)
	} else {
		c.byUser[userID] = kept
	}
	return out
}
