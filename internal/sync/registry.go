package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/logger"
)

// ErrJobNotFound is returned when a job id is unknown or already evicted.
var ErrJobNotFound = errors.New("sync job not found")

// evictionInterval is how often the janitor sweeps terminal jobs.
const evictionInterval = time.Minute

// Registry is the single source of truth for job lifecycle. It is the only
// shared mutable state between the start and cancel entry points: reads are
// concurrent, the cancel flag write is atomic per job id.
//
// The registry is in-memory and scoped to this service instance. Horizontal
// scaling requires an externally shared registry; cross-instance job
// tracking is a future extension.
type Registry interface {
	// Create registers a new PENDING job and returns a snapshot of it.
	Create(kind Kind) Job

	// Get returns a snapshot of a job. Returns false when the id is unknown
	// or the job has been evicted.
	Get(id uuid.UUID) (Job, bool)

	// RequestCancel sets the cancel flag for a running or pending job. It is
	// a no-op on jobs already in a terminal state, so fire-and-forget cancel
	// calls and UI double-submits are safe. Returns ErrJobNotFound for
	// unknown ids.
	RequestCancel(id uuid.UUID) (Job, error)

	// CancelRequested reports whether a cancel has been requested for the
	// job. Checked by the orchestrator at unit boundaries only.
	CancelRequested(id uuid.UUID) bool

	// MarkRunning transitions a job to RUNNING and records the unit total.
	MarkRunning(id uuid.UUID, totalUnits int)

	// RecordOutcome increments the counter for one resolved unit.
	RecordOutcome(id uuid.UUID, kind OutcomeKind)

	// Finish transitions a job to the given terminal status and returns the
	// final snapshot. The entry stays queryable for the retention window so
	// late cancels and status polls don't error.
	Finish(id uuid.UUID, status Status) Job

	// RunEviction sweeps terminal jobs past the retention window until the
	// context is cancelled.
	RunEviction(ctx context.Context)
}

// inMemoryRegistry is the default single-instance Registry implementation
type inMemoryRegistry struct {
	mu        sync.RWMutex
	jobs      map[uuid.UUID]*jobEntry
	retention time.Duration
	clock     func() time.Time
}

// jobEntry is the authoritative job record plus eviction bookkeeping
type jobEntry struct {
	job        Job
	finishedAt time.Time
}

// NewRegistry creates an in-memory job registry. Terminal jobs are evicted
// after the retention window.
func NewRegistry(retention time.Duration) Registry {
	return &inMemoryRegistry{
		jobs:      make(map[uuid.UUID]*jobEntry),
		retention: retention,
		clock:     time.Now,
	}
}

func (r *inMemoryRegistry) Create(kind Kind) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := Job{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: r.clock(),
	}
	r.jobs[job.ID] = &jobEntry{job: job}
	return job
}

func (r *inMemoryRegistry) Get(id uuid.UUID) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return entry.job, true
}

func (r *inMemoryRegistry) RequestCancel(id uuid.UUID) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}

	// Cancelling a terminal job is a no-op, not an error
	if entry.job.Status.IsTerminal() {
		return entry.job, nil
	}

	if entry.job.CancelRequestedAt == nil {
		now := r.clock()
		entry.job.CancelRequestedAt = &now
		entry.job.Status = StatusCancelling
	}
	return entry.job, nil
}

func (r *inMemoryRegistry) CancelRequested(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.jobs[id]
	if !ok {
		return false
	}
	return entry.job.CancelRequestedAt != nil
}

func (r *inMemoryRegistry) MarkRunning(id uuid.UUID, totalUnits int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[id]
	if !ok {
		return
	}
	entry.job.Totals.Units = totalUnits
	// A cancel may already have been requested; don't clobber CANCELLING
	if entry.job.Status == StatusPending {
		entry.job.Status = StatusRunning
	}
}

func (r *inMemoryRegistry) RecordOutcome(id uuid.UUID, kind OutcomeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[id]
	if !ok {
		return
	}

	switch kind {
	case OutcomeImported:
		entry.job.Counters.Imported++
	case OutcomeSkipped:
		entry.job.Counters.Skipped++
	case OutcomeNeedsReview:
		entry.job.Counters.PendingReview++
	case OutcomeFailed:
		entry.job.Counters.Failed++
	}
	entry.job.Totals.Done++
}

func (r *inMemoryRegistry) Finish(id uuid.UUID, status Status) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[id]
	if !ok {
		return Job{}
	}
	entry.job.Status = status
	entry.finishedAt = r.clock()
	return entry.job
}

func (r *inMemoryRegistry) RunEviction(ctx context.Context) {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.evictExpired(); n > 0 {
				logger.Debugf("Evicted %d expired sync jobs", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// evictExpired removes terminal jobs older than the retention window and
// returns how many were removed.
func (r *inMemoryRegistry) evictExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock().Add(-r.retention)
	evicted := 0
	for id, entry := range r.jobs {
		if entry.job.Status.IsTerminal() && entry.finishedAt.Before(cutoff) {
			delete(r.jobs, id)
			evicted++
		}
	}
	return evicted
}
