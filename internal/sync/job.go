package sync

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which external dataset a job synchronizes
type Kind string

const (
	// KindCalendarImport imports historical calendar events
	KindCalendarImport Kind = "CALENDAR_IMPORT"

	// KindCatalogMatch matches local songs against the external music catalog
	KindCatalogMatch Kind = "CATALOG_MATCH"
)

// Valid reports whether k is a known job kind
func (k Kind) Valid() bool {
	return k == KindCalendarImport || k == KindCatalogMatch
}

// Status represents the lifecycle state of a sync job
type Status string

const (
	// StatusPending means the job exists but has not dispatched its first unit
	StatusPending Status = "PENDING"

	// StatusRunning means the job is processing units
	StatusRunning Status = "RUNNING"

	// StatusCancelling means a cancel was requested and the job will stop at
	// the next unit boundary
	StatusCancelling Status = "CANCELLING"

	// StatusCancelled means the job stopped at a unit boundary after a cancel
	StatusCancelled Status = "CANCELLED"

	// StatusCompleted means every unit was dispatched and resolved
	StatusCompleted Status = "COMPLETED"

	// StatusFailed means an orchestrator-level fatal condition aborted the job
	StatusFailed Status = "FAILED"
)

// IsTerminal reports whether the status is final
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusFailed
}

// Totals tracks unit progress for a job
type Totals struct {
	Units int `json:"units"`
	Done  int `json:"done"`
}

// Counters tracks per-outcome unit counts. For a completed job,
// Imported+Skipped+Failed+PendingReview equals Totals.Units exactly.
type Counters struct {
	Imported      int `json:"imported"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
	PendingReview int `json:"pendingReview"`
}

// Sum returns the total number of counted units
func (c Counters) Sum() int {
	return c.Imported + c.Skipped + c.Failed + c.PendingReview
}

// Job is a sync job record. Snapshots returned by the registry are copies;
// only the registry mutates the authoritative entry.
type Job struct {
	ID                uuid.UUID  `json:"id"`
	Kind              Kind       `json:"kind"`
	Status            Status     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	CancelRequestedAt *time.Time `json:"cancelRequestedAt,omitempty"`
	Totals            Totals     `json:"totals"`
	Counters          Counters   `json:"counters"`
}
