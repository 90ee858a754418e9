package sync

import (
	"errors"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/sources"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
)

// OutcomeKind classifies the terminal result of one work unit
type OutcomeKind string

const (
	// OutcomeImported means the record was written to local storage
	OutcomeImported OutcomeKind = "imported"
	// OutcomeSkipped means the unit was intentionally not imported
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeNeedsReview means a review candidate was queued instead of applying
	OutcomeNeedsReview OutcomeKind = "needs_review"
	// OutcomeFailed means the unit could not be processed
	OutcomeFailed OutcomeKind = "failed"
)

// ErrorClass distinguishes retryable failures from permanent ones
type ErrorClass string

const (
	// ErrorTransient failures may succeed on a later run (timeouts, rate limits)
	ErrorTransient ErrorClass = "transient"
	// ErrorPermanent failures will not succeed without intervention
	ErrorPermanent ErrorClass = "permanent"
)

// Skip reasons reported in progress events
const (
	SkipReasonDuplicate     = "duplicate"
	SkipReasonLowConfidence = "low_confidence"
)

// Outcome is the result of resolving a single work unit. Exactly one unit
// produces exactly one outcome; the orchestrator maps it to a counter
// increment and a progress event.
type Outcome struct {
	Kind OutcomeKind

	// RecordID is the local id of the affected record, when one exists
	RecordID uuid.UUID

	// SkipReason is set for skipped outcomes
	SkipReason string

	// Review is set for needs_review outcomes; the orchestrator enqueues it
	Review *store.ReviewCandidate

	// Class and Reason are set for failed outcomes
	Class  ErrorClass
	Reason string
}

// Imported builds an outcome for a successfully written record.
func Imported(recordID uuid.UUID) Outcome {
	return Outcome{Kind: OutcomeImported, RecordID: recordID}
}

// SkippedDuplicate builds an outcome for a unit already present locally.
func SkippedDuplicate(existingID uuid.UUID) Outcome {
	return Outcome{Kind: OutcomeSkipped, RecordID: existingID, SkipReason: SkipReasonDuplicate}
}

// SkippedLowConfidence builds an outcome for a match below the review floor.
func SkippedLowConfidence(recordID uuid.UUID) Outcome {
	return Outcome{Kind: OutcomeSkipped, RecordID: recordID, SkipReason: SkipReasonLowConfidence}
}

// NeedsReview builds an outcome carrying a candidate for the review queue.
func NeedsReview(candidate *store.ReviewCandidate) Outcome {
	return Outcome{Kind: OutcomeNeedsReview, RecordID: candidate.SongID, Review: candidate}
}

// Failed builds an outcome for a unit that could not be processed.
func Failed(class ErrorClass, reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Class: class, Reason: reason}
}

// Classify maps a source error to an error class. Unavailability is
// transient, malformed payloads are permanent, and anything unrecognized is
// treated as transient so a retry gets a chance.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, sources.ErrMalformed):
		return ErrorPermanent
	case errors.Is(err, sources.ErrUnavailable):
		return ErrorTransient
	default:
		return ErrorTransient
	}
}
