package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/logger"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
	"github.com/bandroom-dev/bandroom-sync-server/internal/telemetry"
)

// ReviewEnqueuer queues a low-confidence candidate for human review and
// returns its id.
type ReviewEnqueuer interface {
	Enqueue(ctx context.Context, candidate *store.ReviewCandidate) (uuid.UUID, error)
}

// Orchestrator drives one sync job from unit enumeration through its
// terminal frame. Unit processing is strictly sequential within a job;
// concurrency happens across jobs, each with its own registry entry and
// stream.
type Orchestrator struct {
	registry  Registry
	splitter  Splitter
	resolvers map[Kind]Resolver
	reviews   ReviewEnqueuer
	metrics   *telemetry.SyncMetrics
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithMetrics attaches sync metrics. A nil value disables recording.
func WithMetrics(m *telemetry.SyncMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an orchestrator with one resolver per job kind.
func NewOrchestrator(
	registry Registry,
	splitter Splitter,
	resolvers map[Kind]Resolver,
	reviews ReviewEnqueuer,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		splitter:  splitter,
		resolvers: resolvers,
		reviews:   reviews,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes a job to its terminal state, writing frames to the encoder
// as it goes. The stream is observational only: if a frame write fails the
// job keeps processing and finishes normally, it just stops writing. Every
// started job ends with exactly one terminal frame (complete, cancelled, or
// error) while the stream is alive.
func (o *Orchestrator) Run(ctx context.Context, job Job, req Request, enc *Encoder) Job {
	start := time.Now()
	o.metrics.RecordJobStart(ctx, string(job.Kind))
	defer func() {
		final, _ := o.registry.Get(job.ID)
		o.metrics.RecordJobEnd(ctx, string(job.Kind), string(final.Status), time.Since(start))
	}()

	stream := &streamState{enc: enc, syncID: job.ID}
	stream.emit(InitEvent{SyncID: job.ID})

	units, err := o.splitter.Split(ctx, req)
	if err != nil {
		logger.Errorf("Sync %s failed to enumerate units: %v", job.ID, err)
		stream.emit(ErrorEvent{Message: fmt.Sprintf("enumerating work units: %v", err)})
		return o.registry.Finish(job.ID, StatusFailed)
	}

	o.registry.MarkRunning(job.ID, len(units))
	logger.Infof("Sync %s (%s) started with %d units", job.ID, job.Kind, len(units))

	resolver := o.resolvers[job.Kind]
	for _, unit := range units {
		// Cancellation is cooperative and observed only between units so
		// an in-flight unit is always counted before the job stops.
		if o.registry.CancelRequested(job.ID) {
			return o.finishCancelled(ctx, job.ID, stream)
		}

		stream.emit(UnitStartedEvent{Index: unit.Index, Total: unit.Total, Label: unit.Label})

		outcome := o.resolveUnit(ctx, resolver, unit, req.Options)
		outcome = o.enqueueReview(ctx, outcome)

		o.registry.RecordOutcome(job.ID, outcome.Kind)
		o.metrics.RecordUnitOutcome(ctx, string(job.Kind), string(outcome.Kind))
		stream.emit(outcomeEvent(outcome))

		current, _ := o.registry.Get(job.ID)
		stream.emit(progressEvent(current.Totals))
	}

	final := o.registry.Finish(job.ID, StatusCompleted)
	stream.emit(CompleteEvent{Totals: final.Totals, Counters: final.Counters})
	logger.Infow("Sync completed",
		"syncId", job.ID,
		"kind", job.Kind,
		"imported", final.Counters.Imported,
		"skipped", final.Counters.Skipped,
		"failed", final.Counters.Failed,
		"pendingReview", final.Counters.PendingReview,
	)
	return final
}

// resolveUnit invokes the resolver with panic containment. A panicking
// resolver yields a permanent failure for that unit only; the job goes on.
func (o *Orchestrator) resolveUnit(ctx context.Context, resolver Resolver, unit WorkUnit, opts Options) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Resolver panicked on unit %d: %v", unit.Index, r)
			outcome = Failed(ErrorPermanent, fmt.Sprintf("internal error resolving unit: %v", r))
		}
	}()
	if resolver == nil {
		return Failed(ErrorPermanent, "no resolver registered for job kind")
	}
	return resolver.Resolve(ctx, unit, opts)
}

// enqueueReview persists a needs_review candidate. An enqueue failure
// demotes the outcome to failed so the counters invariant still holds.
func (o *Orchestrator) enqueueReview(ctx context.Context, outcome Outcome) Outcome {
	if outcome.Kind != OutcomeNeedsReview || outcome.Review == nil {
		return outcome
	}
	reviewID, err := o.reviews.Enqueue(ctx, outcome.Review)
	if err != nil {
		logger.Errorf("Failed to enqueue review for song %s: %v", outcome.Review.SongID, err)
		return Failed(ErrorTransient, fmt.Sprintf("queuing review candidate: %v", err))
	}
	outcome.Review.ID = reviewID
	return outcome
}

func (o *Orchestrator) finishCancelled(_ context.Context, id uuid.UUID, stream *streamState) Job {
	final := o.registry.Finish(id, StatusCancelled)
	stream.emit(CancelledEvent{Totals: final.Totals, Counters: final.Counters})
	logger.Infof("Sync %s cancelled after %d of %d units", id, final.Totals.Done, final.Totals.Units)
	return final
}

// outcomeEvent maps a unit outcome to its stream frame.
func outcomeEvent(outcome Outcome) Event {
	switch outcome.Kind {
	case OutcomeImported:
		return ItemImportedEvent{RecordID: outcome.RecordID}
	case OutcomeSkipped:
		return ItemSkippedEvent{RecordID: outcome.RecordID, Reason: outcome.SkipReason}
	case OutcomeNeedsReview:
		return ItemNeedsReviewEvent{
			ReviewID:   outcome.Review.ID,
			SongID:     outcome.Review.SongID,
			Confidence: outcome.Review.Confidence,
		}
	default:
		return ItemFailedEvent{Class: outcome.Class, Reason: outcome.Reason}
	}
}

func progressEvent(totals Totals) ProgressEvent {
	percentage := 0
	if totals.Units > 0 {
		percentage = totals.Done * 100 / totals.Units
	}
	return ProgressEvent{Completed: totals.Done, Total: totals.Units, Percentage: percentage}
}

// streamState tracks whether the client connection is still usable. After
// the first write failure it logs once and swallows further frames; the
// job itself is unaffected.
type streamState struct {
	enc    *Encoder
	syncID uuid.UUID
	lost   bool
}

func (s *streamState) emit(ev Event) {
	if s.lost || s.enc == nil {
		return
	}
	if err := s.enc.Encode(ev); err != nil {
		logger.Warnf("Stream for sync %s lost, continuing without it: %v", s.syncID, err)
		s.lost = true
	}
}
