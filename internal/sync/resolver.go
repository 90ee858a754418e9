package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/matching"
	"github.com/bandroom-dev/bandroom-sync-server/internal/sources"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
)

// Resolver processes one work unit to a terminal outcome. Implementations
// must not panic on malformed input; classify and return a failed outcome
// instead. A returned error is treated as a failed outcome by the caller.
//
//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go Resolver
type Resolver interface {
	Resolve(ctx context.Context, unit WorkUnit, opts Options) Outcome
}

// calendarResolver imports one external event into local storage
type calendarResolver struct {
	calendar sources.CalendarProvider
	store    store.Store
	clock    func() time.Time
}

// NewCalendarResolver creates the resolver for calendar import units.
func NewCalendarResolver(calendar sources.CalendarProvider, st store.Store) Resolver {
	return &calendarResolver{calendar: calendar, store: st, clock: time.Now}
}

func (r *calendarResolver) Resolve(ctx context.Context, unit WorkUnit, _ Options) Outcome {
	if unit.Event == nil {
		return Failed(ErrorPermanent, "unit carries no event reference")
	}

	// Duplicate detection runs regardless of force: re-importing the same
	// external event would split its history across two local records.
	existing, err := r.store.GetEventByExternalID(ctx, unit.Event.ExternalID)
	if err == nil {
		return SkippedDuplicate(existing.ID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Failed(ErrorTransient, fmt.Sprintf("checking for existing event: %v", err))
	}

	event, err := r.calendar.GetEvent(ctx, unit.Event.ExternalID)
	if err != nil {
		return Failed(Classify(err), fmt.Sprintf("fetching event %s: %v", unit.Event.ExternalID, err))
	}

	status := store.EventStatusScheduled
	if event.EndsAt.Before(r.clock()) {
		status = store.EventStatusCompleted
	}

	record := store.Event{
		ID:         uuid.New(),
		ExternalID: event.ExternalID,
		Title:      event.Title,
		Venue:      event.Venue,
		StartsAt:   event.StartsAt,
		EndsAt:     event.EndsAt,
		Status:     status,
	}
	id, err := r.store.InsertEvent(ctx, record)
	if err != nil {
		return Failed(ErrorTransient, fmt.Sprintf("inserting event: %v", err))
	}
	return Imported(id)
}

// ScoreFunc computes a 0-100 confidence for a candidate against local data
type ScoreFunc func(local, candidate matching.Fields) int

// catalogResolver matches one song against the external catalog and applies
// or queues the best candidate according to the confidence thresholds
type catalogResolver struct {
	catalog   sources.CatalogClient
	store     store.Store
	score     ScoreFunc
	threshold int
	floor     int
}

// NewCatalogResolver creates the resolver for catalog match units. The
// threshold is the minimum confidence for automatic application and floor
// is the minimum for queuing a review.
func NewCatalogResolver(catalog sources.CatalogClient, st store.Store, threshold, floor int) Resolver {
	return &catalogResolver{
		catalog:   catalog,
		store:     st,
		score:     matching.Score,
		threshold: threshold,
		floor:     floor,
	}
}

func (r *catalogResolver) Resolve(ctx context.Context, unit WorkUnit, opts Options) Outcome {
	if unit.SongID == nil {
		return Failed(ErrorPermanent, "unit carries no song id")
	}

	threshold := r.threshold
	if opts.AutoApplyThreshold > 0 {
		threshold = opts.AutoApplyThreshold
	}
	floor := r.floor
	if opts.MinConfidence > 0 {
		floor = opts.MinConfidence
	}
	// A single override can invert the band against the configured default;
	// refuse to apply matches under an inverted band.
	if floor >= threshold {
		return Failed(ErrorPermanent, fmt.Sprintf(
			"confidence floor %d is not below auto-apply threshold %d", floor, threshold))
	}

	song, err := r.store.GetSong(ctx, *unit.SongID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Failed(ErrorPermanent, fmt.Sprintf("song %s does not exist", unit.SongID))
		}
		return Failed(ErrorTransient, fmt.Sprintf("loading song: %v", err))
	}

	if song.CatalogID != nil && !opts.Force {
		return SkippedDuplicate(song.ID)
	}

	candidate, err := r.catalog.FindBestMatch(ctx, song.Title, song.Artist)
	if err != nil {
		return Failed(Classify(err), fmt.Sprintf("querying catalog for %q: %v", song.Title, err))
	}
	if candidate == nil {
		return Failed(ErrorPermanent, fmt.Sprintf("no catalog candidate for %q by %q", song.Title, song.Artist))
	}

	local := matching.Fields{
		Title:        song.Title,
		Artist:       song.Artist,
		Album:        song.Album,
		DurationSecs: song.DurationSecs,
	}
	remote := matching.Fields{
		Title:        candidate.Title,
		Artist:       candidate.Artist,
		Album:        candidate.Album,
		DurationSecs: candidate.DurationSecs,
	}
	confidence := r.score(local, remote)

	match := store.CatalogMatch{
		CatalogID:    candidate.ExternalID,
		Title:        candidate.Title,
		Artist:       candidate.Artist,
		Album:        candidate.Album,
		DurationSecs: candidate.DurationSecs,
	}

	switch {
	case confidence >= threshold:
		if err := r.store.ApplyCatalogMatch(ctx, song.ID, match, confidence); err != nil {
			return Failed(ErrorTransient, fmt.Sprintf("applying catalog match: %v", err))
		}
		return Imported(song.ID)
	case confidence >= floor:
		return NeedsReview(&store.ReviewCandidate{
			ID:         uuid.New(),
			SongID:     song.ID,
			Proposed:   match,
			Confidence: confidence,
			Rationale:  matching.Rationale(local, remote, confidence),
			Status:     store.ReviewStatusPending,
		})
	default:
		return SkippedLowConfidence(song.ID)
	}
}
