package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/sources"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
)

// Options tunes per-request sync behavior. Zero values fall back to the
// service configuration.
type Options struct {
	// Force re-imports records that already have local data
	Force bool

	// AutoApplyThreshold overrides the configured auto-apply confidence
	AutoApplyThreshold int

	// MinConfidence overrides the configured review floor
	MinConfidence int
}

// validate rejects override values outside the scoring scale or an inverted
// review band. Zero values mean "use the configured default" and pass.
func (o Options) validate() error {
	if o.AutoApplyThreshold < 0 || o.AutoApplyThreshold > 100 {
		return fmt.Errorf("options.autoApplyThreshold must be between 0 and 100, got %d", o.AutoApplyThreshold)
	}
	if o.MinConfidence < 0 || o.MinConfidence > 100 {
		return fmt.Errorf("options.minConfidence must be between 0 and 100, got %d", o.MinConfidence)
	}
	if o.AutoApplyThreshold > 0 && o.MinConfidence > 0 && o.MinConfidence >= o.AutoApplyThreshold {
		return fmt.Errorf("options.minConfidence (%d) must be below options.autoApplyThreshold (%d)",
			o.MinConfidence, o.AutoApplyThreshold)
	}
	return nil
}

// Request describes one sync job as submitted by a client.
type Request struct {
	Kind Kind `json:"kind"`

	// From and To bound a calendar import range (inclusive from, exclusive to)
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`

	// SongIDs selects specific songs for catalog matching
	SongIDs []uuid.UUID `json:"songIds,omitempty"`

	// AllEligible selects every song without catalog data (or every song
	// when Force is set)
	AllEligible bool `json:"allEligible,omitempty"`

	Options Options `json:"options,omitzero"`
}

// Validate rejects requests that cannot produce a well-formed unit list.
func (r Request) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown sync kind %q", r.Kind)
	}
	if err := r.Options.validate(); err != nil {
		return err
	}
	switch r.Kind {
	case KindCalendarImport:
		if r.From.IsZero() || r.To.IsZero() {
			return fmt.Errorf("calendar import requires from and to")
		}
		if r.To.Before(r.From) {
			return fmt.Errorf("calendar import range end precedes start")
		}
	case KindCatalogMatch:
		if !r.AllEligible && len(r.SongIDs) == 0 {
			return fmt.Errorf("catalog match requires songIds or allEligible")
		}
	}
	return nil
}

// WorkUnit is one independently resolvable item. Index is 1-based for
// display in progress events.
type WorkUnit struct {
	Index int
	Total int
	Label string

	// Event is set for calendar import units
	Event *sources.EventRef

	// SongID is set for catalog match units
	SongID *uuid.UUID
}

// Splitter turns a request into an ordered unit list. Enumeration errors
// are fatal for the whole job; an empty list is a valid completed job.
//
//go:generate mockgen -destination=mocks/mock_splitter.go -package=mocks -source=splitter.go Splitter
type Splitter interface {
	Split(ctx context.Context, req Request) ([]WorkUnit, error)
}

type defaultSplitter struct {
	calendar sources.CalendarProvider
	store    store.Store
}

// NewSplitter creates the default splitter backed by the calendar provider
// for event enumeration and the store for song selection.
func NewSplitter(calendar sources.CalendarProvider, st store.Store) Splitter {
	return &defaultSplitter{calendar: calendar, store: st}
}

func (s *defaultSplitter) Split(ctx context.Context, req Request) ([]WorkUnit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Kind {
	case KindCalendarImport:
		return s.splitCalendar(ctx, req)
	case KindCatalogMatch:
		return s.splitCatalog(ctx, req)
	default:
		return nil, fmt.Errorf("unknown sync kind %q", req.Kind)
	}
}

// splitCalendar enumerates events one calendar month at a time so a large
// range never requires a single unbounded provider call. Each listed event
// becomes one work unit.
func (s *defaultSplitter) splitCalendar(ctx context.Context, req Request) ([]WorkUnit, error) {
	var units []WorkUnit
	for _, window := range monthWindows(req.From, req.To) {
		refs, err := s.calendar.ListEvents(ctx, window.from, window.to)
		if err != nil {
			return nil, fmt.Errorf("listing events for %s: %w", window.from.Format("2006-01"), err)
		}
		for i := range refs {
			ref := refs[i]
			units = append(units, WorkUnit{
				Label: ref.Title,
				Event: &ref,
			})
		}
	}
	return number(units), nil
}

func (s *defaultSplitter) splitCatalog(ctx context.Context, req Request) ([]WorkUnit, error) {
	ids := req.SongIDs
	if req.AllEligible {
		var err error
		if req.Options.Force {
			ids, err = s.store.ListSongIDs(ctx)
		} else {
			ids, err = s.store.ListSongIDsMissingCatalog(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("listing eligible songs: %w", err)
		}
	}

	units := make([]WorkUnit, 0, len(ids))
	for i := range ids {
		id := ids[i]
		units = append(units, WorkUnit{
			Label:  id.String(),
			SongID: &id,
		})
	}
	return number(units), nil
}

// number assigns 1-based indexes and the shared total to a unit list.
func number(units []WorkUnit) []WorkUnit {
	for i := range units {
		units[i].Index = i + 1
		units[i].Total = len(units)
	}
	return units
}

type window struct {
	from, to time.Time
}

// monthWindows splits [from, to) into calendar-month windows clipped to the
// range bounds. An empty or inverted range yields no windows.
func monthWindows(from, to time.Time) []window {
	if !from.Before(to) {
		return nil
	}

	var windows []window
	cursor := from
	for cursor.Before(to) {
		monthStart := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location())
		next := monthStart.AddDate(0, 1, 0)
		end := next
		if end.After(to) {
			end = to
		}
		windows = append(windows, window{from: cursor, to: end})
		cursor = next
	}
	return windows
}
