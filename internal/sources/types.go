// Package sources implements clients for the external collaborators the sync
// engine pulls from: the calendar provider and the music-catalog API.
package sources

import (
	"context"
	"errors"
	"time"
)

// Sentinel error classes used by the resolver to classify per-unit failures.
var (
	// ErrUnavailable marks transport, timeout, and rate-limit failures
	// (theoretically retryable).
	ErrUnavailable = errors.New("external source unavailable")

	// ErrMalformed marks provider responses that fail domain validation
	// (never retried).
	ErrMalformed = errors.New("malformed external record")
)

// EventRef is a lightweight reference to a provider event, returned by range
// listings and used to enumerate work units.
type EventRef struct {
	ExternalID string    `json:"id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"startsAt"`
}

// CalendarEvent is the full provider event record.
type CalendarEvent struct {
	ExternalID string    `json:"id"`
	Title      string    `json:"title"`
	Venue      string    `json:"venue"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
}

// CatalogRecord is a candidate match from the external music catalog. The
// ExternalID is stable across lookups and is what dedup keys on.
type CatalogRecord struct {
	ExternalID   string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	DurationSecs int    `json:"durationSecs"`
}

// CalendarProvider fetches historical events from the external calendar.
//
//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks -source=types.go CalendarProvider,CatalogClient
type CalendarProvider interface {
	// ListEvents returns references to all events in [from, to), ordered by
	// start time.
	ListEvents(ctx context.Context, from, to time.Time) ([]EventRef, error)

	// GetEvent fetches the full record for one event.
	GetEvent(ctx context.Context, externalID string) (*CalendarEvent, error)
}

// CatalogClient searches the external music catalog.
type CatalogClient interface {
	// FindBestMatch returns the catalog's best candidate for the given
	// title/artist search key, or nil when the catalog has no candidate at
	// all.
	FindBestMatch(ctx context.Context, title, artist string) (*CatalogRecord, error)
}
