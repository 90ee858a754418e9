// Package store defines the data-store collaborator consumed by the sync
// engine. Access control is enforced by callers, not at this layer.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface shared by the streaming sync path and
// the review queue.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store
type Store interface {
	// GetEventByExternalID looks up a calendar event by the provider's stable
	// id. Returns ErrNotFound when no such event exists.
	GetEventByExternalID(ctx context.Context, externalID string) (*Event, error)

	// InsertEvent persists an imported calendar event and returns its id.
	InsertEvent(ctx context.Context, ev Event) (uuid.UUID, error)

	// GetSong returns a song by id. Returns ErrNotFound when missing.
	GetSong(ctx context.Context, id uuid.UUID) (*Song, error)

	// ListSongIDs returns every song id, ordered by title then id.
	ListSongIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListSongIDsMissingCatalog returns ids of songs without applied catalog
	// metadata, ordered by title then id.
	ListSongIDsMissingCatalog(ctx context.Context) ([]uuid.UUID, error)

	// ApplyCatalogMatch writes external catalog metadata onto a song.
	ApplyCatalogMatch(ctx context.Context, songID uuid.UUID, match CatalogMatch, score int) error

	// InsertReviewCandidate persists a new review candidate row.
	InsertReviewCandidate(ctx context.Context, c ReviewCandidate) error

	// GetReviewCandidate returns a review candidate by id. Returns
	// ErrNotFound when missing.
	GetReviewCandidate(ctx context.Context, id uuid.UUID) (*ReviewCandidate, error)

	// GetPendingReviewBySong returns the pending candidate for a song, if
	// any. Returns ErrNotFound when there is none.
	GetPendingReviewBySong(ctx context.Context, songID uuid.UUID) (*ReviewCandidate, error)

	// ResolveReviewCandidate marks a candidate terminal with the given
	// status. Returns ErrNotFound when missing.
	ResolveReviewCandidate(ctx context.Context, id uuid.UUID, status ReviewStatus) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}
