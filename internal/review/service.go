// Package review manages the human approval queue for low-confidence
// catalog matches. A sync job enqueues candidates; a reviewer later
// approves or rejects each one through the API.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/logger"
	"github.com/bandroom-dev/bandroom-sync-server/internal/matching"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
)

var (
	// ErrNotFound is returned when a review id is unknown
	ErrNotFound = errors.New("review candidate not found")

	// ErrAlreadyResolved is returned when resolving a candidate that is
	// already terminal. Double-submits from a UI hit this rather than
	// silently re-applying a match.
	ErrAlreadyResolved = errors.New("review candidate already resolved")
)

// Decision is a reviewer's verdict on a candidate
type Decision string

const (
	// DecisionApprove applies the proposed match (or a chosen alternative)
	DecisionApprove Decision = "APPROVE"
	// DecisionReject discards the candidate without touching the song
	DecisionReject Decision = "REJECT"
)

// Valid returns true for a recognized decision.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Service is the review queue contract.
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service
type Service interface {
	// Enqueue persists a pending candidate and returns its id.
	Enqueue(ctx context.Context, candidate *store.ReviewCandidate) (uuid.UUID, error)

	// Get returns a candidate by id.
	Get(ctx context.Context, id uuid.UUID) (*store.ReviewCandidate, error)

	// GetPendingForSong returns the pending candidate for a song, if any.
	GetPendingForSong(ctx context.Context, songID uuid.UUID) (*store.ReviewCandidate, error)

	// Resolve applies or discards a candidate. Approve with a nil
	// alternative applies the originally proposed match; a non-nil
	// alternative applies that instead. Reject marks the row terminal
	// with no store mutation beyond the status.
	Resolve(ctx context.Context, id uuid.UUID, decision Decision, alternative *store.CatalogMatch) error
}

type defaultService struct {
	store store.Store
	clock func() time.Time
}

// NewService creates the default store-backed review service.
func NewService(st store.Store) Service {
	return &defaultService{store: st, clock: time.Now}
}

func (s *defaultService) Enqueue(ctx context.Context, candidate *store.ReviewCandidate) (uuid.UUID, error) {
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	candidate.Status = store.ReviewStatusPending
	candidate.CreatedAt = s.clock()

	if err := s.store.InsertReviewCandidate(ctx, *candidate); err != nil {
		return uuid.Nil, fmt.Errorf("inserting review candidate: %w", err)
	}
	logger.Debugf("Queued review %s for song %s at confidence %d",
		candidate.ID, candidate.SongID, candidate.Confidence)
	return candidate.ID, nil
}

func (s *defaultService) Get(ctx context.Context, id uuid.UUID) (*store.ReviewCandidate, error) {
	candidate, err := s.store.GetReviewCandidate(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading review candidate: %w", err)
	}
	return candidate, nil
}

func (s *defaultService) GetPendingForSong(ctx context.Context, songID uuid.UUID) (*store.ReviewCandidate, error) {
	candidate, err := s.store.GetPendingReviewBySong(ctx, songID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading pending review: %w", err)
	}
	return candidate, nil
}

func (s *defaultService) Resolve(ctx context.Context, id uuid.UUID, decision Decision, alternative *store.CatalogMatch) error {
	if !decision.Valid() {
		return fmt.Errorf("unknown decision %q", decision)
	}

	candidate, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if candidate.IsTerminal() {
		return ErrAlreadyResolved
	}

	if decision == DecisionApprove {
		match := candidate.Proposed
		score := candidate.Confidence
		if alternative != nil {
			match = *alternative
			score, err = s.scoreAlternative(ctx, candidate.SongID, *alternative)
			if err != nil {
				return err
			}
		}
		if err := s.store.ApplyCatalogMatch(ctx, candidate.SongID, match, score); err != nil {
			return fmt.Errorf("applying approved match: %w", err)
		}
	}

	status := store.ReviewStatusApproved
	if decision == DecisionReject {
		status = store.ReviewStatusRejected
	}
	if err := s.store.ResolveReviewCandidate(ctx, id, status); err != nil {
		return fmt.Errorf("marking review resolved: %w", err)
	}

	logger.Infof("Review %s resolved as %s", id, status)
	return nil
}

// scoreAlternative recomputes confidence for a reviewer-chosen match. The
// queued score was computed against the originally proposed record and would
// misrepresent the match actually applied.
func (s *defaultService) scoreAlternative(ctx context.Context, songID uuid.UUID, match store.CatalogMatch) (int, error) {
	song, err := s.store.GetSong(ctx, songID)
	if err != nil {
		return 0, fmt.Errorf("loading song for alternative match: %w", err)
	}

	local := matching.Fields{
		Title:        song.Title,
		Artist:       song.Artist,
		Album:        song.Album,
		DurationSecs: song.DurationSecs,
	}
	chosen := matching.Fields{
		Title:        match.Title,
		Artist:       match.Artist,
		Album:        match.Album,
		DurationSecs: match.DurationSecs,
	}
	return matching.Score(local, chosen), nil
}
