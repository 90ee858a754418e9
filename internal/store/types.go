package store

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the lifecycle status of a calendar event
type EventStatus string

const (
	// EventStatusCompleted marks past-dated events imported from the provider
	EventStatusCompleted EventStatus = "completed"

	// EventStatusScheduled marks future-dated events imported from the provider
	EventStatusScheduled EventStatus = "scheduled"
)

// Event is a calendar event (gig, rehearsal) imported from the external provider
type Event struct {
	ID uuid.UUID

	// ExternalID is the provider's stable event id, used for dedup
	ExternalID string

	Title    string
	Venue    string
	StartsAt time.Time
	EndsAt   time.Time
	Status   EventStatus

	CreatedAt time.Time
}

// Song is a local catalog entry that may carry external catalog metadata
type Song struct {
	ID uuid.UUID

	Title        string
	Artist       string
	Album        string
	DurationSecs int

	// CatalogID is the external catalog record id once a match has been
	// applied. Nil means the song has not been matched yet.
	CatalogID *string

	// CatalogScore is the confidence score of the applied match
	CatalogScore *int

	UpdatedAt time.Time
}

// CatalogMatch is the external catalog metadata applied to a song
type CatalogMatch struct {
	CatalogID    string `json:"catalogId"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album,omitempty"`
	DurationSecs int    `json:"durationSecs,omitempty"`
}

// ReviewStatus represents the state of a review candidate
type ReviewStatus string

const (
	// ReviewStatusPending means the candidate is awaiting a human decision
	ReviewStatusPending ReviewStatus = "PENDING"

	// ReviewStatusApproved means a human approved the match
	ReviewStatusApproved ReviewStatus = "APPROVED"

	// ReviewStatusRejected means a human rejected the match
	ReviewStatusRejected ReviewStatus = "REJECTED"
)

// ReviewCandidate is a medium-confidence match awaiting a human decision
type ReviewCandidate struct {
	ID uuid.UUID

	// SongID is the local song this candidate was proposed for
	SongID uuid.UUID

	Proposed   CatalogMatch
	Confidence int
	Rationale  string
	Status     ReviewStatus

	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// IsTerminal reports whether the candidate has already been resolved
func (c *ReviewCandidate) IsTerminal() bool {
	return c.Status != ReviewStatusPending
}
