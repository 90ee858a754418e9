package sync

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Event is one frame in a job's progress stream. The set of concrete types
// is closed; consumers dispatch on the wire "type" field.
type Event interface {
	eventType() string
}

// InitEvent is always the first frame and carries the id the client needs
// to issue a cancel
type InitEvent struct {
	SyncID uuid.UUID `json:"syncId"`
}

func (InitEvent) eventType() string { return "init" }

// UnitStartedEvent announces dispatch of one work unit
type UnitStartedEvent struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

func (UnitStartedEvent) eventType() string { return "unit_start" }

// ItemImportedEvent reports a unit written to local storage
type ItemImportedEvent struct {
	RecordID uuid.UUID `json:"recordId"`
}

func (ItemImportedEvent) eventType() string { return "item_imported" }

// ItemSkippedEvent reports a unit intentionally not imported
type ItemSkippedEvent struct {
	RecordID uuid.UUID `json:"recordId"`
	Reason   string    `json:"reason"`
}

func (ItemSkippedEvent) eventType() string { return "item_skipped" }

// ItemNeedsReviewEvent reports a candidate queued for human review
type ItemNeedsReviewEvent struct {
	ReviewID   uuid.UUID `json:"reviewId"`
	SongID     uuid.UUID `json:"songId"`
	Confidence int       `json:"confidence"`
}

func (ItemNeedsReviewEvent) eventType() string { return "item_needs_review" }

// ItemFailedEvent reports a unit that could not be processed
type ItemFailedEvent struct {
	Class  ErrorClass `json:"class"`
	Reason string     `json:"reason"`
}

func (ItemFailedEvent) eventType() string { return "item_failed" }

// ProgressEvent carries cumulative counts after each resolved unit
type ProgressEvent struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func (ProgressEvent) eventType() string { return "progress" }

// CompleteEvent is the terminal frame for a job that ran all its units
type CompleteEvent struct {
	Totals   Totals   `json:"totals"`
	Counters Counters `json:"counters"`
}

func (CompleteEvent) eventType() string { return "complete" }

// CancelledEvent is the terminal frame for a cancelled job. Counters cover
// the units resolved before the cancel took effect.
type CancelledEvent struct {
	Totals   Totals   `json:"totals"`
	Counters Counters `json:"counters"`
}

func (CancelledEvent) eventType() string { return "cancelled" }

// ErrorEvent is the terminal frame for a job that failed before or during
// unit enumeration
type ErrorEvent struct {
	Message string `json:"message"`
}

func (ErrorEvent) eventType() string { return "error" }

// MarshalEvent encodes an event as a JSON object with a leading "type"
// discriminator followed by the event's own fields.
func MarshalEvent(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s event: %w", ev.eventType(), err)
	}

	out := make([]byte, 0, len(body)+len(ev.eventType())+12)
	out = append(out, `{"type":"`...)
	out = append(out, ev.eventType()...)
	out = append(out, '"')
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:len(body)-1]...)
	}
	out = append(out, '}')
	return out, nil
}

// Encoder writes events as server-sent-event frames. Each frame is flushed
// immediately so the client sees progress as it happens; no buffering or
// reordering across frames.
type Encoder struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEncoder prepares a response writer for event streaming and sends the
// SSE headers.
func NewEncoder(w http.ResponseWriter) *Encoder {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

// Encode writes one event frame. An error means the client connection is
// gone; the caller decides whether the job keeps running.
func (e *Encoder) Encode(ev Event) error {
	payload, err := MarshalEvent(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing stream frame: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
