// Package storage defines the persistence boundary for the ledger journal.
//
// The event stream is the source of truth for state reconstruction; any
// backing engine must preserve total order, monotonic gapless sequence
// assignment, and immutability of appended events.
package storage

import (
	"context"

	"github.com/opencivics/agora/internal/ledger/event"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

// ErrNotFound indicates a requested journal record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "event not found")

// EventStore owns the append-only journal that drives replay and state
// rehydration.
type EventStore interface {
	// AppendEvent validates and atomically appends an event, returning it
	// with Seq assigned. Appending an event whose ID already exists returns
	// the stored event unchanged, so retried submissions are safe to detect.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// GetEventByID retrieves an event by its caller-assigned id.
	GetEventByID(ctx context.Context, id string) (event.Event, error)
	// GetEventBySeq retrieves a specific event by sequence number.
	GetEventBySeq(ctx context.Context, seq uint64) (event.Event, error)
	// ListEvents returns up to limit events with Seq greater than afterSeq,
	// ordered by sequence ascending.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// LatestSeq returns the newest sequence number, or 0 for an empty log.
	LatestSeq(ctx context.Context) (uint64, error)
}
