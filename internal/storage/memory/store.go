// Package memory provides an in-memory event journal for tests and
// embedded single-process use.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/storage"
)

// Store is a mutex-guarded journal. Appends are serialized; sequence
// numbers are assigned monotonically without gaps.
type Store struct {
	mu     sync.RWMutex
	events []event.Event
	byID   map[string]int
}

// New creates an empty journal.
func New() *Store {
	return &Store{byID: make(map[string]int)}
}

// AppendEvent validates and appends an event, assigning Seq and defaulting
// the timestamp. Re-appending an existing event ID returns the stored event.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if err := event.ValidateForAppend(evt); err != nil {
		return event.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.ID == "" {
		id, err := domain.NewID()
		if err != nil {
			return event.Event{}, fmt.Errorf("assign event id: %w", err)
		}
		evt.ID = id
	} else if idx, ok := s.byID[evt.ID]; ok {
		return s.events[idx], nil
	}

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
	evt.Seq = uint64(len(s.events)) + 1

	s.events = append(s.events, evt)
	s.byID[evt.ID] = len(s.events) - 1
	return evt, nil
}

// GetEventByID retrieves an event by its id.
func (s *Store) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return event.Event{}, storage.ErrNotFound
	}
	return s.events[idx], nil
}

// GetEventBySeq retrieves an event by sequence number.
func (s *Store) GetEventBySeq(ctx context.Context, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seq == 0 || seq > uint64(len(s.events)) {
		return event.Event{}, storage.ErrNotFound
	}
	return s.events[seq-1], nil
}

// ListEvents returns up to limit events after afterSeq, ascending.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if afterSeq >= uint64(len(s.events)) {
		return nil, nil
	}
	end := afterSeq + uint64(limit)
	if end > uint64(len(s.events)) {
		end = uint64(len(s.events))
	}
	out := make([]event.Event, end-afterSeq)
	copy(out, s.events[afterSeq:end])
	return out, nil
}

// LatestSeq returns the newest sequence number, or 0 when empty.
func (s *Store) LatestSeq(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events)), nil
}
