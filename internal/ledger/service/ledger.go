// Package service exposes the ledger facade: the single entry point through
// which events are validated, appended, folded, and fanned out to
// subscribers. All writes are serialized behind one mutex so a balance
// check and its debit can never interleave with another event's fold.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/projection"
	"github.com/opencivics/agora/internal/ledger/rules"
	"github.com/opencivics/agora/internal/storage"
)

// Ledger is the facade over journal, rule engine, and projections. One
// instance owns one journal.
type Ledger struct {
	mu      sync.RWMutex
	store   storage.EventStore
	state   *rules.State
	queries *projection.Queries

	subscribers map[int]chan event.Event
	nextSubID   int

	clock  func() time.Time
	newID  func() (string, error)
	tracer trace.Tracer
}

// Option overrides a Ledger dependency.
type Option func(*Ledger)

// WithClock injects the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithIDGenerator injects the id source.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(l *Ledger) { l.newID = newID }
}

// Open rehydrates a ledger from the journal in store. An empty journal
// yields an empty ledger.
func Open(ctx context.Context, store storage.EventStore, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:       store,
		state:       rules.NewState(),
		subscribers: make(map[int]chan event.Event),
		clock:       time.Now,
		newID:       domain.NewID,
		tracer:      otel.Tracer("agora/ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queries = projection.NewQueries(l.state)

	if _, err := projection.Replay(ctx, store, l.state, 0); err != nil {
		return nil, fmt.Errorf("rehydrate ledger: %w", err)
	}
	return l, nil
}

// submitLocked builds, stages, appends, and commits one event. The caller
// must hold the write lock. Staging runs before the append so the journal
// never holds an event whose fold failed; the commit runs after the append
// so a storage failure leaves state untouched.
func (l *Ledger) submitLocked(ctx context.Context, typ event.Type, actor, entityType, entityID string, payload any) (event.Event, rules.Change, error) {
	id, err := l.newID()
	if err != nil {
		return event.Event{}, rules.Change{}, fmt.Errorf("generate event id: %w", err)
	}
	evt, err := event.New(id, typ, actor, entityType, entityID, l.clock(), payload)
	if err != nil {
		return event.Event{}, rules.Change{}, err
	}

	commit, err := l.state.Stage(evt)
	if err != nil {
		return event.Event{}, rules.Change{}, err
	}
	stored, err := l.store.AppendEvent(ctx, evt)
	if err != nil {
		return event.Event{}, rules.Change{}, fmt.Errorf("append %s: %w", typ, err)
	}

	ch := commit()
	l.queries.Invalidate(ch)
	l.notify(stored)
	return stored, ch, nil
}

func (l *Ledger) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
}

// notify fans an applied event out to subscribers. Sends never block; a
// subscriber that falls behind misses events rather than stalling writes.
func (l *Ledger) notify(evt event.Event) {
	for _, ch := range l.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe returns a channel receiving every event applied after the call,
// and a cancel function that closes it. Slow consumers drop events.
func (l *Ledger) Subscribe(buffer int) (<-chan event.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan event.Event, buffer)

	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subscribers[id]; ok {
			delete(l.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}
