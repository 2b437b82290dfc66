// Package sqlite provides a durable event journal backed by SQLite.
//
// Only events are persisted; materialized state is always rebuilt by
// replaying the journal, which keeps the on-disk layout replay-compatible
// by construction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/storage"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq          INTEGER PRIMARY KEY,
	event_id     TEXT    NOT NULL UNIQUE,
	timestamp    INTEGER NOT NULL,
	event_type   TEXT    NOT NULL,
	actor        TEXT    NOT NULL DEFAULT '',
	entity_type  TEXT    NOT NULL DEFAULT '',
	entity_id    TEXT    NOT NULL DEFAULT '',
	payload_json BLOB
);

CREATE TABLE IF NOT EXISTS event_seq (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	next_seq INTEGER NOT NULL
);
`

// Store is a SQLite-backed event journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a journal at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The journal has a single logical writer; a second connection would
	// only contend on the write lock.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendEvent validates and atomically appends an event. Sequence numbers
// come from a counter table advanced inside the same transaction, so they
// are monotonic and gapless. Re-appending an existing event ID returns the
// stored event.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.db == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if err := event.ValidateForAppend(evt); err != nil {
		return event.Event{}, err
	}

	if evt.ID == "" {
		id, err := domain.NewID()
		if err != nil {
			return event.Event{}, fmt.Errorf("assign event id: %w", err)
		}
		evt.ID = id
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO event_seq (id, next_seq) VALUES (1, 1)",
	); err != nil {
		return event.Event{}, fmt.Errorf("init event seq: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT next_seq FROM event_seq WHERE id = 1",
	).Scan(&seq); err != nil {
		return event.Event{}, fmt.Errorf("get event seq: %w", err)
	}
	evt.Seq = uint64(seq)

	if _, err := tx.ExecContext(ctx,
		"UPDATE event_seq SET next_seq = next_seq + 1 WHERE id = 1",
	); err != nil {
		return event.Event{}, fmt.Errorf("increment event seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (seq, event_id, timestamp, event_type, actor, entity_type, entity_id, payload_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(evt.Seq),
		evt.ID,
		toMillis(evt.Timestamp),
		string(evt.Type),
		evt.Actor,
		evt.EntityType,
		evt.EntityID,
		evt.PayloadJSON,
	); err != nil {
		if isConstraintError(err) {
			// Release the single connection before looking up the stored
			// event, or the lookup would wait on this transaction forever.
			tx.Rollback()
			stored, lookupErr := s.GetEventByID(ctx, evt.ID)
			if lookupErr == nil {
				return stored, nil
			}
		}
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit: %w", err)
	}
	return evt, nil
}

// GetEventByID retrieves an event by its id.
func (s *Store) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if id == "" {
		return event.Event{}, fmt.Errorf("event id is required")
	}
	return s.scanOne(ctx,
		"SELECT seq, event_id, timestamp, event_type, actor, entity_type, entity_id, payload_json FROM events WHERE event_id = ?",
		id)
}

// GetEventBySeq retrieves an event by sequence number.
func (s *Store) GetEventBySeq(ctx context.Context, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	return s.scanOne(ctx,
		"SELECT seq, event_id, timestamp, event_type, actor, entity_type, entity_id, payload_json FROM events WHERE seq = ?",
		int64(seq))
}

// ListEvents returns up to limit events after afterSeq, ascending.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, event_id, timestamp, event_type, actor, entity_type, entity_id, payload_json FROM events WHERE seq > ? ORDER BY seq ASC LIMIT ?",
		int64(afterSeq), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LatestSeq returns the newest sequence number, or 0 for an empty journal.
func (s *Store) LatestSeq(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var seq int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events",
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get latest seq: %w", err)
	}
	return uint64(seq), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(ctx context.Context, query string, arg any) (event.Event, error) {
	if s == nil || s.db == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	evt, err := scanEvent(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, err
	}
	return evt, nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		seq       int64
		id        string
		ts        int64
		eventType string
		actor     string
		entType   string
		entID     string
		payload   []byte
	)
	if err := row.Scan(&seq, &id, &ts, &eventType, &actor, &entType, &entID, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	return event.Event{
		ID:          id,
		Seq:         uint64(seq),
		Timestamp:   fromMillis(ts),
		Type:        event.Type(eventType),
		Actor:       actor,
		EntityType:  entType,
		EntityID:    entID,
		PayloadJSON: payload,
	}, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
