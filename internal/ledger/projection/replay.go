// Package projection rebuilds and serves read-side state for the ledger.
//
// Replay folds the journal page by page into a rules.State; Queries serves
// entity reads from that state behind a cache that is invalidated in the
// same critical section as the fold, so no reader ever observes a
// partially applied event.
package projection

import (
	"context"
	"fmt"

	"github.com/opencivics/agora/internal/ledger/rules"
	"github.com/opencivics/agora/internal/storage"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

// replayPageSize bounds how many events are held in memory per replay page.
const replayPageSize = 200

// Replay folds every journal event after afterSeq into state, in sequence
// order, and returns the last sequence applied. The journal must be
// gapless; a missing sequence number or a failing fold halts replay, since
// either means the log and the fold rules disagree and any state built past
// that point would be unreliable.
func Replay(ctx context.Context, store storage.EventStore, state *rules.State, afterSeq uint64) (uint64, error) {
	for {
		events, err := store.ListEvents(ctx, afterSeq, replayPageSize)
		if err != nil {
			return afterSeq, fmt.Errorf("list events after %d: %w", afterSeq, err)
		}
		if len(events) == 0 {
			return afterSeq, nil
		}
		for _, evt := range events {
			if evt.Seq != afterSeq+1 {
				return afterSeq, apperrors.WithMetadata(apperrors.CodeValidation,
					fmt.Sprintf("journal gap: expected seq %d, got %d", afterSeq+1, evt.Seq),
					map[string]string{"event_id": evt.ID})
			}
			if _, err := state.Apply(evt); err != nil {
				return afterSeq, fmt.Errorf("fold event %s (seq %d): %w", evt.ID, evt.Seq, err)
			}
			afterSeq = evt.Seq
		}
		if len(events) < replayPageSize {
			return afterSeq, nil
		}
	}
}
