package projection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/rules"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

// Queries is the read path over materialized state. Entity lookups are
// served from per-id caches of deep copies; the caches are refreshed by
// Invalidate in the same critical section as the fold that mutated them,
// so reads always reflect the last committed event.
type Queries struct {
	mu    sync.RWMutex
	state *rules.State

	users     map[string]domain.User
	proposals map[string]domain.Proposal
	comments  map[string]domain.Comment
}

// NewQueries wraps a state for reading.
func NewQueries(state *rules.State) *Queries {
	return &Queries{
		state:     state,
		users:     make(map[string]domain.User),
		proposals: make(map[string]domain.Proposal),
		comments:  make(map[string]domain.Comment),
	}
}

// Invalidate refreshes cache entries for everything a committed fold
// touched. The caller must ensure no fold runs concurrently.
func (q *Queries) Invalidate(ch rules.Change) {
	if ch.Noop {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, username := range ch.Users {
		if u, ok := q.state.User(username); ok {
			q.users[username] = u.Clone()
		} else {
			delete(q.users, username)
		}
	}
	for _, id := range ch.Proposals {
		if p, ok := q.state.Proposal(id); ok {
			q.proposals[id] = p.Clone()
		} else {
			delete(q.proposals, id)
		}
	}
	for _, id := range ch.Comments {
		if c, ok := q.state.Comment(id); ok {
			q.comments[id] = c.Clone()
		} else {
			delete(q.comments, id)
		}
	}
}

// GetUser returns a copy of the user record.
func (q *Queries) GetUser(username string) (domain.User, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if u, ok := q.users[username]; ok {
		return u.Clone(), nil
	}
	if u, ok := q.state.User(username); ok {
		return u.Clone(), nil
	}
	return domain.User{}, apperrors.WithMetadata(apperrors.CodeUserNotFound,
		fmt.Sprintf("user %q not found", username),
		map[string]string{"username": username})
}

// GetProposal returns a copy of the proposal record.
func (q *Queries) GetProposal(id string) (domain.Proposal, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if p, ok := q.proposals[id]; ok {
		return p.Clone(), nil
	}
	if p, ok := q.state.Proposal(id); ok {
		return p.Clone(), nil
	}
	return domain.Proposal{}, apperrors.WithMetadata(apperrors.CodeProposalNotFound,
		fmt.Sprintf("proposal %q not found", id),
		map[string]string{"proposal_id": id})
}

// GetComment returns a copy of the comment record.
func (q *Queries) GetComment(id string) (domain.Comment, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if c, ok := q.comments[id]; ok {
		return c.Clone(), nil
	}
	if c, ok := q.state.Comment(id); ok {
		return c.Clone(), nil
	}
	return domain.Comment{}, apperrors.WithMetadata(apperrors.CodeCommentNotFound,
		fmt.Sprintf("comment %q not found", id),
		map[string]string{"comment_id": id})
}

// ProposalsByScope returns proposals at the requested scope. World-scoped
// proposals are visible at every scope. Ordered by last modification,
// newest first, with id as the deterministic tiebreak.
func (q *Queries) ProposalsByScope(scope domain.Scope) ([]domain.Proposal, error) {
	if !scope.Valid() {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown scope %q", scope))
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []domain.Proposal
	for _, p := range q.state.Proposals() {
		if p.Scope == scope || p.Scope == domain.ScopeWorld {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.After(out[j].LastModified)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Comments returns the proposal's comments in creation order.
func (q *Queries) Comments(proposalID string) ([]domain.Comment, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	p, ok := q.state.Proposal(proposalID)
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeProposalNotFound,
			fmt.Sprintf("proposal %q not found", proposalID),
			map[string]string{"proposal_id": proposalID})
	}
	out := make([]domain.Comment, 0, len(p.Comments))
	for _, id := range p.Comments {
		if c, ok := q.state.Comment(id); ok {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}
