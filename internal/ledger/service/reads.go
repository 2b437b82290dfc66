package service

import (
	"context"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/rules"
)

// GetUser returns the user record as of the last applied event.
func (l *Ledger) GetUser(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queries.GetUser(username)
}

// GetProposal returns the proposal record as of the last applied event.
func (l *Ledger) GetProposal(ctx context.Context, id string) (domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Proposal{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queries.GetProposal(id)
}

// GetComment returns the comment record as of the last applied event.
func (l *Ledger) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Comment{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queries.GetComment(id)
}

// GetProposalsByScope lists proposals visible at a scope. World proposals
// appear at every scope; newest modification first.
func (l *Ledger) GetProposalsByScope(ctx context.Context, scope domain.Scope) ([]domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queries.ProposalsByScope(scope)
}

// GetComments lists a proposal's comments in creation order.
func (l *Ledger) GetComments(ctx context.Context, proposalID string) ([]domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queries.Comments(proposalID)
}

// GetEvent returns a journal event by id.
func (l *Ledger) GetEvent(ctx context.Context, id string) (event.Event, error) {
	return l.store.GetEventByID(ctx, id)
}

// Stats returns aggregate entity counts and token totals.
func (l *Ledger) Stats(ctx context.Context) (rules.Stats, error) {
	if err := ctx.Err(); err != nil {
		return rules.Stats{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Stats(), nil
}
