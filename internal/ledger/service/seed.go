package service

import (
	"context"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
)

// FoundingProposalID is the fixed id of the protected world proposal every
// ledger starts from.
const FoundingProposalID = "FOUNDING_PROPOSAL_PROTECTED"

// foundingAuthor is the platform steward credited with the founding text.
const foundingAuthor = "TAObaeus Rushaeus"

const foundingTitle = "Establish a Digital Bill of Rights for All Citizens"

const foundingContent = `Every citizen of the network holds inalienable digital rights:

1. The right to participate in governance at every geographic scope.
2. The right to an auditable record of every economic and governance event.
3. The right to delegate a vote, and to revoke that delegation at any time.
4. The right to propose change and to have that proposal judged by its
   community, not by any central authority.
5. The right to earn standing through demonstrated competence.

This proposal is protected: it anchors the ledger at world scope and may be
amended only through community integration.`

// SeedFoundingProposal installs the protected world-scope founding proposal
// and its steward author into an empty ledger. Running it against an
// already-seeded ledger returns the existing proposal unchanged.
func (l *Ledger) SeedFoundingProposal(ctx context.Context) (domain.Proposal, error) {
	ctx, span := l.startSpan(ctx, "SeedFoundingProposal")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.state.Proposal(FoundingProposalID); ok {
		return p.Clone(), nil
	}

	if _, ok := l.state.User(foundingAuthor); !ok {
		if _, _, err := l.submitLocked(ctx, event.TypeUserRegister, event.SystemActor, entityUser, foundingAuthor,
			event.UserRegisterPayload{Username: foundingAuthor}); err != nil {
			return domain.Proposal{}, err
		}
	}

	// The founding text costs nothing; it predates the economy it anchors.
	if _, _, err := l.submitLocked(ctx, event.TypeProposalCreate, event.SystemActor, entityProposal, FoundingProposalID,
		event.ProposalCreatePayload{
			ID:        FoundingProposalID,
			Title:     foundingTitle,
			Content:   foundingContent,
			Author:    foundingAuthor,
			Scope:     string(domain.ScopeWorld),
			Protected: true,
			Founding:  true,
			Cost:      0,
		}); err != nil {
		return domain.Proposal{}, err
	}
	return l.proposalLocked(FoundingProposalID), nil
}
