package rules

import (
	"fmt"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

func (s *State) stageProposalCreate(evt event.Event, p event.ProposalCreatePayload) (func() Change, error) {
	if _, ok := s.proposals[p.ID]; ok {
		return nil, apperrors.WithMetadata(apperrors.CodeDuplicateAction,
			fmt.Sprintf("proposal %q already exists", p.ID),
			map[string]string{"proposal_id": p.ID})
	}
	author, ok := s.users[p.Author]
	if !ok {
		return nil, userNotFound(p.Author)
	}
	scope := domain.Scope(p.Scope)
	if !scope.Valid() {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown scope %q", p.Scope))
	}
	if author.Acents < p.Cost {
		return nil, insufficientBalance("acents", author.Username, author.Acents, p.Cost)
	}

	return func() Change {
		author.Acents -= p.Cost
		author.LastActive = evt.Timestamp
		s.proposals[p.ID] = &domain.Proposal{
			ID:           p.ID,
			Title:        p.Title,
			Content:      p.Content,
			Author:       p.Author,
			Scope:        scope,
			Protected:    p.Protected,
			Founding:     p.Founding,
			Version:      1,
			CreatedAt:    evt.Timestamp,
			LastModified: evt.Timestamp,
		}
		return Change{Users: []string{author.Username}, Proposals: []string{p.ID}}
	}, nil
}

func (s *State) stageProposalVote(evt event.Event, p event.ProposalVotePayload) (func() Change, error) {
	prop, ok := s.proposals[p.ProposalID]
	if !ok {
		return nil, proposalNotFound(p.ProposalID)
	}
	voter, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}
	choice := domain.VoteChoice(p.Vote)
	if !choice.Valid() {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown vote choice %q", p.Vote))
	}
	// A repeated vote is accepted into the journal but folds to nothing, so
	// retries can never double-reward.
	if prop.HasVoter(p.Username) || voter.VotesSubmitted[p.ProposalID] {
		return func() Change { return noopChange() }, nil
	}
	var delegator *domain.User
	if p.Delegated {
		delegator = s.users[p.Delegator]
		if delegator == nil {
			return nil, userNotFound(p.Delegator)
		}
	}

	return func() Change {
		switch choice {
		case domain.VoteFor:
			prop.Votes.For++
		case domain.VoteAgainst:
			prop.Votes.Against++
		case domain.VoteAbstain:
			prop.Votes.Abstain++
		}
		prop.Voters = append(prop.Voters, domain.VoterRecord{
			Username:  p.Username,
			Vote:      choice,
			Delegated: p.Delegated,
			Delegator: p.Delegator,
			Timestamp: evt.Timestamp,
		})
		prop.LastModified = evt.Timestamp

		voter.VotesSubmitted[p.ProposalID] = true
		voter.LastActive = evt.Timestamp

		ch := Change{Users: []string{voter.Username}, Proposals: []string{prop.ID}}
		if delegator != nil {
			// The reward splits half-and-half; both credits land in the
			// same fold or not at all.
			voter.Acents += DelegatedVoteSplit
			delegator.Acents += DelegatedVoteSplit
			ch.Users = append(ch.Users, delegator.Username)
		} else {
			voter.Acents += VoteReward
		}

		if advanceScope(prop) {
			ch.ScopeAdvanced = true
		}
		return ch
	}, nil
}

func (s *State) stageProposalUpvote(evt event.Event, p event.ProposalUpvotePayload) (func() Change, error) {
	prop, ok := s.proposals[p.ProposalID]
	if !ok {
		return nil, proposalNotFound(p.ProposalID)
	}
	u, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}

	return func() Change {
		prop.Upvotes++
		prop.AcentsBalance += UpvoteEscrow
		prop.LastModified = evt.Timestamp
		u.LastActive = evt.Timestamp

		ch := Change{Users: []string{u.Username}, Proposals: []string{prop.ID}}
		// The proposal's own upvote count moved, so every pending comment
		// threshold needs a fresh look.
		ch.Integrated = s.sweepIntegrations(prop, evt)
		ch.Comments = append(ch.Comments, ch.Integrated...)
		return ch
	}, nil
}

func proposalNotFound(id string) error {
	return apperrors.WithMetadata(apperrors.CodeProposalNotFound,
		fmt.Sprintf("proposal %q not found", id),
		map[string]string{"proposal_id": id})
}
