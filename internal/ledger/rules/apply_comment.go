package rules

import (
	"fmt"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

func (s *State) stageCommentCreate(evt event.Event, p event.CommentCreatePayload) (func() Change, error) {
	if _, ok := s.comments[p.ID]; ok {
		return nil, apperrors.WithMetadata(apperrors.CodeDuplicateAction,
			fmt.Sprintf("comment %q already exists", p.ID),
			map[string]string{"comment_id": p.ID})
	}
	prop, ok := s.proposals[p.ProposalID]
	if !ok {
		return nil, proposalNotFound(p.ProposalID)
	}
	author, ok := s.users[p.Author]
	if !ok {
		return nil, userNotFound(p.Author)
	}
	if p.ParentCommentID != "" {
		parent, ok := s.comments[p.ParentCommentID]
		if !ok {
			return nil, commentNotFound(p.ParentCommentID)
		}
		if parent.ProposalID != p.ProposalID {
			return nil, apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("parent comment %q belongs to a different proposal", p.ParentCommentID))
		}
	}
	if author.Dcents < p.Cost {
		return nil, insufficientBalance("dcents", author.Username, author.Dcents, p.Cost)
	}

	return func() Change {
		author.Dcents -= p.Cost
		author.LastActive = evt.Timestamp
		s.comments[p.ID] = &domain.Comment{
			ID:              p.ID,
			ProposalID:      p.ProposalID,
			Author:          p.Author,
			Content:         p.Content,
			ParentCommentID: p.ParentCommentID,
			CreatedAt:       evt.Timestamp,
		}
		prop.Comments = append(prop.Comments, p.ID)
		prop.LastModified = evt.Timestamp
		return Change{
			Users:     []string{author.Username},
			Proposals: []string{prop.ID},
			Comments:  []string{p.ID},
		}
	}, nil
}

func (s *State) stageCommentVote(evt event.Event, p event.CommentVotePayload) (func() Change, error) {
	c, ok := s.comments[p.CommentID]
	if !ok {
		return nil, commentNotFound(p.CommentID)
	}
	voter, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}
	choice := domain.CommentVoteChoice(p.Vote)
	if !choice.Valid() {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown comment vote choice %q", p.Vote))
	}
	if c.HasVoter(p.Username) {
		return func() Change { return noopChange() }, nil
	}
	// Comment votes exist in relation to a proposal's own popularity; the
	// proposal must still resolve for the integration check to run.
	prop, ok := s.proposals[c.ProposalID]
	if !ok {
		return nil, proposalNotFound(c.ProposalID)
	}

	return func() Change {
		switch choice {
		case domain.CommentVoteUp:
			c.Upvotes++
			c.DCentValue += CommentVoteReward
		case domain.CommentVoteDown:
			c.Downvotes++
		}
		c.Voters = append(c.Voters, domain.CommentVoterRecord{
			Username:  p.Username,
			Vote:      choice,
			Timestamp: evt.Timestamp,
		})
		voter.Dcents += CommentVoteReward
		voter.LastActive = evt.Timestamp

		ch := Change{Users: []string{voter.Username}, Comments: []string{c.ID}}
		if s.integrateIfEligible(prop, c, evt) {
			ch.Integrated = []string{c.ID}
			ch.Proposals = []string{prop.ID}
		}
		return ch
	}, nil
}

func (s *State) stageCommentIntegrate(evt event.Event, p event.CommentIntegratePayload) (func() Change, error) {
	c, ok := s.comments[p.CommentID]
	if !ok {
		return nil, commentNotFound(p.CommentID)
	}
	prop, ok := s.proposals[p.ProposalID]
	if !ok {
		return nil, proposalNotFound(p.ProposalID)
	}
	if c.ProposalID != prop.ID {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("comment %q does not belong to proposal %q", c.ID, prop.ID))
	}
	// Manual integration is the author's call; it is also the only path for
	// neighborhood proposals, which never auto-integrate.
	if evt.Actor != prop.Author {
		return nil, apperrors.WithMetadata(apperrors.CodeNotAuthorized,
			fmt.Sprintf("only the proposal author may integrate comments on %q", prop.ID),
			map[string]string{"proposal_id": prop.ID, "actor": evt.Actor})
	}
	if c.Integrated {
		return func() Change { return noopChange() }, nil
	}

	return func() Change {
		integrate(prop, c, domain.IntegrationManual, evt)
		return Change{
			Proposals:  []string{prop.ID},
			Comments:   []string{c.ID},
			Integrated: []string{c.ID},
		}
	}, nil
}

func commentNotFound(id string) error {
	return apperrors.WithMetadata(apperrors.CodeCommentNotFound,
		fmt.Sprintf("comment %q not found", id),
		map[string]string{"comment_id": id})
}
