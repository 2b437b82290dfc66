package rules

import (
	"fmt"

	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/token"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

// Reward and cost constants, in milli-tokens.
const (
	// DefaultProposalCost is the ACent debit for creating a proposal.
	DefaultProposalCost = 3 * token.One
	// DefaultCommentCost is the DCent debit for commenting without having
	// passed the proposal quiz.
	DefaultCommentCost = 3 * token.One
	// ReferralBonus is credited to the referrer when a referred user
	// registers.
	ReferralBonus = token.One
	// QuizPassReward is the ACent credit for passing a quiz.
	QuizPassReward = token.One
	// QuizFailReward is the DCent consolation credit for failing a quiz.
	QuizFailReward = token.One
	// VoteReward is the ACent credit for voting on a proposal.
	VoteReward = token.One
	// DelegatedVoteSplit is each party's share of VoteReward when a vote is
	// cast on a delegator's behalf.
	DelegatedVoteSplit = token.Half
	// UpvoteEscrow is the ACent amount minted into a proposal's escrow per
	// upvote.
	UpvoteEscrow = token.One
	// CommentVoteReward is the DCent credit for voting on a comment.
	CommentVoteReward = token.One
)

// Change describes what one committed fold touched, so projection caches
// can be invalidated precisely.
type Change struct {
	Users       []string
	Proposals   []string
	Comments    []string
	Delegations []string

	// Noop is set when the event was accepted into the journal but folded
	// to nothing, such as a repeated vote by the same user.
	Noop bool
	// Duplicate marks a Noop caused by a repeat of an already-applied
	// action.
	Duplicate bool
	// ScopeAdvanced is set when the fold promoted a proposal one tier up
	// the scope ladder.
	ScopeAdvanced bool
	// Integrated lists comment ids merged into their proposal by this fold.
	Integrated []string
}

func noopChange() Change {
	return Change{Noop: true, Duplicate: true}
}

// Stage checks an event against the current state and returns a commit
// function that performs the mutation. All precondition checks happen
// before commit; a staging error means the state was not touched and the
// event must not enter the journal. Callers append the event between Stage
// and commit so the journal never holds an event whose fold failed.
func (s *State) Stage(evt event.Event) (func() Change, error) {
	payload, err := event.Decode(evt)
	if err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case event.UserRegisterPayload:
		return s.stageUserRegister(evt, p)
	case event.QuizOutcomePayload:
		if evt.Type == event.TypeQuizPass {
			return s.stageQuizPass(evt, p)
		}
		return s.stageQuizFail(evt, p)
	case event.ProposalCreatePayload:
		return s.stageProposalCreate(evt, p)
	case event.ProposalVotePayload:
		return s.stageProposalVote(evt, p)
	case event.ProposalUpvotePayload:
		return s.stageProposalUpvote(evt, p)
	case event.CommentCreatePayload:
		return s.stageCommentCreate(evt, p)
	case event.CommentVotePayload:
		return s.stageCommentVote(evt, p)
	case event.CommentIntegratePayload:
		return s.stageCommentIntegrate(evt, p)
	case event.DelegationSetPayload:
		return s.stageDelegationSet(evt, p)
	case event.DelegationRevokePayload:
		return s.stageDelegationRevoke(evt, p)
	case event.TransferPayload:
		kind := token.ACent
		if evt.Type == event.TypeDcentTransfer {
			kind = token.DCent
		}
		return s.stageTransfer(evt, p, kind)
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeUnknownEventType,
			fmt.Sprintf("no fold handler for event type %q", evt.Type),
			map[string]string{"event_id": evt.ID})
	}
}

// Apply stages and immediately commits an event. Replay uses this path;
// live writes stage first so the journal append can happen in between.
func (s *State) Apply(evt event.Event) (Change, error) {
	commit, err := s.Stage(evt)
	if err != nil {
		return Change{}, err
	}
	return commit(), nil
}
