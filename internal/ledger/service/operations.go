package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/rules"
	"github.com/opencivics/agora/internal/ledger/token"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

// Entity kinds recorded on event envelopes.
const (
	entityUser       = "user"
	entityProposal   = "proposal"
	entityComment    = "comment"
	entityDelegation = "delegation"
)

// RegisterUserInput holds the arguments for RegisterUser.
type RegisterUserInput struct {
	Username   string
	ReferredBy string
	PublicKey  string
}

// RegisterUser creates a zero-balance user. When ReferredBy names an
// existing user, that user earns the referral bonus in the same fold.
func (l *Ledger) RegisterUser(ctx context.Context, in RegisterUserInput) (domain.User, event.Event, error) {
	ctx, span := l.startSpan(ctx, "RegisterUser", attribute.String("username", in.Username))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, event.TypeUserRegister, in.Username, entityUser, in.Username,
		event.UserRegisterPayload{
			Username:   in.Username,
			ReferredBy: in.ReferredBy,
			PublicKey:  in.PublicKey,
		})
	if err != nil {
		return domain.User{}, event.Event{}, err
	}
	return l.userLocked(in.Username), evt, nil
}

// QuizOutcomeInput holds the arguments for RecordQuizOutcome.
type QuizOutcomeInput struct {
	Username  string
	QuizID    string
	Passed    bool
	Score     int
	TimeSpent time.Duration
}

// RecordQuizOutcome credits a quiz result: ACents for a pass, DCents for a
// fail. Passing the same quiz twice is a recorded no-op, never a second
// reward.
func (l *Ledger) RecordQuizOutcome(ctx context.Context, in QuizOutcomeInput) (domain.User, event.Event, error) {
	ctx, span := l.startSpan(ctx, "RecordQuizOutcome",
		attribute.String("username", in.Username),
		attribute.String("quiz_id", in.QuizID),
		attribute.Bool("passed", in.Passed))
	defer span.End()

	typ := event.TypeQuizFail
	if in.Passed {
		typ = event.TypeQuizPass
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, typ, in.Username, entityUser, in.Username,
		event.QuizOutcomePayload{
			Username:    in.Username,
			QuizID:      in.QuizID,
			Score:       in.Score,
			TimeSpentMS: in.TimeSpent.Milliseconds(),
		})
	if err != nil {
		return domain.User{}, event.Event{}, err
	}
	return l.userLocked(in.Username), evt, nil
}

// CreateProposalInput holds the arguments for CreateProposal.
type CreateProposalInput struct {
	Title   string
	Content string
	Author  string
	Scope   domain.Scope
}

// CreateProposal debits the default cost from the author and creates a
// proposal at the requested scope.
func (l *Ledger) CreateProposal(ctx context.Context, in CreateProposalInput) (domain.Proposal, event.Event, error) {
	ctx, span := l.startSpan(ctx, "CreateProposal", attribute.String("author", in.Author))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.newID()
	if err != nil {
		return domain.Proposal{}, event.Event{}, fmt.Errorf("generate proposal id: %w", err)
	}
	evt, _, err := l.submitLocked(ctx, event.TypeProposalCreate, in.Author, entityProposal, id,
		event.ProposalCreatePayload{
			ID:      id,
			Title:   in.Title,
			Content: in.Content,
			Author:  in.Author,
			Scope:   string(in.Scope),
			Cost:    rules.DefaultProposalCost,
		})
	if err != nil {
		return domain.Proposal{}, event.Event{}, err
	}
	return l.proposalLocked(id), evt, nil
}

// VoteInput holds the arguments for VoteOnProposal. A non-empty Delegator
// marks a vote cast on that user's behalf; the voter must actually hold the
// delegation.
type VoteInput struct {
	Username   string
	ProposalID string
	Vote       domain.VoteChoice
	Delegator  string
}

// VoteOnProposal records a governance vote and credits the reward, split
// with the delegator for delegated votes. A repeat vote by the same user is
// a recorded no-op.
func (l *Ledger) VoteOnProposal(ctx context.Context, in VoteInput) (domain.Proposal, event.Event, error) {
	ctx, span := l.startSpan(ctx, "VoteOnProposal",
		attribute.String("username", in.Username),
		attribute.String("proposal_id", in.ProposalID))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	if in.Delegator != "" {
		if err := l.checkDelegationLocked(in.Delegator, in.Username, in.ProposalID); err != nil {
			return domain.Proposal{}, event.Event{}, err
		}
	}

	evt, _, err := l.submitLocked(ctx, event.TypeProposalVote, in.Username, entityProposal, in.ProposalID,
		event.ProposalVotePayload{
			Username:   in.Username,
			ProposalID: in.ProposalID,
			Vote:       string(in.Vote),
			Delegated:  in.Delegator != "",
			Delegator:  in.Delegator,
		})
	if err != nil {
		return domain.Proposal{}, event.Event{}, err
	}
	return l.proposalLocked(in.ProposalID), evt, nil
}

// checkDelegationLocked verifies that delegator has delegated to delegate
// for the proposal, either specifically or through the general key.
func (l *Ledger) checkDelegationLocked(delegator, delegate, proposalID string) error {
	for _, key := range []string{
		domain.DelegationKey(delegator, proposalID),
		domain.DelegationKey(delegator, ""),
	} {
		if d, ok := l.state.Delegation(key); ok && d.Active && d.Delegate == delegate {
			return nil
		}
	}
	return apperrors.WithMetadata(apperrors.CodeNotAuthorized,
		fmt.Sprintf("user %q holds no delegation from %q", delegate, delegator),
		map[string]string{"delegate": delegate, "delegator": delegator})
}

// UpvoteProposal bumps the proposal's upvote count and mints one ACent into
// its escrow, then re-checks comment auto-integration.
func (l *Ledger) UpvoteProposal(ctx context.Context, username, proposalID string) (domain.Proposal, event.Event, error) {
	ctx, span := l.startSpan(ctx, "UpvoteProposal",
		attribute.String("username", username),
		attribute.String("proposal_id", proposalID))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, event.TypeProposalUpvote, username, entityProposal, proposalID,
		event.ProposalUpvotePayload{Username: username, ProposalID: proposalID})
	if err != nil {
		return domain.Proposal{}, event.Event{}, err
	}
	return l.proposalLocked(proposalID), evt, nil
}

// CreateCommentInput holds the arguments for CreateComment.
type CreateCommentInput struct {
	ProposalID      string
	Author          string
	Content         string
	ParentCommentID string
}

// ProposalQuizID is the quiz a user passes to comment on a proposal for
// free.
func ProposalQuizID(proposalID string) string {
	return proposalID + "_quiz"
}

// CreateComment adds a comment to a proposal. Authors who passed the
// proposal's quiz comment for free; everyone else pays the DCent cost.
func (l *Ledger) CreateComment(ctx context.Context, in CreateCommentInput) (domain.Comment, event.Event, error) {
	ctx, span := l.startSpan(ctx, "CreateComment",
		attribute.String("author", in.Author),
		attribute.String("proposal_id", in.ProposalID))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := token.Amount(rules.DefaultCommentCost)
	if u, ok := l.state.User(in.Author); ok && u.HasPassedQuiz(ProposalQuizID(in.ProposalID)) {
		cost = 0
	}

	id, err := l.newID()
	if err != nil {
		return domain.Comment{}, event.Event{}, fmt.Errorf("generate comment id: %w", err)
	}
	evt, _, err := l.submitLocked(ctx, event.TypeCommentCreate, in.Author, entityComment, id,
		event.CommentCreatePayload{
			ID:              id,
			ProposalID:      in.ProposalID,
			Author:          in.Author,
			Content:         in.Content,
			Cost:            cost,
			ParentCommentID: in.ParentCommentID,
		})
	if err != nil {
		return domain.Comment{}, event.Event{}, err
	}
	return l.commentLocked(id), evt, nil
}

// VoteOnComment records an up or down vote and credits the voter one DCent.
// Upvotes raise the comment's DCent value and may trigger auto-integration.
func (l *Ledger) VoteOnComment(ctx context.Context, username, commentID string, vote domain.CommentVoteChoice) (domain.Comment, event.Event, error) {
	ctx, span := l.startSpan(ctx, "VoteOnComment",
		attribute.String("username", username),
		attribute.String("comment_id", commentID))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, event.TypeCommentVote, username, entityComment, commentID,
		event.CommentVotePayload{Username: username, CommentID: commentID, Vote: string(vote)})
	if err != nil {
		return domain.Comment{}, event.Event{}, err
	}
	return l.commentLocked(commentID), evt, nil
}

// IntegrateComment merges a comment into its proposal on the author's
// approval. This is the only integration path for neighborhood proposals.
func (l *Ledger) IntegrateComment(ctx context.Context, actor, commentID, proposalID string) (domain.Proposal, event.Event, error) {
	ctx, span := l.startSpan(ctx, "IntegrateComment",
		attribute.String("comment_id", commentID),
		attribute.String("proposal_id", proposalID))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, event.TypeCommentIntegrate, actor, entityComment, commentID,
		event.CommentIntegratePayload{CommentID: commentID, ProposalID: proposalID})
	if err != nil {
		return domain.Proposal{}, event.Event{}, err
	}
	return l.proposalLocked(proposalID), evt, nil
}

// SetDelegation assigns a delegate for a proposal, or generally when
// proposalID is empty. Setting again for the same scope replaces the
// delegate.
func (l *Ledger) SetDelegation(ctx context.Context, delegator, delegate, proposalID string) (domain.User, event.Event, error) {
	ctx, span := l.startSpan(ctx, "SetDelegation",
		attribute.String("delegator", delegator),
		attribute.String("delegate", delegate))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, event.TypeDelegationSet, delegator, entityDelegation,
		domain.DelegationKey(delegator, proposalID),
		event.DelegationSetPayload{Username: delegator, Delegate: delegate, ProposalID: proposalID})
	if err != nil {
		return domain.User{}, event.Event{}, err
	}
	return l.userLocked(delegator), evt, nil
}

// RevokeDelegation removes a delegation. Revoking an absent delegation is a
// recorded no-op.
func (l *Ledger) RevokeDelegation(ctx context.Context, delegator, proposalID string) (domain.User, event.Event, error) {
	ctx, span := l.startSpan(ctx, "RevokeDelegation", attribute.String("delegator", delegator))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, event.TypeDelegationRevoke, delegator, entityDelegation,
		domain.DelegationKey(delegator, proposalID),
		event.DelegationRevokePayload{Username: delegator, ProposalID: proposalID})
	if err != nil {
		return domain.User{}, event.Event{}, err
	}
	return l.userLocked(delegator), evt, nil
}

// TransferInput holds the arguments for the transfer operations.
type TransferInput struct {
	From       string
	To         string
	Amount     token.Amount
	Reason     string
	ProposalID string
}

// TransferACents moves ACents between two existing users, atomically.
func (l *Ledger) TransferACents(ctx context.Context, in TransferInput) (domain.User, event.Event, error) {
	return l.transfer(ctx, event.TypeAcentTransfer, in)
}

// TransferDCents moves DCents between two existing users, atomically.
func (l *Ledger) TransferDCents(ctx context.Context, in TransferInput) (domain.User, event.Event, error) {
	return l.transfer(ctx, event.TypeDcentTransfer, in)
}

func (l *Ledger) transfer(ctx context.Context, typ event.Type, in TransferInput) (domain.User, event.Event, error) {
	ctx, span := l.startSpan(ctx, "Transfer",
		attribute.String("from", in.From),
		attribute.String("to", in.To))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	evt, _, err := l.submitLocked(ctx, typ, in.From, entityUser, in.To,
		event.TransferPayload{
			From:       in.From,
			To:         in.To,
			Amount:     in.Amount,
			Reason:     in.Reason,
			ProposalID: in.ProposalID,
		})
	if err != nil {
		return domain.User{}, event.Event{}, err
	}
	return l.userLocked(in.From), evt, nil
}

// userLocked returns a copy of a user after a successful fold. Caller holds
// the write lock, so the record is guaranteed present.
func (l *Ledger) userLocked(username string) domain.User {
	if u, ok := l.state.User(username); ok {
		return u.Clone()
	}
	return domain.User{}
}

func (l *Ledger) proposalLocked(id string) domain.Proposal {
	if p, ok := l.state.Proposal(id); ok {
		return p.Clone()
	}
	return domain.Proposal{}
}

func (l *Ledger) commentLocked(id string) domain.Comment {
	if c, ok := l.state.Comment(id); ok {
		return c.Clone()
	}
	return domain.Comment{}
}
