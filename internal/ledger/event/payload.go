package event

import (
	"strings"

	apperrors "github.com/opencivics/agora/internal/platform/errors"
	"github.com/opencivics/agora/internal/ledger/token"
)

// UserRegisterPayload carries user.register data.
type UserRegisterPayload struct {
	Username string `json:"username"`
	// ReferredBy is the optional referring username.
	ReferredBy string `json:"referred_by,omitempty"`
	// PublicKey is the opaque crypto identity; never validated here.
	PublicKey string `json:"public_key,omitempty"`
}

// Validate checks required fields.
func (p UserRegisterPayload) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.New(apperrors.CodeValidation, "user.register: username is required")
	}
	return nil
}

// QuizOutcomePayload carries quiz.pass and quiz.fail data.
type QuizOutcomePayload struct {
	Username string `json:"username"`
	QuizID   string `json:"quiz_id"`
	// Score is the grading result out of 100, when the quiz subsystem
	// reports one.
	Score int `json:"score,omitempty"`
	// TimeSpentMS is how long the attempt took, in milliseconds.
	TimeSpentMS int64 `json:"time_spent_ms,omitempty"`
}

// Validate checks required fields.
func (p QuizOutcomePayload) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.New(apperrors.CodeValidation, "quiz outcome: username is required")
	}
	if strings.TrimSpace(p.QuizID) == "" {
		return apperrors.New(apperrors.CodeValidation, "quiz outcome: quiz id is required")
	}
	return nil
}

// ProposalCreatePayload carries proposal.create data.
type ProposalCreatePayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Scope   string `json:"scope"`
	// Protected proposals cannot be displaced; reserved for founding texts.
	Protected bool `json:"protected,omitempty"`
	Founding  bool `json:"founding,omitempty"`
	// Cost is the ACent debit taken from the author, in milli-tokens.
	Cost token.Amount `json:"cost"`
}

// Validate checks required fields.
func (p ProposalCreatePayload) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.create: id is required")
	case strings.TrimSpace(p.Title) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.create: title is required")
	case strings.TrimSpace(p.Content) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.create: content is required")
	case strings.TrimSpace(p.Author) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.create: author is required")
	case strings.TrimSpace(p.Scope) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.create: scope is required")
	case p.Cost.IsNegative():
		return apperrors.New(apperrors.CodeValidation, "proposal.create: cost must not be negative")
	}
	return nil
}

// ProposalVotePayload carries proposal.vote data.
type ProposalVotePayload struct {
	Username   string `json:"username"`
	ProposalID string `json:"proposal_id"`
	Vote       string `json:"vote"`
	// Delegated marks a vote cast on behalf of Delegator; the reward is
	// split half-and-half between voter and delegator.
	Delegated bool   `json:"delegated,omitempty"`
	Delegator string `json:"delegator,omitempty"`
}

// Validate checks required fields.
func (p ProposalVotePayload) Validate() error {
	switch {
	case strings.TrimSpace(p.Username) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.vote: username is required")
	case strings.TrimSpace(p.ProposalID) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.vote: proposal id is required")
	case strings.TrimSpace(p.Vote) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.vote: vote is required")
	case p.Delegated && strings.TrimSpace(p.Delegator) == "":
		return apperrors.New(apperrors.CodeValidation, "proposal.vote: delegated vote requires a delegator")
	}
	return nil
}

// ProposalUpvotePayload carries proposal.upvote data.
type ProposalUpvotePayload struct {
	Username   string `json:"username"`
	ProposalID string `json:"proposal_id"`
}

// Validate checks required fields.
func (p ProposalUpvotePayload) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.New(apperrors.CodeValidation, "proposal.upvote: username is required")
	}
	if strings.TrimSpace(p.ProposalID) == "" {
		return apperrors.New(apperrors.CodeValidation, "proposal.upvote: proposal id is required")
	}
	return nil
}

// CommentCreatePayload carries comment.create data.
type CommentCreatePayload struct {
	ID         string `json:"id"`
	ProposalID string `json:"proposal_id"`
	Author     string `json:"author"`
	Content    string `json:"content"`
	// Cost is the DCent debit for commenting without having passed the
	// proposal quiz, in milli-tokens. Zero when the author passed.
	Cost            token.Amount `json:"cost"`
	ParentCommentID string       `json:"parent_comment_id,omitempty"`
}

// Validate checks required fields.
func (p CommentCreatePayload) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.create: id is required")
	case strings.TrimSpace(p.ProposalID) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.create: proposal id is required")
	case strings.TrimSpace(p.Author) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.create: author is required")
	case strings.TrimSpace(p.Content) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.create: content is required")
	case p.Cost.IsNegative():
		return apperrors.New(apperrors.CodeValidation, "comment.create: cost must not be negative")
	}
	return nil
}

// CommentVotePayload carries comment.vote data.
type CommentVotePayload struct {
	Username  string `json:"username"`
	CommentID string `json:"comment_id"`
	Vote      string `json:"vote"`
}

// Validate checks required fields.
func (p CommentVotePayload) Validate() error {
	switch {
	case strings.TrimSpace(p.Username) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.vote: username is required")
	case strings.TrimSpace(p.CommentID) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.vote: comment id is required")
	case strings.TrimSpace(p.Vote) == "":
		return apperrors.New(apperrors.CodeValidation, "comment.vote: vote is required")
	}
	return nil
}

// CommentIntegratePayload carries comment.integrate data. Manual
// integration is author-approved and is the only path for neighborhood
// proposals, which are exempt from the automatic threshold.
type CommentIntegratePayload struct {
	CommentID  string `json:"comment_id"`
	ProposalID string `json:"proposal_id"`
}

// Validate checks required fields.
func (p CommentIntegratePayload) Validate() error {
	if strings.TrimSpace(p.CommentID) == "" {
		return apperrors.New(apperrors.CodeValidation, "comment.integrate: comment id is required")
	}
	if strings.TrimSpace(p.ProposalID) == "" {
		return apperrors.New(apperrors.CodeValidation, "comment.integrate: proposal id is required")
	}
	return nil
}

// DelegationSetPayload carries delegation.set data.
type DelegationSetPayload struct {
	Username string `json:"username"`
	Delegate string `json:"delegate"`
	// ProposalID scopes the delegation; empty means general.
	ProposalID string `json:"proposal_id,omitempty"`
}

// Validate checks required fields.
func (p DelegationSetPayload) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.New(apperrors.CodeValidation, "delegation.set: username is required")
	}
	if strings.TrimSpace(p.Delegate) == "" {
		return apperrors.New(apperrors.CodeValidation, "delegation.set: delegate is required")
	}
	return nil
}

// DelegationRevokePayload carries delegation.revoke data.
type DelegationRevokePayload struct {
	Username   string `json:"username"`
	ProposalID string `json:"proposal_id,omitempty"`
}

// Validate checks required fields.
func (p DelegationRevokePayload) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.New(apperrors.CodeValidation, "delegation.revoke: username is required")
	}
	return nil
}

// TransferPayload carries transfer.acent and transfer.dcent data. Amount is
// in milli-tokens.
type TransferPayload struct {
	From       string       `json:"from"`
	To         string       `json:"to"`
	Amount     token.Amount `json:"amount"`
	Reason     string       `json:"reason,omitempty"`
	ProposalID string       `json:"proposal_id,omitempty"`
}

// Validate checks required fields.
func (p TransferPayload) Validate() error {
	switch {
	case strings.TrimSpace(p.From) == "":
		return apperrors.New(apperrors.CodeValidation, "transfer: from is required")
	case strings.TrimSpace(p.To) == "":
		return apperrors.New(apperrors.CodeValidation, "transfer: to is required")
	case p.From == p.To:
		return apperrors.New(apperrors.CodeValidation, "transfer: from and to must differ")
	case p.Amount <= 0:
		return apperrors.New(apperrors.CodeValidation, "transfer: amount must be positive")
	}
	return nil
}
