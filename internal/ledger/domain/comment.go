package domain

import (
	"time"

	"github.com/opencivics/agora/internal/ledger/token"
)

// CommentVoteChoice is a vote direction on a comment.
type CommentVoteChoice string

const (
	CommentVoteUp   CommentVoteChoice = "up"
	CommentVoteDown CommentVoteChoice = "down"
)

// Valid reports whether the choice is a known direction.
func (v CommentVoteChoice) Valid() bool {
	return v == CommentVoteUp || v == CommentVoteDown
}

// IntegrationMethod records how a comment was merged into its proposal.
type IntegrationMethod string

const (
	IntegrationAutomatic IntegrationMethod = "automatic"
	IntegrationManual    IntegrationMethod = "manual"
)

// CommentVoterRecord captures one vote on a comment. A username appears at
// most once per comment.
type CommentVoterRecord struct {
	Username  string
	Vote      CommentVoteChoice
	Timestamp time.Time
}

// Comment is the materialized comment record. Integrated never reverts to
// false once set.
type Comment struct {
	ID              string
	ProposalID      string
	Author          string
	Content         string
	ParentCommentID string

	Upvotes   int
	Downvotes int

	// DCentValue accrues one DCent per upvote, a measure of community
	// valuation used by future payout distribution.
	DCentValue token.Amount

	Integrated        bool
	IntegrationMethod IntegrationMethod
	IntegratedAt      time.Time

	Voters []CommentVoterRecord

	CreatedAt time.Time
}

// HasVoter reports whether username already voted on this comment.
func (c *Comment) HasVoter(username string) bool {
	for _, rec := range c.Voters {
		if rec.Username == username {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to readers.
func (c *Comment) Clone() Comment {
	out := *c
	out.Voters = append([]CommentVoterRecord(nil), c.Voters...)
	return out
}
