package domain

import (
	"time"

	"github.com/opencivics/agora/internal/ledger/token"
)

// VoteChoice is a governance vote direction on a proposal.
type VoteChoice string

const (
	VoteFor     VoteChoice = "for"
	VoteAgainst VoteChoice = "against"
	VoteAbstain VoteChoice = "abstain"
)

// Valid reports whether the choice is a known direction.
func (v VoteChoice) Valid() bool {
	return v == VoteFor || v == VoteAgainst || v == VoteAbstain
}

// VoteTally holds per-direction vote counts.
type VoteTally struct {
	For     int
	Against int
	Abstain int
}

// VoterRecord captures one submitted vote. A username appears at most once
// per proposal.
type VoterRecord struct {
	Username  string
	Vote      VoteChoice
	Delegated bool
	Delegator string
	Timestamp time.Time
}

// Proposal is the materialized proposal record.
type Proposal struct {
	ID      string
	Title   string
	Content string
	Author  string

	// Scope only ever advances forward through the scope ladder.
	Scope     Scope
	Protected bool
	Founding  bool

	// Version increments exactly once per comment integration.
	Version int

	// AcentsBalance is the escrow funded by upvotes, reserved for future
	// payout distribution.
	AcentsBalance token.Amount

	Upvotes int
	Votes   VoteTally
	Voters  []VoterRecord

	Comments           []string
	IntegratedComments []string

	// ContentHistory snapshots the body as it was before each integration,
	// one entry per prior version, so integrations stay auditable without
	// unbounded in-place growth being the only record.
	ContentHistory []string

	CreatedAt    time.Time
	LastModified time.Time
}

// HasVoter reports whether username already voted on this proposal.
func (p *Proposal) HasVoter(username string) bool {
	for _, rec := range p.Voters {
		if rec.Username == username {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to readers.
func (p *Proposal) Clone() Proposal {
	out := *p
	out.Voters = append([]VoterRecord(nil), p.Voters...)
	out.Comments = append([]string(nil), p.Comments...)
	out.IntegratedComments = append([]string(nil), p.IntegratedComments...)
	out.ContentHistory = append([]string(nil), p.ContentHistory...)
	return out
}
