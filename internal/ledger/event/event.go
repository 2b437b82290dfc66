// Package event defines the ledger's append-only event vocabulary: the
// closed type enumeration, the immutable envelope, and the typed payloads
// carried by each event. The event log is the single source of truth; every
// materialized entity is derived by folding these events in sequence order.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of a ledger event.
type Type string

// User and quiz events.
const (
	// TypeUserRegister records a new citizen joining the ledger.
	TypeUserRegister Type = "user.register"
	// TypeQuizPass records a passed competence quiz.
	TypeQuizPass Type = "quiz.pass"
	// TypeQuizFail records a failed competence quiz.
	TypeQuizFail Type = "quiz.fail"
)

// Proposal events.
const (
	// TypeProposalCreate records a new proposal entering governance.
	TypeProposalCreate Type = "proposal.create"
	// TypeProposalVote records a governance vote on a proposal.
	TypeProposalVote Type = "proposal.vote"
	// TypeProposalUpvote records an upvote funding the proposal escrow.
	TypeProposalUpvote Type = "proposal.upvote"
)

// Comment events.
const (
	// TypeCommentCreate records a new comment on a proposal.
	TypeCommentCreate Type = "comment.create"
	// TypeCommentVote records an up/down vote on a comment.
	TypeCommentVote Type = "comment.vote"
	// TypeCommentIntegrate records a manual, author-approved integration.
	TypeCommentIntegrate Type = "comment.integrate"
)

// Delegation events.
const (
	// TypeDelegationSet records a delegation assignment.
	TypeDelegationSet Type = "delegation.set"
	// TypeDelegationRevoke records a delegation removal.
	TypeDelegationRevoke Type = "delegation.revoke"
)

// Token transfer events.
const (
	// TypeAcentTransfer records an ACent transfer between users.
	TypeAcentTransfer Type = "transfer.acent"
	// TypeDcentTransfer records a DCent transfer between users.
	TypeDcentTransfer Type = "transfer.dcent"
)

// types is the closed set; membership is the schema-version contract.
var types = map[Type]bool{
	TypeUserRegister:     true,
	TypeQuizPass:         true,
	TypeQuizFail:         true,
	TypeProposalCreate:   true,
	TypeProposalVote:     true,
	TypeProposalUpvote:   true,
	TypeCommentCreate:    true,
	TypeCommentVote:      true,
	TypeCommentIntegrate: true,
	TypeDelegationSet:    true,
	TypeDelegationRevoke: true,
	TypeAcentTransfer:    true,
	TypeDcentTransfer:    true,
}

// Valid reports whether the type belongs to the closed enumeration.
func (t Type) Valid() bool {
	return types[t]
}

// SystemActor marks events emitted by the ledger itself (seeding).
const SystemActor = "system"

// Event represents an immutable entry in the ledger journal.
type Event struct {
	// ID is the caller-visible identity, assigned before append. Retried
	// submissions reuse the same ID so stores can deduplicate.
	ID string
	// Seq is the position in the journal (starts at 1). Assigned by
	// storage on append; monotonic and gapless.
	Seq uint64
	// Timestamp is when the event occurred, UTC, millisecond precision.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// Actor is the username that triggered the event, or SystemActor.
	Actor string
	// EntityType is the primary entity kind affected (user, proposal, ...).
	EntityType string
	// EntityID is the id of the primary entity affected.
	EntityID string
	// PayloadJSON holds the typed payload encoded as JSON.
	PayloadJSON []byte
}

// New builds an unappended event envelope from a typed payload.
func New(id string, typ Type, actor, entityType, entityID string, ts time.Time, payload any) (Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event payload: %w", err)
	}
	return Event{
		ID:          id,
		Timestamp:   ts.UTC().Truncate(time.Millisecond),
		Type:        typ,
		Actor:       actor,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: payloadJSON,
	}, nil
}
