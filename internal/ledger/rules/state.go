package rules

import (
	"reflect"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/token"
)

// State is the materialized view of the journal: users, proposals,
// comments, and delegations keyed by their identifiers. It is fully
// rebuildable by replaying the event log from empty.
type State struct {
	users       map[string]*domain.User
	proposals   map[string]*domain.Proposal
	comments    map[string]*domain.Comment
	delegations map[string]*domain.Delegation
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		users:       make(map[string]*domain.User),
		proposals:   make(map[string]*domain.Proposal),
		comments:    make(map[string]*domain.Comment),
		delegations: make(map[string]*domain.Delegation),
	}
}

// User returns the live user record. Callers must not mutate it; readers
// that escape the fold lock should use Clone.
func (s *State) User(username string) (*domain.User, bool) {
	u, ok := s.users[username]
	return u, ok
}

// Proposal returns the live proposal record.
func (s *State) Proposal(id string) (*domain.Proposal, bool) {
	p, ok := s.proposals[id]
	return p, ok
}

// Comment returns the live comment record.
func (s *State) Comment(id string) (*domain.Comment, bool) {
	c, ok := s.comments[id]
	return c, ok
}

// Delegation returns the live delegation record for a delegation key.
func (s *State) Delegation(key string) (*domain.Delegation, bool) {
	d, ok := s.delegations[key]
	return d, ok
}

// Proposals returns all live proposal records in unspecified order.
func (s *State) Proposals() []*domain.Proposal {
	out := make([]*domain.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, p)
	}
	return out
}

// Stats are aggregate entity counts and token totals.
type Stats struct {
	Users       int
	Proposals   int
	Comments    int
	Delegations int
	// TotalAcents sums user balances; proposal escrows are counted
	// separately in EscrowedAcents.
	TotalAcents    token.Amount
	TotalDcents    token.Amount
	EscrowedAcents token.Amount
}

// Stats returns aggregate counts and balances.
func (s *State) Stats() Stats {
	st := Stats{
		Users:       len(s.users),
		Proposals:   len(s.proposals),
		Comments:    len(s.comments),
		Delegations: len(s.delegations),
	}
	for _, u := range s.users {
		st.TotalAcents += u.Acents
		st.TotalDcents += u.Dcents
	}
	for _, p := range s.proposals {
		st.EscrowedAcents += p.AcentsBalance
	}
	return st
}

// Equal reports whether two states hold identical materialized records.
// Used by replay verification.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(s.users, other.users) &&
		reflect.DeepEqual(s.proposals, other.proposals) &&
		reflect.DeepEqual(s.comments, other.comments) &&
		reflect.DeepEqual(s.delegations, other.delegations)
}
