package domain

import "time"

// Delegation assigns a delegate for a proposal (or generally, when
// ProposalID is empty). Keyed by (delegator, proposal|general).
type Delegation struct {
	Delegator  string
	Delegate   string
	ProposalID string
	Active     bool
	CreatedAt  time.Time
}

// DelegationKey builds the storage key for a delegation scope.
func DelegationKey(delegator, proposalID string) string {
	scope := proposalID
	if scope == "" {
		scope = GeneralDelegation
	}
	return delegator + ":" + scope
}
