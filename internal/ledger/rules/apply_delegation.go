package rules

import (
	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
)

func (s *State) stageDelegationSet(evt event.Event, p event.DelegationSetPayload) (func() Change, error) {
	delegator, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}
	if _, ok := s.users[p.Delegate]; !ok {
		return nil, userNotFound(p.Delegate)
	}
	key := domain.DelegationKey(p.Username, p.ProposalID)
	scopeKey := p.ProposalID
	if scopeKey == "" {
		scopeKey = domain.GeneralDelegation
	}

	return func() Change {
		// Setting again for the same scope is an upsert; the newest delegate
		// wins.
		s.delegations[key] = &domain.Delegation{
			Delegator:  p.Username,
			Delegate:   p.Delegate,
			ProposalID: p.ProposalID,
			Active:     true,
			CreatedAt:  evt.Timestamp,
		}
		delegator.Delegations[scopeKey] = p.Delegate
		delegator.LastActive = evt.Timestamp
		return Change{Users: []string{p.Username}, Delegations: []string{key}}
	}, nil
}

func (s *State) stageDelegationRevoke(evt event.Event, p event.DelegationRevokePayload) (func() Change, error) {
	delegator, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}
	key := domain.DelegationKey(p.Username, p.ProposalID)
	if _, ok := s.delegations[key]; !ok {
		// Revoking an absent delegation is harmless; the journal keeps the
		// event and the fold does nothing.
		return func() Change { return noopChange() }, nil
	}
	scopeKey := p.ProposalID
	if scopeKey == "" {
		scopeKey = domain.GeneralDelegation
	}

	return func() Change {
		delete(s.delegations, key)
		delete(delegator.Delegations, scopeKey)
		delegator.LastActive = evt.Timestamp
		return Change{Users: []string{p.Username}, Delegations: []string{key}}
	}, nil
}
