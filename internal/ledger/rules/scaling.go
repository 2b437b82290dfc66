package rules

import "github.com/opencivics/agora/internal/ledger/domain"

// scopeThreshold is what a proposal must show before it may enter a tier:
// at least MinForVotes "for" votes from at least MinVoters distinct voters.
type scopeThreshold struct {
	MinForVotes int
	MinVoters   int
}

// scopeThresholds is keyed by the target tier. Neighborhood is the floor
// and has no entry; world is the ceiling.
var scopeThresholds = map[domain.Scope]scopeThreshold{
	domain.ScopeCity:      {MinForVotes: 15, MinVoters: 50},
	domain.ScopeState:     {MinForVotes: 150, MinVoters: 750},
	domain.ScopeCountry:   {MinForVotes: 1500, MinVoters: 15000},
	domain.ScopeContinent: {MinForVotes: 15000, MinVoters: 150000},
	domain.ScopeWorld:     {MinForVotes: 150000, MinVoters: 5000000},
}

// advanceScope promotes the proposal one tier when its support meets the
// next tier's thresholds. At most one step per vote event; scope never
// regresses. Returns true when a promotion happened.
func advanceScope(p *domain.Proposal) bool {
	next, ok := p.Scope.Next()
	if !ok {
		return false
	}
	th, ok := scopeThresholds[next]
	if !ok {
		return false
	}
	if p.Votes.For < th.MinForVotes || len(p.Voters) < th.MinVoters {
		return false
	}
	p.Scope = next
	return true
}
