package domain

// Scope is the geographic tier of a proposal. Proposals only ever advance
// forward through the ladder; there is no demotion path.
type Scope string

const (
	ScopeNeighborhood Scope = "neighborhood"
	ScopeCity         Scope = "city"
	ScopeState        Scope = "state"
	ScopeCountry      Scope = "country"
	ScopeContinent    Scope = "continent"
	ScopeWorld        Scope = "world"
)

// scopeLadder is the fixed advancement order.
var scopeLadder = []Scope{
	ScopeNeighborhood,
	ScopeCity,
	ScopeState,
	ScopeCountry,
	ScopeContinent,
	ScopeWorld,
}

// Valid reports whether the scope is one of the known tiers.
func (s Scope) Valid() bool {
	for _, tier := range scopeLadder {
		if s == tier {
			return true
		}
	}
	return false
}

// Next returns the tier immediately above s. The second return is false
// when s is already the top of the ladder or unknown.
func (s Scope) Next() (Scope, bool) {
	for i, tier := range scopeLadder {
		if s == tier {
			if i+1 < len(scopeLadder) {
				return scopeLadder[i+1], true
			}
			return "", false
		}
	}
	return "", false
}
