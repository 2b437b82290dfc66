package rules

import (
	"fmt"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
)

// integrationFooter formats the attribution block appended to a proposal's
// content when a comment is merged in.
const integrationFooter = "\n\n**Community Integration v%d:**\n%s\n*- Integrated from comment by %s*"

// autoIntegrationEligible reports whether a comment has earned automatic
// integration: its upvotes have caught up with the proposal's own, and the
// proposal has outgrown the neighborhood tier, where only the author may
// integrate.
func autoIntegrationEligible(p *domain.Proposal, c *domain.Comment) bool {
	if c.Integrated {
		return false
	}
	if p.Scope == domain.ScopeNeighborhood {
		return false
	}
	return c.Upvotes >= p.Upvotes
}

// integrateIfEligible merges the comment automatically when it qualifies.
// Returns true when an integration happened.
func (s *State) integrateIfEligible(p *domain.Proposal, c *domain.Comment, evt event.Event) bool {
	if !autoIntegrationEligible(p, c) {
		return false
	}
	integrate(p, c, domain.IntegrationAutomatic, evt)
	return true
}

// sweepIntegrations re-checks every comment on the proposal, in comment
// order, and integrates the ones that qualify. Returns the ids integrated.
func (s *State) sweepIntegrations(p *domain.Proposal, evt event.Event) []string {
	var integrated []string
	for _, id := range p.Comments {
		c, ok := s.comments[id]
		if !ok {
			continue
		}
		if s.integrateIfEligible(p, c, evt) {
			integrated = append(integrated, id)
		}
	}
	return integrated
}

// integrate merges a comment into its proposal: snapshot the prior content,
// bump the version, append the comment with attribution, and mark the
// comment so repeat checks skip it.
func integrate(p *domain.Proposal, c *domain.Comment, method domain.IntegrationMethod, evt event.Event) {
	p.ContentHistory = append(p.ContentHistory, p.Content)
	p.Version++
	p.Content += fmt.Sprintf(integrationFooter, p.Version, c.Content, c.Author)
	p.IntegratedComments = append(p.IntegratedComments, c.ID)
	p.LastModified = evt.Timestamp

	c.Integrated = true
	c.IntegrationMethod = method
	c.IntegratedAt = evt.Timestamp
}
