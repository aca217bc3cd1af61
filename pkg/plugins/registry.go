// Package plugins is the domain Plugin Registry (spec.md §2, §9): a
// read-mostly map from domain name to the capability set it implements.
// Registration happens once at boot, mirroring the teacher's
// config.AgentRegistry/config.ChainRegistry Register-by-key pattern
// (pkg/config's registries resolve YAML-declared agents/chains by name;
// here the keys are domains and the values are Go closures instead of
// config structs, since domain logic is code, not declarative config).
package plugins

import "github.com/sbrunomello/pce-engine/pkg/models"

// ValueScorer computes a domain-specific value_score and any violations
// (spec.md §4.3). Domains without one fall back to the core default.
type ValueScorer interface {
	ValueScore(state models.StateSnapshot, event models.Event) (score float64, violations []string)
}

// Decider deliberates an action plan from the merged state, value score,
// and current CCI (spec.md §4.5). Domains without one fall back to the
// core default (`observe`, priority 1).
type Decider interface {
	Decide(state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) models.ActionPlan
}

// Adapter applies a feedback event to domain state (spec.md §4.8).
// Domains without one leave state unchanged on feedback.
type Adapter interface {
	Adapt(state models.StateSnapshot, feedback models.Event) models.StateSnapshot
}

// Domain bundles the capability subset one domain plugin implements.
// Any field may be nil; the orchestrator checks before dispatching
// (spec.md §9: "each domain registers any subset").
type Domain struct {
	Name        string
	ValueScorer ValueScorer
	Decider     Decider
	Adapter     Adapter
}

// Registry resolves a domain name (payload.domain) to its Domain.
// Read-mostly after boot: Register calls happen once from
// cmd/pceserver/main.go before the HTTP server accepts ingress.
type Registry struct {
	domains map[string]Domain
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{domains: make(map[string]Domain)}
}

// Register adds or replaces the Domain registered under d.Name.
func (r *Registry) Register(d Domain) {
	r.domains[d.Name] = d
}

// Get returns the Domain registered for name, or ok=false if none is.
func (r *Registry) Get(name string) (Domain, bool) {
	d, ok := r.domains[name]
	return d, ok
}
