package pipeline

import "github.com/sbrunomello/pce-engine/pkg/models"

// domainMetaKeys are payload fields that address an event rather than
// describing domain state; they are never copied into the substate.
var domainMetaKeys = map[string]bool{
	"domain":         true,
	"session_id":     true,
	"correlation_id": true,
	"tags":           true,
}

// StateIntegrator is the Internal State Integrator (ISI, spec.md §4.2):
// it merges a normalized event into the current snapshot and returns a
// candidate the caller persists. ISI never writes directly.
type StateIntegrator struct {
	historyBound int
}

// NewStateIntegrator creates a StateIntegrator bounding event_history to
// historyBound entries (spec.md §4.4's window W, reused as the ring size).
func NewStateIntegrator(historyBound int) *StateIntegrator {
	return &StateIntegrator{historyBound: historyBound}
}

// Integrate reads snapshot, applies the deterministic core merge for
// event's domain, and returns the proposed next snapshot plus any
// violations raised while clamping malformed domain state. Merge rules
// are total functions: malformed substates are clamped rather than
// erroring (spec.md §4.2).
func (isi *StateIntegrator) Integrate(snapshot models.StateSnapshot, event models.Event) (models.StateSnapshot, []string) {
	candidate := snapshot.Clone()
	if candidate == nil {
		candidate = models.StateSnapshot{}
	}

	var violations []string

	domain := event.Domain()
	if domain != "" {
		key := models.StateKeyForDomain(domain)
		substate, ok := candidate[key].(map[string]any)
		if !ok {
			if _, present := candidate[key]; present {
				violations = append(violations, "state_substate_clamped")
			}
			substate = map[string]any{}
		}
		merged := make(map[string]any, len(substate))
		for k, v := range substate {
			merged[k] = v
		}
		for k, v := range event.Payload {
			if domainMetaKeys[k] {
				continue
			}
			merged[k] = v
		}
		candidate[key] = merged
	}

	candidate = models.AppendBounded(candidate, models.StateKeyEventHistory, event, isi.historyBound)
	return candidate, violations
}
