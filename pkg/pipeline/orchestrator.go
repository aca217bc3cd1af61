package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbrunomello/pce-engine/pkg/models"
)

// Execute is the Action Orchestrator (AO, spec.md §4.6 non-gated path):
// it runs a plan that did not require approval and produces the
// CompletedAction record CCI's window reads from.
//
// No domain plugin in this registry implements an observation probe
// (spec.md §9 fixes the plugin capability set at value_score/decide/
// adapt, with no fourth "observe" capability), so observed_impact always
// falls back to expected_impact, the degenerate case spec.md §4.6
// explicitly allows ("observed_impact computed by the domain plugin, or
// expected_impact as a stand-in when the domain has no probe").
func Execute(plan models.ActionPlan, decisionID string, violations []string) models.CompletedAction {
	return models.CompletedAction{
		ActionPlan:     plan,
		ActionID:       uuid.NewString(),
		ObservedImpact: plan.ExpectedImpact,
		Success:        len(violations) == 0,
		Violations:     violations,
		CompletedAt:    time.Now().UnixMilli(),
		DecisionID:     decisionID,
	}
}
