package pipeline

import (
	"strings"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/plugins"
)

// financialFields are ActionPlan.Fields keys the approval-gate trigger
// treats as "affects a financial state field" (spec.md §4.5 step 4).
var financialFields = []string{"purchase", "budget"}

var gatedRiskLevels = map[string]bool{"HIGH": true, "MEDIUM": true}

// DecisionEngine is the Decision Engine (DE, spec.md §4.5): it dispatches
// to the event's domain plugin (or the core default), then applies the
// domain-independent approval-gate trigger every plan passes through
// regardless of which decider produced it.
type DecisionEngine struct {
	registry *plugins.Registry
}

// NewDecisionEngine creates a DecisionEngine dispatching through registry.
func NewDecisionEngine(registry *plugins.Registry) *DecisionEngine {
	return &DecisionEngine{registry: registry}
}

// Decide deliberates an action plan for event. Floor-override and
// bandit-profile selection are the domain plugin's responsibility (its
// Decide method already receives valueScore and cci, spec.md §9's
// `decide(state,score,cci,event)->plan` signature). A domain with no
// registered Decider gets the core default plan; a plugin panic
// downgrades to the core default with `override_reason = "plugin_error"`,
// never fatal to the pipeline (spec.md §4.5 failure semantics).
func (de *DecisionEngine) Decide(state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) (plan models.ActionPlan) {
	domain := event.Domain()

	decider := de.lookupDecider(domain)
	if decider == nil {
		plan = coreDefaultPlan(event)
	} else {
		plan = de.safeDecide(decider, state, valueScore, cci, event)
	}

	applyApprovalGateTrigger(&plan, domain)
	return plan
}

func (de *DecisionEngine) lookupDecider(domain string) plugins.Decider {
	d, ok := de.registry.Get(domain)
	if !ok {
		return nil
	}
	return d.Decider
}

func (de *DecisionEngine) safeDecide(decider plugins.Decider, state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) (plan models.ActionPlan) {
	defer func() {
		if r := recover(); r != nil {
			plan = coreDefaultPlan(event)
			plan.Metadata.ExplainStage("de")["override_reason"] = "plugin_error"
		}
	}()
	return decider.Decide(state, valueScore, cci, event)
}

func coreDefaultPlan(event models.Event) models.ActionPlan {
	return models.ActionPlan{
		ActionType:     "observe",
		Priority:       1,
		Rationale:      "no domain decider registered; observing",
		ExpectedImpact: 0,
		Domain:         event.Domain(),
	}
}

// applyApprovalGateTrigger marks plan.RequiresApproval per spec.md §4.5
// step 4: domain os.robotics AND (a financial field is touched OR the
// plan declares a gated risk level).
func applyApprovalGateTrigger(plan *models.ActionPlan, domain string) {
	if domain != "os.robotics" {
		return
	}

	reason := ""
	if touchesFinancialField(*plan) {
		reason = "financial_field"
	} else if risk, _ := plan.Fields["risk"].(string); gatedRiskLevels[strings.ToUpper(risk)] {
		reason = "risk_level"
	}

	if reason == "" {
		return
	}
	plan.RequiresApproval = true
	plan.Metadata.ExplainStage("de")["requires_approval_reason"] = reason
}

func touchesFinancialField(plan models.ActionPlan) bool {
	lowerType := strings.ToLower(plan.ActionType)
	for _, field := range financialFields {
		if strings.Contains(lowerType, field) {
			return true
		}
		if _, ok := plan.Fields[field]; ok {
			return true
		}
	}
	return false
}
