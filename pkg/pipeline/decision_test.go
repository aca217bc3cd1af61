package pipeline

import (
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/plugins"
	"github.com/stretchr/testify/assert"
)

type stubDecider struct {
	plan  models.ActionPlan
	panic bool
}

func (d stubDecider) Decide(models.StateSnapshot, float64, models.CCISnapshot, models.Event) models.ActionPlan {
	if d.panic {
		panic("boom")
	}
	return d.plan
}

func TestDecideFallsBackToCoreDefaultWhenNoDeciderRegistered(t *testing.T) {
	de := NewDecisionEngine(plugins.NewRegistry())
	event := models.Event{Payload: map[string]any{"domain": "assistant"}}
	plan := de.Decide(models.StateSnapshot{}, 0.8, models.CCISnapshot{}, event)
	assert.Equal(t, "observe", plan.ActionType)
}

func TestDecideDispatchesToRegisteredDecider(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "assistant", Decider: stubDecider{plan: models.ActionPlan{ActionType: "respond", Domain: "assistant"}}})
	de := NewDecisionEngine(registry)
	event := models.Event{Payload: map[string]any{"domain": "assistant"}}

	plan := de.Decide(models.StateSnapshot{}, 0.8, models.CCISnapshot{}, event)
	assert.Equal(t, "respond", plan.ActionType)
}

func TestDecideDowngradesToCoreDefaultOnPluginPanic(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "assistant", Decider: stubDecider{panic: true}})
	de := NewDecisionEngine(registry)
	event := models.Event{Payload: map[string]any{"domain": "assistant"}}

	plan := de.Decide(models.StateSnapshot{}, 0.8, models.CCISnapshot{}, event)
	assert.Equal(t, "observe", plan.ActionType)
	assert.Equal(t, "plugin_error", plan.Metadata.Explain["de"].(map[string]any)["override_reason"])
}

func TestDecideGatesRoboticsFinancialField(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "os.robotics", Decider: stubDecider{plan: models.ActionPlan{
		ActionType: "purchase", Domain: "os.robotics", Fields: map[string]any{"projected_cost": 40.0},
	}}})
	de := NewDecisionEngine(registry)
	event := models.Event{Payload: map[string]any{"domain": "os.robotics"}}

	plan := de.Decide(models.StateSnapshot{}, 0.8, models.CCISnapshot{}, event)
	assert.True(t, plan.RequiresApproval)
	assert.Equal(t, "financial_field", plan.Metadata.Explain["de"].(map[string]any)["requires_approval_reason"])
}

func TestDecideGatesRoboticsHighRisk(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "os.robotics", Decider: stubDecider{plan: models.ActionPlan{
		ActionType: "move", Domain: "os.robotics", Fields: map[string]any{"risk": "HIGH"},
	}}})
	de := NewDecisionEngine(registry)
	event := models.Event{Payload: map[string]any{"domain": "os.robotics"}}

	plan := de.Decide(models.StateSnapshot{}, 0.8, models.CCISnapshot{}, event)
	assert.True(t, plan.RequiresApproval)
}

func TestDecideDoesNotGateNonRoboticsDomains(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "trader", Decider: stubDecider{plan: models.ActionPlan{
		ActionType: "purchase", Domain: "trader", Fields: map[string]any{"projected_cost": 40.0},
	}}})
	de := NewDecisionEngine(registry)
	event := models.Event{Payload: map[string]any{"domain": "trader"}}

	plan := de.Decide(models.StateSnapshot{}, 0.8, models.CCISnapshot{}, event)
	assert.False(t, plan.RequiresApproval)
}
