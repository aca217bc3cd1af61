package plugins

import (
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoboticsDecidePurchaseRequest(t *testing.T) {
	r := NewRobotics()
	state := models.StateSnapshot{}
	event := models.Event{
		Type:    "purchase.request.v1",
		Payload: map[string]any{"domain": "os.robotics", "projected_cost": 42.5, "risk": "HIGH"},
	}

	plan := r.Decide(state, 0.8, models.CCISnapshot{CCI: 0.8}, event)
	assert.Equal(t, "purchase", plan.ActionType)
	assert.Equal(t, 42.5, plan.Fields["projected_cost"])
	assert.Equal(t, "HIGH", plan.Fields["risk"])
}

func TestRoboticsApplyPurchaseCompletedDebitsBudgetAndAppendsHistory(t *testing.T) {
	r := NewRobotics()
	state := models.StateSnapshot{"robotics": map[string]any{"budget_remaining": 100.0}}
	event := models.Event{
		Ts:      1000,
		Type:    "purchase.completed",
		Payload: map[string]any{"domain": "os.robotics", "projected_cost": 40.0, "approval_id": "appr-1"},
	}

	plan := r.Decide(state, 0.8, models.CCISnapshot{CCI: 0.8}, event)
	assert.Equal(t, "acquire_committed", plan.ActionType)

	substate := state["robotics"].(map[string]any)
	assert.Equal(t, 60.0, substate["budget_remaining"])

	history, ok := substate["purchase_history"].([]models.PurchaseRecord)
	require.True(t, ok)
	require.Len(t, history, 1)
	assert.Equal(t, "appr-1", history[0].ApprovalID)
	assert.Equal(t, 40.0, history[0].Amount)
}

func TestRoboticsApplyPurchaseRejectedAppendsAuditTrailNoDebit(t *testing.T) {
	r := NewRobotics()
	state := models.StateSnapshot{"robotics": map[string]any{"budget_remaining": 100.0}}
	event := models.Event{
		Type:    "purchase.rejected",
		Payload: map[string]any{"domain": "os.robotics", "approval_id": "appr-2"},
	}

	plan := r.Decide(state, 0.8, models.CCISnapshot{CCI: 0.8}, event)
	assert.Equal(t, "acquire_rejected", plan.ActionType)

	substate := state["robotics"].(map[string]any)
	assert.Equal(t, 100.0, substate["budget_remaining"])
	trail, ok := substate["audit_trail"].([]string)
	require.True(t, ok)
	assert.Len(t, trail, 1)
}

func TestRoboticsDecideTelemetryExploreVsExploit(t *testing.T) {
	r := NewRobotics()
	r.randFloat = func() float64 { return 0.0 }
	r.randIntn = func(int) int { return 1 } // "L"
	state := models.StateSnapshot{}
	event := models.Event{Type: "robot_telemetry", Payload: map[string]any{"domain": "os.robotics", "state_id": "cell-1"}}

	plan := r.Decide(state, 0.5, models.CCISnapshot{CCI: 0.5}, event)
	assert.Equal(t, "rover_l", plan.ActionType)
	assert.Equal(t, "L", plan.Fields["action"])
}

func TestRoboticsAdaptUpdatesQValueAndDecaysEpsilon(t *testing.T) {
	r := NewRobotics()
	state := models.StateSnapshot{"robotics": map[string]any{
		"policy": models.RoverPolicy{Epsilon: 1.0, Q: map[string]float64{}},
	}}
	feedback := models.Event{
		Type: "reward.robotics.v1",
		Payload: map[string]any{
			"domain": "os.robotics", "state_id": "cell-1", "action": "FWD",
			"next_state_id": "cell-2", "reward": 1.0,
		},
	}

	out := r.Adapt(state, feedback)
	substate := out["robotics"].(map[string]any)
	policy := substate["policy"].(models.RoverPolicy)

	assert.InDelta(t, 0.2, policy.Q["cell-1:FWD"], 1e-9) // 0 + 0.2*(1 + 0.95*0 - 0) = 0.2
	assert.Less(t, policy.Epsilon, 1.0)
	assert.Equal(t, 1, policy.Stats.Episodes)
	assert.Equal(t, 1.0, policy.Stats.LastReward)
}
