package store

import (
	"errors"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

var errForcedFailure = errors.New("forced failure")

func testSnapshot() models.StateSnapshot {
	return models.StateSnapshot{
		"assistant": map[string]any{"session-1": map[string]any{"epsilon": 1.0}},
	}
}

func testEvent(id string, ts int64) models.Event {
	return models.Event{
		EventID: id,
		Type:    "telemetry.reading",
		Source:  "sensor-1",
		Ts:      ts,
		Payload: map[string]any{"domain": "robotics", "correlation_id": "corr-1"},
	}
}

func testAction(id, decisionID string, ts int64) models.CompletedAction {
	return models.CompletedAction{
		ActionPlan: models.ActionPlan{
			ActionType:     "rover.move",
			Priority:       1,
			ExpectedImpact: 0.4,
			Domain:         "robotics",
		},
		ActionID:       id,
		ObservedImpact: 0.35,
		Success:        true,
		CompletedAt:    ts,
		DecisionID:     decisionID,
	}
}

func testApproval(id string, createdAt int64) models.PendingApproval {
	return models.PendingApproval{
		ApprovalID:    id,
		DecisionID:    "decision-1",
		Status:        models.ApprovalPending,
		Action:        models.ActionPlan{ActionType: "trader.buy", Domain: "trader", RequiresApproval: true},
		ProjectedCost: 120.50,
		Risk:          "HIGH",
		Rationale:     "large position size",
		CreatedAt:     createdAt,
	}
}
