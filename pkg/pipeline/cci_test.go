package pipeline

import (
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/assert"
)

func cleanAction(priority int, expected, observed float64) models.CompletedAction {
	return models.CompletedAction{
		ActionPlan:     models.ActionPlan{Priority: priority, ExpectedImpact: expected},
		ObservedImpact: observed,
	}
}

func TestComputeColdStartBelowThreeActions(t *testing.T) {
	ce := NewCoherenceEngine(50, DefaultCCIWeights)
	snapshot := ce.Compute([]models.CompletedAction{cleanAction(1, 0, 0)})
	assert.Equal(t, 0.5, snapshot.CCI)
	assert.True(t, snapshot.Components.Unknown)
}

func TestComputePerfectActionsYieldHighCCI(t *testing.T) {
	ce := NewCoherenceEngine(50, DefaultCCIWeights)
	actions := []models.CompletedAction{
		cleanAction(3, 0.5, 0.5),
		cleanAction(3, 0.5, 0.5),
		cleanAction(3, 0.5, 0.5),
		cleanAction(3, 0.5, 0.5),
	}
	snapshot := ce.Compute(actions)
	assert.False(t, snapshot.Components.Unknown)
	assert.InDelta(t, 1.0, snapshot.Components.Consistency, 1e-9)
	assert.InDelta(t, 1.0, snapshot.Components.Stability, 1e-9)
	assert.InDelta(t, 0.0, snapshot.Components.ContradictionRate, 1e-9)
	assert.InDelta(t, 1.0, snapshot.Components.PredictiveAccuracy, 1e-9)
	assert.InDelta(t, 1.0, snapshot.CCI, 1e-9)
}

func TestComputeViolationsLowerConsistencyAndRaiseContradictionRate(t *testing.T) {
	ce := NewCoherenceEngine(50, DefaultCCIWeights)
	withViolation := cleanAction(3, 0.5, 0.5)
	withViolation.Violations = []string{"tag_conflict"}
	actions := []models.CompletedAction{cleanAction(3, 0.5, 0.5), withViolation, cleanAction(3, 0.5, 0.5)}

	snapshot := ce.Compute(actions)
	assert.InDelta(t, 2.0/3.0, snapshot.Components.Consistency, 1e-9)
	assert.InDelta(t, 1.0/3.0, snapshot.Components.ContradictionRate, 1e-9)
}

func TestComputeVaryingPrioritiesLowerStability(t *testing.T) {
	ce := NewCoherenceEngine(50, DefaultCCIWeights)
	actions := []models.CompletedAction{cleanAction(1, 0, 0), cleanAction(5, 0, 0), cleanAction(1, 0, 0)}
	snapshot := ce.Compute(actions)
	assert.Less(t, snapshot.Components.Stability, 1.0)
}

func TestComputeImpactMismatchLowersPredictiveAccuracy(t *testing.T) {
	ce := NewCoherenceEngine(50, DefaultCCIWeights)
	actions := []models.CompletedAction{
		cleanAction(3, 1.0, 0.0),
		cleanAction(3, 1.0, 0.0),
		cleanAction(3, 1.0, 0.0),
	}
	snapshot := ce.Compute(actions)
	assert.InDelta(t, 0.0, snapshot.Components.PredictiveAccuracy, 1e-9)
}
