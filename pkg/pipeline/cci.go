package pipeline

import (
	"math"
	"time"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// priorityVarMax is the assumed variance ceiling for stability's
// normalization. Priorities in this system run 1..5 (spec.md §3's
// ActionPlan.priority is an unconstrained int, but every domain plugin
// in this repo emits 1..5); the maximum-variance split of a bounded
// range [lo,hi] is ((hi-lo)/2)^2, giving 4.0 here. A domain that emits
// wider priorities would see stability clamp to 0 rather than go
// negative, which clamp01 already guarantees.
const priorityVarMax = 4.0

// CCIWeights is the fixed four-component aggregate weighting (spec.md
// §4.4, frozen per the Open Question resolution recorded in DESIGN.md).
type CCIWeights struct {
	Consistency        float64
	Stability          float64
	ContradictionRate  float64
	PredictiveAccuracy float64
}

// DefaultCCIWeights are spec.md §4.4's authoritative constants.
var DefaultCCIWeights = CCIWeights{
	Consistency:        0.35,
	Stability:          0.25,
	ContradictionRate:  0.25,
	PredictiveAccuracy: 0.15,
}

// CoherenceEngine computes CCI snapshots from the completed-action
// window (spec.md §4.4).
type CoherenceEngine struct {
	window  int
	weights CCIWeights
}

// NewCoherenceEngine creates a CoherenceEngine for a window of window
// actions, aggregating with weights. Compute does not truncate its input
// to window; it reads every action it is passed.
func NewCoherenceEngine(window int, weights CCIWeights) *CoherenceEngine {
	return &CoherenceEngine{window: window, weights: weights}
}

// Compute derives a CCISnapshot from actions, which callers pass already
// ordered oldest-first and capped to at most the configured window
// (store.RecentActions does both). Fewer than 3 actions yields the
// cold-start default: CCI=0.5, components unknown.
func (c *CoherenceEngine) Compute(actions []models.CompletedAction) models.CCISnapshot {
	now := time.Now().UnixMilli()
	if len(actions) < 3 {
		return models.CCISnapshot{Ts: now, CCI: 0.5, Components: models.CCIComponents{Unknown: true}}
	}

	components := models.CCIComponents{
		Consistency:        consistency(actions),
		Stability:          stability(actions),
		ContradictionRate:  contradictionRate(actions),
		PredictiveAccuracy: predictiveAccuracy(actions),
	}

	cci := c.weights.Consistency*components.Consistency +
		c.weights.Stability*components.Stability +
		c.weights.ContradictionRate*(1-components.ContradictionRate) +
		c.weights.PredictiveAccuracy*components.PredictiveAccuracy

	return models.CCISnapshot{Ts: now, CCI: clamp01(cci), Components: components}
}

func consistency(actions []models.CompletedAction) float64 {
	clean := 0
	for _, a := range actions {
		if len(a.Violations) == 0 {
			clean++
		}
	}
	return float64(clean) / float64(len(actions))
}

func contradictionRate(actions []models.CompletedAction) float64 {
	withViolation := 0
	for _, a := range actions {
		if len(a.Violations) > 0 {
			withViolation++
		}
	}
	return float64(withViolation) / float64(len(actions))
}

func stability(actions []models.CompletedAction) float64 {
	priorities := make([]float64, len(actions))
	for i, a := range actions {
		priorities[i] = float64(a.Priority)
	}
	v := variance(priorities)
	return clamp01(1 - v/priorityVarMax)
}

func predictiveAccuracy(actions []models.CompletedAction) float64 {
	var sum float64
	for _, a := range actions {
		sum += math.Abs(a.ExpectedImpact - a.ObservedImpact)
	}
	mean := sum / float64(len(actions))
	return clamp01(1 - mean)
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var acc float64
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values))
}
