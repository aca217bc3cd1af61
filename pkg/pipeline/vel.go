package pipeline

import "github.com/sbrunomello/pce-engine/pkg/models"

// conflictingTagPairs are tag combinations the core consistency-of-tags
// check treats as self-contradictory.
var conflictingTagPairs = [][2]string{
	{"urgent", "low_priority"},
	{"approved", "rejected"},
}

// ValueEvaluator is the Value Evaluator (VEL, spec.md §4.3): it scores a
// candidate state + event in [0,1], falling back to the core default
// (consistency-of-tags, non-destructive-defaults, budget-positivity)
// when the domain has no registered ValueScorer.
type ValueEvaluator struct{}

// NewValueEvaluator creates a ValueEvaluator.
func NewValueEvaluator() *ValueEvaluator { return &ValueEvaluator{} }

// Evaluate returns value_score and any violations, using scorer when
// non-nil or the core default otherwise.
func (vel *ValueEvaluator) Evaluate(scorer interface {
	ValueScore(models.StateSnapshot, models.Event) (float64, []string)
}, state models.StateSnapshot, event models.Event) (float64, []string) {
	if scorer != nil {
		score, violations := scorer.ValueScore(state, event)
		return clamp01(score), violations
	}
	return coreValueScore(state, event)
}

func coreValueScore(state models.StateSnapshot, event models.Event) (float64, []string) {
	var violations []string
	checks := 0.0
	total := 0.0

	// consistency-of-tags
	total++
	if tagsConsistent(event.Tags()) {
		checks++
	} else {
		violations = append(violations, "tag_conflict")
	}

	// non-destructive-defaults
	total++
	if destructive, _ := event.Payload["destructive"].(bool); destructive && !confirmed(event.Payload) {
		violations = append(violations, "unconfirmed_destructive_action")
	} else {
		checks++
	}

	// budget-positivity
	total++
	if budgetNonNegative(state, event.Domain()) {
		checks++
	} else {
		violations = append(violations, "negative_budget")
	}

	return checks / total, violations
}

func tagsConsistent(tags []string) bool {
	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}
	for _, pair := range conflictingTagPairs {
		if present[pair[0]] && present[pair[1]] {
			return false
		}
	}
	return true
}

func confirmed(payload map[string]any) bool {
	v, _ := payload["confirm"].(bool)
	return v
}

func budgetNonNegative(state models.StateSnapshot, domain string) bool {
	if domain == "" {
		return true
	}
	substate, ok := state[models.StateKeyForDomain(domain)].(map[string]any)
	if !ok {
		return true
	}
	remaining, ok := substate["budget_remaining"].(float64)
	if !ok {
		return true
	}
	return remaining >= 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
