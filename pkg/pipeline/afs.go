package pipeline

import (
	"strings"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/plugins"
)

// IsFeedbackEvent reports whether eventType is routed to Adaptation
// rather than the Decision Engine's normal plan-then-execute path
// (spec.md §4.8: assistant's feedback.assistant.v1 and the rover's
// reward events both carry a domain-specific update, not a new action).
func IsFeedbackEvent(eventType string) bool {
	return strings.Contains(eventType, "feedback") || strings.Contains(eventType, "reward")
}

// Adaptation is the Adaptive Feedback Stage (AFS, spec.md §4.8): it
// dispatches a feedback event to the domain's Adapter, the third
// capability spec.md §9 defines. A domain with no registered Adapter
// leaves state unchanged, same fallback shape as VEL/DE use for their
// own capabilities.
type Adaptation struct {
	registry *plugins.Registry
}

// NewAdaptation creates an Adaptation dispatching through registry.
func NewAdaptation(registry *plugins.Registry) *Adaptation {
	return &Adaptation{registry: registry}
}

// Apply runs feedback's domain Adapter against state, returning the
// unmodified state if no Adapter is registered or if it panics (an
// adaptation fault must never take down the pipeline, matching DE's
// safeDecide treatment of plugin panics).
func (a *Adaptation) Apply(state models.StateSnapshot, feedback models.Event) models.StateSnapshot {
	d, ok := a.registry.Get(feedback.Domain())
	if !ok || d.Adapter == nil {
		return state
	}
	return safeAdapt(d.Adapter, state, feedback)
}

func safeAdapt(adapter plugins.Adapter, state models.StateSnapshot, feedback models.Event) (out models.StateSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			out = state
		}
	}()
	return adapter.Adapt(state, feedback)
}
