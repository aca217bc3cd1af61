package plugins

import (
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/config"
	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssistantConfig() config.AssistantConfig {
	return config.AssistantConfig{
		ValueFloor:   0.35,
		CCIFloor:     0.40,
		EpsilonStart: 1.0,
		EpsilonMin:   0.05,
		EpsilonDecay: 0.9995,
	}
}

func alwaysExploit(a *Assistant) {
	a.randFloat = func() float64 { return 1.0 } // never below epsilon
}

func alwaysExplore(a *Assistant, index int) {
	a.randFloat = func() float64 { return 0.0 }
	a.randIntn = func(int) int { return index }
}

func TestAssistantDecideFloorOverrideForcesP0(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	state := models.StateSnapshot{}
	event := models.Event{Type: "observation.assistant.v1", Payload: map[string]any{"domain": "assistant", "session_id": "s1"}}

	plan := a.Decide(state, 0.2, models.CCISnapshot{CCI: 0.8}, event)

	explain := plan.Metadata.Explain["de"].(map[string]any)
	assert.Equal(t, "value_floor", explain["override_reason"])
	assert.Equal(t, "P0", explain["final_profile"])
	assert.Equal(t, "P0", plan.Fields["profile"])
}

func TestAssistantDecideCCIFloorOverride(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	state := models.StateSnapshot{}
	event := models.Event{Type: "observation.assistant.v1", Payload: map[string]any{"domain": "assistant", "session_id": "s1"}}

	plan := a.Decide(state, 0.9, models.CCISnapshot{CCI: 0.1}, event)

	explain := plan.Metadata.Explain["de"].(map[string]any)
	assert.Equal(t, "cci_floor", explain["override_reason"])
	assert.Equal(t, "P0", explain["final_profile"])
}

func TestAssistantDecideExploreVsExploit(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	alwaysExplore(a, 3) // index 3 -> P3
	state := models.StateSnapshot{}
	event := models.Event{Type: "observation.assistant.v1", Payload: map[string]any{"domain": "assistant", "session_id": "s1"}}

	plan := a.Decide(state, 0.9, models.CCISnapshot{CCI: 0.9}, event)
	assert.Equal(t, "P3", plan.Fields["profile"])
}

func TestAssistantDecidePersistsEpsilonDecayAcrossCalls(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	alwaysExploit(a)
	state := models.StateSnapshot{}
	event := models.Event{Type: "observation.assistant.v1", Payload: map[string]any{"domain": "assistant", "session_id": "s1"}}

	a.Decide(state, 0.9, models.CCISnapshot{CCI: 0.9}, event)
	substate := state["assistant"].(map[string]any)
	sessions := substate["sessions"].(map[string]any)
	first := sessions["s1"].(models.AssistantSession)
	assert.Less(t, first.Epsilon, 1.0)

	a.Decide(state, 0.9, models.CCISnapshot{CCI: 0.9}, event)
	second := sessions["s1"].(models.AssistantSession)
	assert.Less(t, second.Epsilon, first.Epsilon)
}

func TestAssistantAdaptAppendsPreferenceOnPositiveReward(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	state := models.StateSnapshot{}
	feedback := models.Event{
		Type:    "feedback.assistant.v1",
		Payload: map[string]any{"domain": "assistant", "session_id": "s1", "reward": 1.0, "notes": "mais conciso"},
	}

	out := a.Adapt(state, feedback)
	substate := out["assistant"].(map[string]any)
	sessions := substate["sessions"].(map[string]any)
	session := sessions["s1"].(models.AssistantSession)
	assert.Equal(t, []string{"mais conciso"}, session.Preferences)
	assert.Empty(t, session.Avoid)
}

func TestAssistantAdaptAppendsAvoidOnNegativeReward(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	state := models.StateSnapshot{}
	feedback := models.Event{
		Type:    "feedback.assistant.v1",
		Payload: map[string]any{"domain": "assistant", "session_id": "s1", "reward": -1.0, "notes": "não seja prolixo"},
	}

	out := a.Adapt(state, feedback)
	substate := out["assistant"].(map[string]any)
	sessions := substate["sessions"].(map[string]any)
	session := sessions["s1"].(models.AssistantSession)
	assert.Equal(t, []string{"não seja prolixo"}, session.Avoid)
}

func TestAssistantAdaptUpdatesQValueForLastProfile(t *testing.T) {
	a := NewAssistant(testAssistantConfig(), nil)
	alwaysExploit(a)
	state := models.StateSnapshot{}
	event := models.Event{Type: "observation.assistant.v1", Payload: map[string]any{"domain": "assistant", "session_id": "s1"}}
	a.Decide(state, 0.9, models.CCISnapshot{CCI: 0.9}, event)

	feedback := models.Event{Type: "feedback.assistant.v1", Payload: map[string]any{"domain": "assistant", "session_id": "s1", "reward": 1.0}}
	out := a.Adapt(state, feedback)

	substate := out["assistant"].(map[string]any)
	sessions := substate["sessions"].(map[string]any)
	session := sessions["s1"].(models.AssistantSession)
	require.NotEmpty(t, session.LastProfile)
	assert.Equal(t, 1.0, session.QValues[session.LastProfile])
	assert.Equal(t, 1, session.Visits[session.LastProfile])
}
