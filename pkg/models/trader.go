package models

// TraderState is the persisted substate at state.trader: the
// MACRO→MODEL→GUARDRAILS gate chain's working memory.
type TraderState struct {
	Phase           string         `json:"phase"` // "macro", "model", "guardrails", "idle"
	LastSignal      string         `json:"last_signal,omitempty"`
	PositionSize    float64        `json:"position_size"`
	GuardrailTrips  []string       `json:"guardrail_trips,omitempty"`
	ModelConfidence float64        `json:"model_confidence"`
	Extra           map[string]any `json:"extra,omitempty"`
}
