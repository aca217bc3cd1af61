package plugins

import (
	"fmt"
	"strings"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// guardrailMaxPosition is the position-size ceiling the GUARDRAILS gate
// enforces regardless of what MACRO/MODEL propose.
const guardrailMaxPosition = 1.0

// cciGuardrailFloor trips the GUARDRAILS gate independent of any
// per-event limit: coherence this low means the trading history itself
// is too inconsistent to act on.
const cciGuardrailFloor = 0.4

// Trader implements the "os.trader" domain's Decider capability: a
// MACRO→MODEL→GUARDRAILS gate chain (spec.md §4.5 step 2) run
// synchronously per market_signal event. It registers no Adapter — the
// trader domain has no feedback-kind event among spec.md §6's
// enumerated event_types, so AFS never reaches it.
type Trader struct{}

// NewTrader constructs a Trader plugin.
func NewTrader() *Trader { return &Trader{} }

func (t *Trader) Decide(state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) models.ActionPlan {
	domain := event.Domain()
	substate := domainSubstate(state, domain)
	trader := decodeTraderState(substate)

	macroSignal, modelConfidence, trips := runGateChain(event, valueScore, cci)

	trader.Phase = "guardrails"
	trader.LastSignal = macroSignal
	trader.ModelConfidence = modelConfidence
	trader.GuardrailTrips = trips

	actionType := "hold"
	positionSize := 0.0
	if len(trips) == 0 {
		positionSize = modelConfidence * guardrailMaxPosition
		switch macroSignal {
		case "bullish":
			actionType = "open_long"
		case "bearish":
			actionType = "open_short"
		default:
			actionType = "hold"
		}
	}
	trader.PositionSize = positionSize

	persistTraderState(substate, trader)
	state[models.StateKeyForDomain(domain)] = substate

	explain := map[string]any{
		"selected_by_bandit": false,
		"final_profile":      "MACRO->MODEL->GUARDRAILS",
		"macro_signal":       macroSignal,
		"model_confidence":   modelConfidence,
	}
	if len(trips) > 0 {
		explain["override_reason"] = "guardrail_trip"
	}

	return models.ActionPlan{
		ActionType:     actionType,
		Priority:       2,
		Domain:         domain,
		ExpectedImpact: modelConfidence,
		Rationale:      fmt.Sprintf("macro=%s confidence=%.2f trips=%v", macroSignal, modelConfidence, trips),
		Fields:         map[string]any{"position_size": positionSize, "macro_signal": macroSignal},
		Metadata:       models.PlanMetadata{Explain: map[string]any{"de": explain}},
	}
}

// runGateChain is MACRO (read the trend signal) then MODEL (derive a
// confidence, falling back to value_score when the event carries none)
// then GUARDRAILS (trip on low coherence, an exceeded position limit,
// or a volatile macro read).
func runGateChain(event models.Event, valueScore float64, cci models.CCISnapshot) (macroSignal string, confidence float64, trips []string) {
	macroSignal, _ = event.Payload["macro_trend"].(string)
	if macroSignal == "" {
		macroSignal = "neutral"
	}

	var ok bool
	confidence, ok = event.Payload["signal_strength"].(float64)
	if !ok {
		confidence = valueScore
	}
	confidence = clamp01(confidence)

	if cci.CCI < cciGuardrailFloor {
		trips = append(trips, "cci_floor")
	}
	if maxPos, ok := event.Payload["max_position"].(float64); ok && confidence*guardrailMaxPosition > maxPos {
		trips = append(trips, "position_limit")
	}
	if strings.EqualFold(macroSignal, "volatile") {
		trips = append(trips, "volatile_macro")
	}
	return macroSignal, confidence, trips
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

func decodeTraderState(substate map[string]any) models.TraderState {
	var trader models.TraderState
	decodeInto(substate, &trader)
	return trader
}

func persistTraderState(substate map[string]any, trader models.TraderState) {
	substate["phase"] = trader.Phase
	substate["last_signal"] = trader.LastSignal
	substate["position_size"] = trader.PositionSize
	substate["guardrail_trips"] = trader.GuardrailTrips
	substate["model_confidence"] = trader.ModelConfidence
}
