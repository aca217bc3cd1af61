package models

import "encoding/json"

// Reserved top-level state keys (spec.md §3). Only one state row is live
// at any instant; the State Store applies copy-on-write semantics.
const (
	StateKeyPCEOS         = "pce_os"
	StateKeyAssistant     = "assistant"
	StateKeyRobotics      = "robotics"
	StateKeyTrader        = "trader"
	StateKeyEventHistory  = "event_history"
	StateKeyActionHistory = "action_history"
	StateKeyCCIHistory    = "cci_history"
)

// StateKeyForDomain maps a wire payload.domain value (e.g. "os.robotics",
// used for plugin dispatch and the approval gate trigger) to the reserved
// top-level substate key that domain's state lives under. Domains outside
// the "os.*" plugin namespace use their own name as the key unchanged.
func StateKeyForDomain(domain string) string {
	switch domain {
	case "os.robotics":
		return StateKeyRobotics
	case "os.trader":
		return StateKeyTrader
	default:
		return domain
	}
}

// StateSnapshot is the full state mapping. Domain payloads are
// heterogeneous (spec.md §9's "dynamic payloads → tagged variants"), so
// the snapshot itself stays a generic map; typed accessors below
// round-trip the reserved substates through JSON for callers that want a
// concrete Go type rather than map[string]any.
type StateSnapshot map[string]any

// Clone performs the copy-on-write duplication ISI needs before handing a
// candidate snapshot back to the orchestrator: the caller's original
// snapshot must remain untouched if the candidate write is rejected.
func (s StateSnapshot) Clone() StateSnapshot {
	out := make(StateSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EventHistory returns state.event_history as a bounded slice of Events.
func (s StateSnapshot) EventHistory() []Event {
	var out []Event
	decodeInto(s[StateKeyEventHistory], &out)
	return out
}

// ActionHistory returns state.action_history as a bounded slice of
// CompletedActions, the source CCI reads from.
func (s StateSnapshot) ActionHistory() []CompletedAction {
	var out []CompletedAction
	decodeInto(s[StateKeyActionHistory], &out)
	return out
}

// CCIHistory returns state.cci_history as a bounded slice of snapshots.
func (s StateSnapshot) CCIHistory() []CCISnapshot {
	var out []CCISnapshot
	decodeInto(s[StateKeyCCIHistory], &out)
	return out
}

// Robotics returns state.robotics decoded into a RoboticsTwin, the shape
// GET /os/robotics/state and GET /v1/os/state report.
func (s StateSnapshot) Robotics() RoboticsTwin {
	var out RoboticsTwin
	decodeInto(s[StateKeyRobotics], &out)
	return out
}

// Trader returns state.trader decoded into a TraderState.
func (s StateSnapshot) Trader() TraderState {
	var out TraderState
	decodeInto(s[StateKeyTrader], &out)
	return out
}

// PCEOS returns state.pce_os decoded into a PCEOSState.
func (s StateSnapshot) PCEOS() PCEOSState {
	var out PCEOSState
	decodeInto(s[StateKeyPCEOS], &out)
	return out
}

// AppendBounded appends item to the named reserved-ring key and trims to
// at most max entries, keeping the most recent. Used by ISI when merging
// event/action/cci history into the candidate snapshot.
func AppendBounded[T any](s StateSnapshot, key string, item T, max int) StateSnapshot {
	var existing []T
	decodeInto(s[key], &existing)
	existing = append(existing, item)
	if len(existing) > max {
		existing = existing[len(existing)-max:]
	}
	s[key] = existing
	return s
}

// decodeInto round-trips v (typically map[string]any/[]any produced by a
// prior json.Unmarshal into `any`, or a concrete slice already in memory)
// into dst. Malformed or absent input leaves dst at its zero value rather
// than erroring — ISI's merge rules are total functions (spec.md §4.2).
func decodeInto(v any, dst any) {
	if v == nil {
		return
	}
	if raw, err := json.Marshal(v); err == nil {
		_ = json.Unmarshal(raw, dst)
	}
}
