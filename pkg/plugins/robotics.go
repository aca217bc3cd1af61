package plugins

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// Rover Q-learning constants (spec.md §4.8): fixed, not config-driven,
// unlike the assistant bandit's config.AssistantConfig schedule.
const (
	roverAlpha        = 0.2
	roverGamma        = 0.95
	roverEpsilonStart = 1.0
	roverEpsilonMin   = 0.05
	roverEpsilonDecay = 0.9995
)

var roverActions = []string{"FWD", "L", "R", "S"}

// Robotics implements the "os.robotics" domain's Decider and Adapter
// capabilities: a tabular Q-learning FWD/L/R/S rover policy, the
// approval-gated purchase request/completed/rejected flow, and the
// surrounding build-project bookkeeping (goals, candidate parts, test
// results) spec.md's known event_types imply that domain carries
// alongside rover movement.
type Robotics struct {
	randFloat func() float64
	randIntn  func(int) int
}

// NewRobotics constructs a Robotics plugin.
func NewRobotics() *Robotics {
	return &Robotics{randFloat: rand.Float64, randIntn: rand.Intn}
}

// Decide dispatches on event.Type: the purchase flow's three stages,
// the three bookkeeping event types, rover telemetry, and a generic
// observe fallback for anything else (e.g. the domain's own
// config.robotics.v1 twin-initialization event, which ISI's core merge
// already folds into substate before Decide runs).
func (r *Robotics) Decide(state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) models.ActionPlan {
	domain := event.Domain()
	substate := domainSubstate(state, domain)

	switch event.Type {
	case "purchase.request.v1", "purchase.requested":
		return decidePurchaseRequest(domain, event)
	case "purchase.completed":
		return applyPurchaseCompleted(substate, domain, event)
	case "purchase.rejected":
		return applyPurchaseRejected(substate, domain, event)
	case "project.goal.defined":
		return appendBookkeeping(substate, domain, "audit_trail", fmt.Sprintf("goal defined: %v", event.Payload["goal"]), "goal_defined")
	case "part.candidate.added":
		return appendBookkeeping(substate, domain, "components", fmt.Sprintf("%v", event.Payload["part"]), "part_candidate_added")
	case "test.result.recorded":
		return appendBookkeeping(substate, domain, "tests", fmt.Sprintf("%v", event.Payload["result"]), "test_result_recorded")
	case "robot_telemetry":
		return r.decideTelemetry(substate, domain, event)
	default:
		return models.ActionPlan{
			ActionType:     "observe",
			Priority:       1,
			Domain:         domain,
			ExpectedImpact: valueScore,
			Rationale:      "no specific robotics handling for event_type " + event.Type,
		}
	}
}

func decidePurchaseRequest(domain string, event models.Event) models.ActionPlan {
	cost, _ := event.Payload["projected_cost"].(float64)
	fields := map[string]any{"projected_cost": cost}
	if risk, _ := event.Payload["risk"].(string); risk != "" {
		fields["risk"] = risk
	}
	return models.ActionPlan{
		ActionType:     "purchase",
		Domain:         domain,
		ExpectedImpact: 0.5,
		Rationale:      fmt.Sprintf("purchase requested at projected cost %.2f", cost),
		Fields:         fields,
	}
}

// applyPurchaseCompleted is the twin-debit effect of an approved or
// overridden purchase (spec.md §4.6): budget_remaining decreases and the
// purchase is appended to history. Only reached on the synthesized
// event the approval gate processes after a terminal resolution, never
// directly gated itself.
func applyPurchaseCompleted(substate map[string]any, domain string, event models.Event) models.ActionPlan {
	cost, _ := event.Payload["projected_cost"].(float64)
	approvalID, _ := event.Payload["approval_id"].(string)

	substate["budget_remaining"] = floatField(substate, "budget_remaining") - cost

	var history []models.PurchaseRecord
	decodeInto(substate["purchase_history"], &history)
	history = append(history, models.PurchaseRecord{ApprovalID: approvalID, Amount: cost, Ts: event.Ts})
	substate["purchase_history"] = history

	return models.ActionPlan{
		ActionType:     "acquire_committed",
		Domain:         domain,
		ExpectedImpact: 0.5,
		Rationale:      "purchase approved and committed",
		Fields:         map[string]any{"projected_cost": cost, "approval_id": approvalID},
	}
}

func applyPurchaseRejected(substate map[string]any, domain string, event models.Event) models.ActionPlan {
	approvalID, _ := event.Payload["approval_id"].(string)
	var trail []string
	decodeInto(substate["audit_trail"], &trail)
	trail = append(trail, "purchase rejected: "+approvalID)
	substate["audit_trail"] = trail

	return models.ActionPlan{
		ActionType:     "acquire_rejected",
		Domain:         domain,
		ExpectedImpact: 0,
		Rationale:      "purchase rejected by operator",
		Fields:         map[string]any{"approval_id": approvalID},
	}
}

func appendBookkeeping(substate map[string]any, domain, key, note, actionType string) models.ActionPlan {
	var list []string
	decodeInto(substate[key], &list)
	list = append(list, note)
	substate[key] = list

	return models.ActionPlan{
		ActionType:     actionType,
		Domain:         domain,
		ExpectedImpact: 0.5,
		Rationale:      note,
	}
}

func (r *Robotics) decideTelemetry(substate map[string]any, domain string, event models.Event) models.ActionPlan {
	policy := decodeRoverPolicy(substate["policy"])
	if policy.Epsilon <= 0 {
		policy.Epsilon = roverEpsilonStart
	}

	stateID := telemetryStateID(event)
	action := r.selectAction(policy, stateID)
	substate["policy"] = policy

	return models.ActionPlan{
		ActionType:     "rover_" + strings.ToLower(action),
		Domain:         domain,
		ExpectedImpact: 0.5,
		Rationale:      fmt.Sprintf("rover action %s at state %s", action, stateID),
		Fields:         map[string]any{"action": action, "state_id": stateID},
	}
}

// selectAction is the epsilon-greedy choice over the fixed FWD/L/R/S
// action set (spec.md §4.8). Ties keep the earlier action in
// roverActions order.
func (r *Robotics) selectAction(policy models.RoverPolicy, stateID string) string {
	if r.randFloat() < policy.Epsilon {
		return roverActions[r.randIntn(len(roverActions))]
	}
	best := roverActions[0]
	bestQ := policy.Q[qKey(stateID, best)]
	for _, a := range roverActions[1:] {
		if q := policy.Q[qKey(stateID, a)]; q > bestQ {
			best, bestQ = a, q
		}
	}
	return best
}

// Adapt applies one rover Q-update from a reward event:
// Q(s,a) ← Q(s,a) + α·(r + γ·max_{a'} Q(s',a') − Q(s,a)), then decays
// epsilon (spec.md §4.8).
func (r *Robotics) Adapt(state models.StateSnapshot, feedback models.Event) models.StateSnapshot {
	domain := feedback.Domain()
	substate := domainSubstate(state, domain)
	policy := decodeRoverPolicy(substate["policy"])
	if policy.Epsilon <= 0 {
		policy.Epsilon = roverEpsilonStart
	}

	stateID, _ := feedback.Payload["state_id"].(string)
	action, _ := feedback.Payload["action"].(string)
	nextStateID, _ := feedback.Payload["next_state_id"].(string)
	reward, _ := feedback.Payload["reward"].(float64)

	if stateID != "" && action != "" {
		if policy.Q == nil {
			policy.Q = map[string]float64{}
		}
		key := qKey(stateID, action)
		q := policy.Q[key]
		policy.Q[key] = q + roverAlpha*(reward+roverGamma*maxQ(policy, nextStateID)-q)
	}

	policy.Stats.Episodes++
	policy.Stats.TotalReward += reward
	policy.Stats.LastReward = reward

	next := policy.Epsilon * roverEpsilonDecay
	if next < roverEpsilonMin {
		next = roverEpsilonMin
	}
	policy.Epsilon = next

	substate["policy"] = policy
	state[models.StateKeyForDomain(domain)] = substate
	return state
}

func maxQ(policy models.RoverPolicy, stateID string) float64 {
	if stateID == "" {
		return 0
	}
	max := math.Inf(-1)
	found := false
	for _, a := range roverActions {
		if q, ok := policy.Q[qKey(stateID, a)]; ok {
			found = true
			if q > max {
				max = q
			}
		}
	}
	if !found {
		return 0
	}
	return max
}

func qKey(stateID, action string) string {
	return stateID + ":" + action
}

// telemetryStateID derives the Q-table's discrete state key from raw
// telemetry. A direct state_id field wins when the producer already
// quantized one; otherwise position/orientation are combined into a
// coarse bucket so nearby readings share a Q-row.
func telemetryStateID(event models.Event) string {
	if id, ok := event.Payload["state_id"].(string); ok && id != "" {
		return id
	}
	position, _ := event.Payload["position"].(float64)
	orientation, _ := event.Payload["orientation"].(float64)
	return fmt.Sprintf("p%d:o%d", int(position), int(orientation)/45*45)
}

func decodeRoverPolicy(raw any) models.RoverPolicy {
	var policy models.RoverPolicy
	if p, ok := raw.(models.RoverPolicy); ok {
		return p
	}
	decodeInto(raw, &policy)
	return policy
}
