package plugins

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/sbrunomello/pce-engine/pkg/config"
	"github.com/sbrunomello/pce-engine/pkg/llmclient"
	"github.com/sbrunomello/pce-engine/pkg/memory"
	"github.com/sbrunomello/pce-engine/pkg/models"
)

// profileDecoding maps the fixed P0..P3 profile set (spec.md §4.5 step 2)
// to the decoding posture reported in metadata.explain.de.final_decoding.
// P0 is the safest variant the deterministic floor override always
// lands on.
var profileDecoding = map[string]string{
	"P0": "deterministic",
	"P1": "balanced",
	"P2": "expressive",
	"P3": "creative",
}

var profilePriority = map[string]int{
	"P0": 1,
	"P1": 2,
	"P2": 3,
	"P3": 4,
}

// Assistant implements the "assistant" domain's Decider and Adapter
// capabilities: an epsilon-greedy bandit over the P0..P3 profile set,
// consulting an OpenRouter reply for the chosen profile's content, and a
// per-session preferences/avoid memory model updated from feedback
// (spec.md §4.5 step 2, §4.8). It does not register a ValueScorer — the
// core default (consistency-of-tags, non-destructive-defaults,
// budget-positivity, pkg/pipeline/vel.go) applies to assistant events
// unchanged.
type Assistant struct {
	cfg config.AssistantConfig
	llm *llmclient.Client

	// randFloat/randIntn are overridden in tests for deterministic
	// explore/exploit branches; production uses math/rand's
	// auto-seeded top-level source.
	randFloat func() float64
	randIntn  func(int) int
}

// NewAssistant constructs an Assistant. llm may be nil (e.g. no
// openrouter.api_key configured), in which case Decide always falls
// back to the profile's static decoding posture with no LLM content.
func NewAssistant(cfg config.AssistantConfig, llm *llmclient.Client) *Assistant {
	return &Assistant{
		cfg:       cfg,
		llm:       llm,
		randFloat: rand.Float64,
		randIntn:  rand.Intn,
	}
}

// Decide selects a P0..P3 profile for event's session via an
// epsilon-greedy bandit, applies the deterministic floor override
// (spec.md §4.5 step 3), and consults the LLM reply provider for the
// chosen profile's content. Bandit and epsilon state are persisted by
// mutating the substate in place: StateSnapshot is a map and Decide
// receives the same instance processNormalized later hands to
// SaveState, so there is no separate return path for DE-time state
// changes.
func (a *Assistant) Decide(state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) models.ActionPlan {
	domain := event.Domain()
	sessionID := event.SessionID()
	if sessionID == "" {
		sessionID = "default"
	}

	substate := domainSubstate(state, domain)
	sessions := sessionsOf(substate)
	session := decodeAssistantSession(sessions[sessionID])
	if session.Epsilon <= 0 {
		session.Epsilon = a.cfg.EpsilonStart
	}

	explain := map[string]any{}

	overrideReason := ""
	if valueScore < a.cfg.ValueFloor {
		overrideReason = "value_floor"
	} else if cci.CCI < a.cfg.CCIFloor {
		overrideReason = "cci_floor"
	}

	var profile string
	if overrideReason != "" {
		profile = "P0"
		explain["override_reason"] = overrideReason
	} else {
		profile = a.selectProfile(session)
	}
	explain["selected_by_bandit"] = overrideReason == ""
	explain["final_profile"] = profile

	session.LastProfile = profile
	session.Epsilon = session.DecayEpsilon(a.cfg.EpsilonMin, a.cfg.EpsilonDecay).Epsilon

	content, decoding, promptHash, openrouterErr := a.reply(context.Background(), session, profile, event)
	explain["final_decoding"] = decoding
	if promptHash != "" {
		explain["prompt_hash"] = promptHash
	}
	if openrouterErr != "" {
		explain["openrouter_error"] = openrouterErr
	}
	explain["epsilon"] = session.Epsilon
	explain["assistant_learning"] = map[string]any{"q_values": session.QValues, "visits": session.Visits}
	explain["avoid"] = session.Avoid
	explain["preferences"] = session.Preferences

	sessions[sessionID] = session
	substate["sessions"] = sessions
	state[models.StateKeyForDomain(domain)] = substate

	fields := map[string]any{"profile": profile}
	if content != "" {
		fields["reply"] = content
	}

	return models.ActionPlan{
		ActionType:     "respond",
		Priority:       profilePriority[profile],
		Rationale:      fmt.Sprintf("profile %s selected for session %s", profile, sessionID),
		ExpectedImpact: valueScore,
		Domain:         domain,
		Fields:         fields,
		Metadata:       models.PlanMetadata{Explain: map[string]any{"de": explain}},
	}
}

// Adapt folds a feedback event into the session's memory model
// (spec.md §4.8): positive reward with notes appends to preferences,
// negative reward with notes appends to avoid, and the reward updates
// the running Q estimate for whichever profile Decide last selected for
// this session.
func (a *Assistant) Adapt(state models.StateSnapshot, feedback models.Event) models.StateSnapshot {
	domain := feedback.Domain()
	sessionID := feedback.SessionID()
	if sessionID == "" {
		sessionID = "default"
	}

	substate := domainSubstate(state, domain)
	sessions := sessionsOf(substate)
	session := decodeAssistantSession(sessions[sessionID])

	reward, _ := feedback.Payload["reward"].(float64)
	notes, _ := feedback.Payload["notes"].(string)

	if reward > 0 && notes != "" {
		session.SessionMemory = memory.AppendPreference(session.SessionMemory, notes)
	} else if reward < 0 && notes != "" {
		session.SessionMemory = memory.AppendAvoid(session.SessionMemory, notes)
	}

	if session.LastProfile != "" {
		session = session.Visit(session.LastProfile, reward)
	}

	sessions[sessionID] = session
	substate["sessions"] = sessions
	state[models.StateKeyForDomain(domain)] = substate
	return state
}

// selectProfile is the epsilon-greedy choice over the fixed profile
// set: explore uniformly at random with probability session.Epsilon,
// otherwise exploit the highest-Q profile (ties keep the earlier
// profile in models.AssistantProfiles order).
func (a *Assistant) selectProfile(session models.AssistantSession) string {
	if a.randFloat() < session.Epsilon {
		return models.AssistantProfiles[a.randIntn(len(models.AssistantProfiles))]
	}
	best := models.AssistantProfiles[0]
	bestQ := session.QValues[best]
	for _, p := range models.AssistantProfiles[1:] {
		if q := session.QValues[p]; q > bestQ {
			best, bestQ = p, q
		}
	}
	return best
}

// reply consults the LLM reply provider for profile's content, falling
// back to a static decoding posture (and a sanitized error string) on
// any failure — never fatal to Decide (spec.md §4.5 failure semantics).
func (a *Assistant) reply(ctx context.Context, session models.AssistantSession, profile string, event models.Event) (content, decoding, promptHash, openrouterErr string) {
	decoding = profileDecoding[profile]
	if a.llm == nil {
		return "", decoding, "", ""
	}

	prompt := buildAssistantPrompt(session, event)
	resp, err := a.llm.Reply(ctx, llmclient.ReplyRequest{
		System: assistantSystemPrompt(profile, session),
		Prompt: prompt,
	})
	if err != nil {
		return "", decoding, "", err.Error()
	}
	return resp.Content, decoding, hashPrompt(prompt), ""
}

func assistantSystemPrompt(profile string, session models.AssistantSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are operating at profile %s (%s decoding).", profile, profileDecoding[profile])
	if len(session.Preferences) > 0 {
		fmt.Fprintf(&b, " Preferences: %s.", strings.Join(session.Preferences, "; "))
	}
	if len(session.Avoid) > 0 {
		fmt.Fprintf(&b, " Avoid: %s.", strings.Join(session.Avoid, "; "))
	}
	return b.String()
}

func buildAssistantPrompt(session models.AssistantSession, event models.Event) string {
	text, _ := event.Payload["text"].(string)
	if text == "" {
		text, _ = event.Payload["message"].(string)
	}
	return text
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}

// domainSubstate returns state[key] as a map, creating and storing one if
// absent or malformed (ISI's own clamp-not-error rule, applied here for
// the plugin's own nested bookkeeping). domain is the wire payload.domain
// value; it is mapped to its reserved state key so a plugin's bookkeeping
// lands in the same place ISI merged the event payload into.
func domainSubstate(state models.StateSnapshot, domain string) map[string]any {
	key := models.StateKeyForDomain(domain)
	sub, ok := state[key].(map[string]any)
	if !ok {
		sub = map[string]any{}
		state[key] = sub
	}
	return sub
}

func sessionsOf(substate map[string]any) map[string]any {
	sessions, ok := substate["sessions"].(map[string]any)
	if !ok {
		sessions = map[string]any{}
		substate["sessions"] = sessions
	}
	return sessions
}

// decodeAssistantSession round-trips raw (either a models.AssistantSession
// already in memory this transaction, or a map[string]any produced by
// unmarshaling the persisted state JSON) into a concrete value. Absent
// or malformed input yields the zero value, never an error.
func decodeAssistantSession(raw any) models.AssistantSession {
	var session models.AssistantSession
	switch v := raw.(type) {
	case models.AssistantSession:
		return v
	case nil:
		return session
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return session
		}
		_ = json.Unmarshal(b, &session)
		return session
	}
}
