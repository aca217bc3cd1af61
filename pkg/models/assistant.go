package models

import "github.com/sbrunomello/pce-engine/pkg/memory"

// AssistantProfiles is the fixed profile set the assistant domain's
// epsilon-greedy bandit chooses among (spec.md §4.5 step 2).
var AssistantProfiles = []string{"P0", "P1", "P2", "P3"}

// AssistantSession is the persisted substate at
// state[domain]["sessions"][session_id]: one bandit over the P0..P3
// profile set plus the preferences/avoid memory model, scoped to a
// single chat session.
type AssistantSession struct {
	memory.SessionMemory
	Epsilon     float64            `json:"epsilon"`
	QValues     map[string]float64 `json:"q_values"`
	Visits      map[string]int     `json:"visits"`
	LastProfile string             `json:"last_profile,omitempty"`
}

// Visit records one bandit pull of profile with observed reward,
// updating the running-average Q estimate and visit count.
func (s AssistantSession) Visit(profile string, reward float64) AssistantSession {
	if s.QValues == nil {
		s.QValues = map[string]float64{}
	}
	if s.Visits == nil {
		s.Visits = map[string]int{}
	}
	n := s.Visits[profile]
	q := s.QValues[profile]
	n++
	q += (reward - q) / float64(n)
	s.Visits[profile] = n
	s.QValues[profile] = q
	return s
}

// DecayEpsilon applies one decay step toward min by factor, never
// going below min (spec.md §4.8's decay schedule, parameterized by
// config.AssistantConfig for the assistant domain).
func (s AssistantSession) DecayEpsilon(min, factor float64) AssistantSession {
	next := s.Epsilon * factor
	if next < min {
		next = min
	}
	s.Epsilon = next
	return s
}
