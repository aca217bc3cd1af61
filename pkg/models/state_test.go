package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	original := StateSnapshot{"a": 1}
	clone := original.Clone()
	clone["a"] = 2
	clone["b"] = 3

	assert.Equal(t, 1, original["a"])
	assert.NotContains(t, original, "b")
}

func TestAppendBoundedTrimsToMax(t *testing.T) {
	s := StateSnapshot{}
	for i := 0; i < 5; i++ {
		s = AppendBounded(s, StateKeyCCIHistory, CCISnapshot{Ts: int64(i)}, 3)
	}

	history := s.CCIHistory()
	require.Len(t, history, 3)
	assert.Equal(t, int64(2), history[0].Ts)
	assert.Equal(t, int64(4), history[2].Ts)
}

func TestEventHistoryRoundTripsThroughJSONShapedValues(t *testing.T) {
	s := StateSnapshot{
		StateKeyEventHistory: []any{
			map[string]any{"event_id": "e1", "event_type": "observation.assistant.v1"},
		},
	}
	history := s.EventHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "e1", history[0].EventID)
	assert.Equal(t, "observation.assistant.v1", history[0].Type)
}

func TestActionHistoryAbsentKeyReturnsNil(t *testing.T) {
	s := StateSnapshot{}
	assert.Nil(t, s.ActionHistory())
}
