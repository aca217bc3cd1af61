package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventAccessors(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		domain  string
		session string
		corr    string
		tags    []string
	}{
		{
			name:    "all fields present",
			payload: map[string]any{"domain": "assistant", "session_id": "s1", "correlation_id": "c1", "tags": []any{"a", "b"}},
			domain:  "assistant",
			session: "s1",
			corr:    "c1",
			tags:    []string{"a", "b"},
		},
		{
			name:    "optional fields absent",
			payload: map[string]any{"domain": "os.robotics"},
			domain:  "os.robotics",
		},
		{
			name:    "nil payload",
			payload: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Payload: tt.payload}
			assert.Equal(t, tt.domain, e.Domain())
			assert.Equal(t, tt.session, e.SessionID())
			assert.Equal(t, tt.corr, e.CorrelationID())
			assert.Equal(t, tt.tags, e.Tags())
		})
	}
}

func TestEventTagsWrongShapeReturnsNil(t *testing.T) {
	e := Event{Payload: map[string]any{"tags": "not-a-list"}}
	assert.Nil(t, e.Tags())
}
