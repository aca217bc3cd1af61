// Package models holds the plain, JSON-tagged entity types persisted by
// the State Store. There is no ORM here: the teacher's ent-generated
// client is gone, so these types are written and read by hand in
// pkg/store, one file per entity mirroring the teacher's
// pkg/models/session.go / stage.go / message.go split.
package models

// Event is a normalized event as produced by the Event Validator (EPL).
// event_id and Ts are assigned once by EPL and never mutated afterward.
type Event struct {
	EventID string         `json:"event_id"`
	Type    string         `json:"event_type"`
	Source  string         `json:"source"`
	Ts      int64          `json:"ts"`
	Payload map[string]any `json:"payload"`
}

// Domain returns payload.domain, the dispatch key for plugin routing.
// Empty string if absent (EPL rejects envelopes missing it before an
// Event value is ever constructed, so callers downstream can assume
// presence; this accessor stays defensive for direct unit tests).
func (e Event) Domain() string {
	return stringField(e.Payload, "domain")
}

// SessionID returns payload.session_id, the per-session memory key.
func (e Event) SessionID() string {
	return stringField(e.Payload, "session_id")
}

// CorrelationID returns payload.correlation_id, grouping related events
// for audit and writer-ordering purposes.
func (e Event) CorrelationID() string {
	return stringField(e.Payload, "correlation_id")
}

// Tags returns payload.tags as a string slice, empty if absent or the
// wrong shape.
func (e Event) Tags() []string {
	raw, ok := e.Payload["tags"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
