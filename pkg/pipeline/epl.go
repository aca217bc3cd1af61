package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/pipelineerr"
)

// RawEnvelope is the wire-level event payload before EPL has assigned
// event_id/ts (spec.md §6: "{event_type, source, payload}").
type RawEnvelope struct {
	EventType string
	Source    string
	Payload   map[string]any
}

// PayloadValidator checks a domain payload against its event_type's
// schema. Returning a non-nil error fails the envelope with
// invalid_payload.
type PayloadValidator func(payload map[string]any) error

// SchemaRegistry holds one PayloadValidator per known event_type,
// registered at boot (spec.md §9: "Unknown event_type is a hard reject,
// not a silent pass-through" — EPL never guesses a schema).
type SchemaRegistry struct {
	validators map[string]PayloadValidator
}

// NewSchemaRegistry creates an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{validators: make(map[string]PayloadValidator)}
}

// Register associates eventType with v, called once per known event_type
// from cmd/pceserver/main.go before the HTTP server accepts traffic.
func (r *SchemaRegistry) Register(eventType string, v PayloadValidator) {
	r.validators[eventType] = v
}

// EventValidator is the Event Processing Layer (EPL, spec.md §4.1): it
// schema-validates a raw envelope and stamps event_id/ts on success.
type EventValidator struct {
	schemas *SchemaRegistry
}

// NewEventValidator creates an EventValidator backed by schemas.
func NewEventValidator(schemas *SchemaRegistry) *EventValidator {
	return &EventValidator{schemas: schemas}
}

// Validate checks envelope shape and domain payload, returning a
// normalized Event with event_id (UUIDv4) and ts (server wall-clock ms)
// stamped. Side effects: none beyond these stamps.
func (v *EventValidator) Validate(raw RawEnvelope) (models.Event, error) {
	if raw.EventType == "" || raw.Source == "" || raw.Payload == nil {
		return models.Event{}, fmt.Errorf("%w: envelope missing event_type, source, or payload", pipelineerr.ErrInvalidSchema)
	}

	validator, ok := v.schemas.validators[raw.EventType]
	if !ok {
		return models.Event{}, fmt.Errorf("%w: unregistered event_type %q", pipelineerr.ErrInvalidSchema, raw.EventType)
	}

	if err := validator(raw.Payload); err != nil {
		return models.Event{}, fmt.Errorf("%w: %s", pipelineerr.ErrInvalidPayload, err)
	}

	return models.Event{
		EventID: uuid.NewString(),
		Type:    raw.EventType,
		Source:  raw.Source,
		Ts:      time.Now().UnixMilli(),
		Payload: raw.Payload,
	}, nil
}

// Renormalize is EPL's idempotence entry point (spec.md §4.1:
// "re-validating an already-normalized event returns it unchanged"):
// event_id and ts are assigned once and never restamped.
func (v *EventValidator) Renormalize(event models.Event) (models.Event, error) {
	return event, nil
}

// RequireDomain is a reusable PayloadValidator building block: every
// known event_type's payload must carry payload.domain (spec.md §3).
func RequireDomain(payload map[string]any) error {
	domain, _ := payload["domain"].(string)
	if domain == "" {
		return fmt.Errorf("payload.domain is required")
	}
	return nil
}
