// Package pipelineerr is the small typed-error taxonomy spec.md §7
// enumerates, mirroring the teacher's pkg/api/errors.go +
// pkg/services/errors.go split between sentinel errors (checked with
// errors.Is/errors.As) and the HTTP-status mapping that consumes them —
// that mapping lives at the pkg/api boundary, not here.
package pipelineerr

import "errors"

// Producer-facing sentinels. pkg/store contributes its own
// (ErrApprovalNotFound, ErrApprovalAlreadyTerminal) for the approval
// gate's 404/409 cases; these cover EPL and the approval budget check.
var (
	// ErrInvalidSchema is returned when an envelope lacks event_type,
	// source, or payload, or names an event_type with no registered
	// validator (spec.md §9: unknown event_type is a hard reject).
	ErrInvalidSchema = errors.New("invalid_schema")

	// ErrInvalidPayload is returned when the domain payload fails its
	// registered validator.
	ErrInvalidPayload = errors.New("invalid_payload")

	// ErrInsufficientBudget is returned by the approval gate's approve
	// precondition when projected_cost exceeds budget_remaining.
	ErrInsufficientBudget = errors.New("insufficient_budget_for_purchase")

	// ErrStateConflict surfaces a write that failed even after the
	// store's single SQLITE_BUSY retry.
	ErrStateConflict = errors.New("state_conflict")
)
