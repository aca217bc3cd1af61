package api

import (
	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Database store.HealthStatus `json:"database"`
}

// stateResponse wraps GET /state (spec.md §6: `{state: <snapshot>}`).
type stateResponse struct {
	State models.StateSnapshot `json:"state"`
}

// cciResponse wraps GET /cci.
type cciResponse struct {
	CCI float64 `json:"cci"`
}

// cciHistoryEntry and cciHistoryResponse wrap GET /cci/history.
type cciHistoryEntry struct {
	Ts         int64                `json:"ts"`
	CCI        float64              `json:"cci"`
	Components models.CCIComponents `json:"components"`
}

type cciHistoryResponse struct {
	History []cciHistoryEntry `json:"history"`
}

// approvalsResponse wraps GET /os/approvals, /v1/os/approvals.
type approvalsResponse struct {
	Pending []models.PendingApproval `json:"pending"`
	Items   []models.PendingApproval `json:"items"`
}

// roboticsTwinResponse wraps GET /os/robotics/state.
type roboticsTwinResponse struct {
	RoboticsTwin models.RoboticsTwin `json:"robotics_twin"`
}

// osStateResponse wraps GET /v1/os/state.
type osStateResponse struct {
	TwinSnapshot    any      `json:"twin_snapshot"`
	OSMetrics       any      `json:"os_metrics"`
	PolicyState     any      `json:"policy_state"`
	LastNAuditTrail []string `json:"last_n_audit_trail"`
}

// transcriptResponse wraps GET /v1/os/agents/transcript.
type transcriptResponse struct {
	Cursor int64                   `json:"cursor"`
	Items  []models.TranscriptItem `json:"items"`
}
