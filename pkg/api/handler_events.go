package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/sbrunomello/pce-engine/pkg/pipeline"
)

// ingestEventResponse is spec.md §6's ingress response shape. epsilon
// and assistant_learning are populated only when the Decision Engine's
// explain bag carries them (the assistant domain plugin's bandit state).
type ingestEventResponse struct {
	EventID           string      `json:"event_id"`
	ValueScore        float64     `json:"value_score"`
	CCI               float64     `json:"cci"`
	CCIComponents     any         `json:"cci_components"`
	ActionType        string      `json:"action_type"`
	Action            any         `json:"action"`
	Metadata          any         `json:"metadata"`
	Success           bool        `json:"success"`
	Epsilon           any         `json:"epsilon,omitempty"`
	AssistantLearning any         `json:"assistant_learning,omitempty"`
	RequiresApproval  bool        `json:"requires_approval,omitempty"`
	ApprovalID        string      `json:"approval_id,omitempty"`
}

// ingestEventHandler handles POST /events, POST /v1/events.
func (s *Server) ingestEventHandler(c *echo.Context) error {
	var req ingestEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.pipeline.Process(c.Request().Context(), pipeline.RawEnvelope{
		EventType: req.EventType,
		Source:    req.Source,
		Payload:   req.Payload,
	})
	if err != nil {
		return mapServiceError(err)
	}

	resp := ingestEventResponse{
		EventID:          result.EventID,
		ValueScore:       result.ValueScore,
		CCI:              result.CCI,
		CCIComponents:    result.CCIComponents,
		ActionType:       result.Action.ActionType,
		Action:           result.Action,
		Metadata:         result.Action.Metadata,
		Success:          result.Success,
		RequiresApproval: result.RequiresApproval,
		ApprovalID:       result.ApprovalID,
	}
	if de, ok := result.Action.Metadata.Explain["de"].(map[string]any); ok {
		resp.Epsilon = de["epsilon"]
		resp.AssistantLearning = de["assistant_learning"]
	}

	return c.JSON(http.StatusOK, resp)
}
