package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// clearMemoryRequest is the optional body for clear_memory: an absent or
// empty session_id clears every session's preferences/avoid memory.
type clearMemoryRequest struct {
	SessionID string `json:"session_id"`
}

// clearAssistantMemoryHandler handles POST /agents/assistant/control/clear_memory.
// This is a control-plane mutation, not a cognition event: it bypasses
// the pipeline and writes state.assistant directly.
func (s *Server) clearAssistantMemoryHandler(c *echo.Context) error {
	var req clearMemoryRequest
	_ = c.Bind(&req)

	err := s.store.WriteTx(c.Request().Context(), func(tx *store.Tx) error {
		state, err := tx.LoadState()
		if err != nil {
			return err
		}

		substate, ok := state[models.StateKeyAssistant].(map[string]any)
		if !ok {
			return nil
		}
		sessions, ok := substate["sessions"].(map[string]any)
		if !ok {
			return nil
		}

		if req.SessionID != "" {
			delete(sessions, req.SessionID)
		} else {
			for k := range sessions {
				delete(sessions, k)
			}
		}

		return tx.SaveState(state)
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// roverControlHandler handles POST /agents/rover/control/:action for
// action in {start, stop, reset, reset_stats, clear_policy}, mutating
// state.robotics directly.
func (s *Server) roverControlHandler(c *echo.Context) error {
	action := c.Param("action")

	err := s.store.WriteTx(c.Request().Context(), func(tx *store.Tx) error {
		state, err := tx.LoadState()
		if err != nil {
			return err
		}
		twin := state.Robotics()

		switch action {
		case "start":
			twin.Phase = "running"
		case "stop":
			twin.Phase = "stopped"
		case "reset":
			twin.Phase = "stopped"
			twin.Policy = models.RoverPolicy{}
		case "reset_stats":
			twin.Policy.Stats = models.RoverStats{}
		case "clear_policy":
			twin.Policy.Q = nil
		default:
			return errUnknownRoverAction
		}

		state[models.StateKeyRobotics] = twin
		return tx.SaveState(state)
	})
	if err != nil {
		if err == errUnknownRoverAction {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown rover control action")
		}
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
