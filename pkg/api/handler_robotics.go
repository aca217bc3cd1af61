package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// roboticsStateHandler handles GET /os/robotics/state: the rover twin
// and its Q-learning policy, read straight off the current snapshot.
func (s *Server) roboticsStateHandler(c *echo.Context) error {
	state, err := s.store.LoadState(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, roboticsTwinResponse{RoboticsTwin: state.Robotics()})
}

// osStateHandler handles GET /v1/os/state: a cross-domain summary view
// combining the robotics twin, the core os substate, and a capped tail
// of the audit trail.
func (s *Server) osStateHandler(c *echo.Context) error {
	state, err := s.store.LoadState(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}

	twin := state.Robotics()
	audit := twin.AuditTrail
	const maxAudit = 50
	if len(audit) > maxAudit {
		audit = audit[len(audit)-maxAudit:]
	}

	return c.JSON(http.StatusOK, osStateResponse{
		TwinSnapshot:    twin,
		OSMetrics:       state.PCEOS(),
		PolicyState:     twin.Policy,
		LastNAuditTrail: audit,
	})
}
