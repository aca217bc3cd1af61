package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/sbrunomello/pce-engine/pkg/version"
)

// healthHandler handles GET /health, checking the one shared resource
// the pipeline depends on: the embedded store.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	health := s.store.Health(reqCtx)

	httpStatus := http.StatusOK
	if health.Status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:   health.Status,
		Version:  version.Full(),
		Database: health,
	})
}
