package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/sbrunomello/pce-engine/pkg/pipelineerr"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// errUnknownRoverAction signals an unrecognized :action path segment on
// the rover control endpoint.
var errUnknownRoverAction = errors.New("unknown rover control action")

// mapServiceError maps a pipeline/store error to an HTTP response,
// mirroring the teacher's services.ValidationError/ErrNotFound
// errors.As/errors.Is sentinel dispatch, generalized from tarsy's
// session-service errors to pipelineerr's pipeline-wide ones.
func mapServiceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, pipelineerr.ErrInvalidSchema), errors.Is(err, pipelineerr.ErrInvalidPayload):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrApprovalNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrApprovalAlreadyTerminal):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, pipelineerr.ErrInsufficientBudget):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, pipelineerr.ErrStateConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	slog.Error("Unexpected pipeline error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
