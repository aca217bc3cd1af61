package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// stateHandler handles GET /state: the full current snapshot.
func (s *Server) stateHandler(c *echo.Context) error {
	state, err := s.store.LoadState(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, stateResponse{State: state})
}

// cciHandler handles GET /cci: the latest coherence index alone.
func (s *Server) cciHandler(c *echo.Context) error {
	snapshot, err := s.store.LatestCCI(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, cciResponse{CCI: snapshot.CCI})
}

// cciHistoryHandler handles GET /cci/history.
func (s *Server) cciHistoryHandler(c *echo.Context) error {
	limit := 100
	if q := c.QueryParam("limit"); q != "" {
		if v, err := parsePositiveInt(q); err == nil {
			limit = v
		}
	}

	history, err := s.store.CCIHistory(c.Request().Context(), limit)
	if err != nil {
		return mapServiceError(err)
	}

	entries := make([]cciHistoryEntry, len(history))
	for i, h := range history {
		entries[i] = cciHistoryEntry{Ts: h.Ts, CCI: h.CCI, Components: h.Components}
	}
	return c.JSON(http.StatusOK, cciHistoryResponse{History: entries})
}
