// Package api is the HTTP surface over the cognition pipeline (spec.md
// §6): event ingress, state/CCI/approval reads, approval resolution,
// the transcript's SSE/WebSocket/catch-up views, and the per-domain
// control endpoints. Grounded on the teacher's echo-based pkg/api
// generation (server.go/errors.go/auth.go/middleware.go/handler_ws.go),
// not its earlier gin-based handlers.go/websocket.go, which this
// package drops — see DESIGN.md.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/sbrunomello/pce-engine/pkg/config"
	"github.com/sbrunomello/pce-engine/pkg/events"
	"github.com/sbrunomello/pce-engine/pkg/pipeline"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	cfg        *config.Config
	store      *store.Store
	pipeline   *pipeline.Pipeline
	connManager *events.ConnectionManager
}

// NewServer creates a new API server with Echo v5, wiring every route
// spec.md §6 enumerates plus SPEC_FULL.md §5's WebSocket convenience
// endpoint.
func NewServer(cfg *config.Config, st *store.Store, pipe *pipeline.Pipeline, connManager *events.ConnectionManager) *Server {
	e := echo.New()

	s := &Server{
		echo:        e,
		cfg:         cfg,
		store:       st,
		pipeline:    pipe,
		connManager: connManager,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Server-wide body size limit, well above any realistic event
	// envelope (spec.md's domain payloads are small structured JSON).
	s.echo.Use(middleware.BodyLimit(1 * 1024 * 1024))
	s.echo.Use(securityHeaders())
	s.echo.Use(middleware.Recover())

	s.echo.GET("/health", s.healthHandler)

	// Event ingress (spec.md §6: both paths are equivalent).
	s.echo.POST("/events", s.ingestEventHandler)
	s.echo.POST("/v1/events", s.ingestEventHandler)

	// State and coherence reads.
	s.echo.GET("/state", s.stateHandler)
	s.echo.GET("/cci", s.cciHandler)
	s.echo.GET("/cci/history", s.cciHistoryHandler)

	// Approval gate.
	s.echo.GET("/os/approvals", s.approvalsHandler)
	s.echo.GET("/v1/os/approvals", s.approvalsHandler)
	s.echo.POST("/os/approvals/:id/approve", s.approveHandler)
	s.echo.POST("/os/approvals/:id/reject", s.rejectHandler)
	s.echo.POST("/v1/os/approvals/:id/override", s.overrideHandler)

	// Domain twin reads.
	s.echo.GET("/os/robotics/state", s.roboticsStateHandler)
	s.echo.GET("/v1/os/state", s.osStateHandler)

	// Transcript: catch-up, SSE, WebSocket.
	s.echo.GET("/v1/os/agents/transcript", s.transcriptHandler)
	s.echo.GET("/v1/stream/os", s.sseHandler)
	s.echo.GET("/v1/os/ws", s.wsHandler)

	// Domain-local control surfaces (spec.md §6, §9 "trader UI controls
	// ... treated here as trader-local" — assistant/rover controls are
	// the analogous core-surface-adjacent knobs spec.md does enumerate).
	s.echo.POST("/agents/assistant/control/clear_memory", s.clearAssistantMemoryHandler)
	s.echo.POST("/agents/rover/control/:action", s.roverControlHandler)
}

// Start starts the HTTP server on the given address and blocks until the
// server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

const requestTimeout = 10 * time.Second
