package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// approvalsHandler handles GET /os/approvals, GET /v1/os/approvals:
// every approval on record, plus the pending subset separated out for
// callers that only care about open gates.
func (s *Server) approvalsHandler(c *echo.Context) error {
	all, err := s.store.ListApprovals(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}

	var pending []models.PendingApproval
	for _, a := range all {
		if a.Status == models.ApprovalPending {
			pending = append(pending, a)
		}
	}

	return c.JSON(http.StatusOK, approvalsResponse{Pending: pending, Items: all})
}

// approveHandler handles POST /os/approvals/:id/approve.
func (s *Server) approveHandler(c *echo.Context) error {
	return s.resolveApprovalRequest(c, s.pipeline.Approve)
}

// rejectHandler handles POST /os/approvals/:id/reject.
func (s *Server) rejectHandler(c *echo.Context) error {
	return s.resolveApprovalRequest(c, s.pipeline.Reject)
}

// overrideHandler handles POST /v1/os/approvals/:id/override.
func (s *Server) overrideHandler(c *echo.Context) error {
	return s.resolveApprovalRequest(c, s.pipeline.Override)
}

// resolveApprovalRequest binds the shared approve/reject/override body,
// defaults actor from the request's auth headers, and dispatches to
// whichever Pipeline resolution method the caller (approve/reject/
// override handler) selected.
func (s *Server) resolveApprovalRequest(c *echo.Context, resolve func(ctx context.Context, approvalID, actor, notes string) (models.PendingApproval, error)) error {
	var req approvalActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	actor := req.Actor
	if actor == "" {
		actor = extractAuthor(c)
	}

	approval, err := resolve(c.Request().Context(), c.Param("id"), actor, req.notesOrReason())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, approval)
}
