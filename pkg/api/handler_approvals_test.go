package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

func createPendingApproval(t *testing.T, s *Server) string {
	t.Helper()
	e := echo.New()
	body := `{"event_type":"purchase.request.v1","source":"test","payload":{"domain":"os.robotics","projected_cost":40}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, s.ingestEventHandler(c))

	var resp ingestEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ApprovalID)
	return resp.ApprovalID
}

func TestApprovalsHandler_ListsPendingAndAll(t *testing.T) {
	s := newTestServer(t)
	createPendingApproval(t, s)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/os/approvals", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.approvalsHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp approvalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Pending, 1)
	assert.Len(t, resp.Items, 1)
}

func TestApproveHandler_ResolvesApprovalAndDefaultsActor(t *testing.T) {
	s := newTestServer(t)
	// Approve requires budget_remaining >= projected_cost (40).
	ingestTestEvent(t, s, `{"event_type":"config.robotics.v1","source":"test","payload":{"domain":"os.robotics","budget_remaining":100}}`)
	approvalID := createPendingApproval(t, s)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/os/approvals/"+approvalID+"/approve", strings.NewReader(`{"notes":"looks fine"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(approvalID)

	require.NoError(t, s.approveHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var approval models.PendingApproval
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approval))
	assert.Equal(t, models.ApprovalApproved, approval.Status)
	assert.Equal(t, "api-client", approval.Actor)
	assert.Equal(t, "looks fine", approval.Notes)
}

func TestRejectHandler_ResolvesApprovalWithActorFromBody(t *testing.T) {
	s := newTestServer(t)
	approvalID := createPendingApproval(t, s)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/os/approvals/"+approvalID+"/reject",
		strings.NewReader(`{"actor":"operator-1","reason":"too expensive"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(approvalID)

	require.NoError(t, s.rejectHandler(c))

	var approval models.PendingApproval
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approval))
	assert.Equal(t, models.ApprovalRejected, approval.Status)
	assert.Equal(t, "operator-1", approval.Actor)
	assert.Equal(t, "too expensive", approval.Notes)
}

func TestOverrideHandler_ResolvesApprovalBypassingBudget(t *testing.T) {
	s := newTestServer(t)
	approvalID := createPendingApproval(t, s)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/os/approvals/"+approvalID+"/override",
		strings.NewReader(`{"actor":"operator-1","notes":"accepting the risk"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(approvalID)

	require.NoError(t, s.overrideHandler(c))

	var approval models.PendingApproval
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approval))
	assert.Equal(t, models.ApprovalOverridden, approval.Status)
}

func TestApproveHandler_UnknownApprovalReturns404(t *testing.T) {
	s := newTestServer(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/os/approvals/does-not-exist/approve", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("does-not-exist")

	err := s.approveHandler(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}
