package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RakMan09/refund-returns-agent/internal/http/response"
	"github.com/RakMan09/refund-returns-agent/internal/tools"
)

// ToolsHandler exposes the tool catalog at POST /tools/<name> so the
// orchestrator can run against this process remotely. The route table is
// the allow-list; there is no dynamic dispatch.
type ToolsHandler struct {
	gw tools.Gateway
}

func NewToolsHandler(gw tools.Gateway) *ToolsHandler {
	return &ToolsHandler{gw: gw}
}

func (h *ToolsHandler) Register(group *gin.RouterGroup) {
	group.POST("/lookup_order", toolEndpoint(h.gw.LookupOrder))
	group.POST("/list_orders", toolEndpoint(h.gw.ListOrders))
	group.POST("/list_order_items", toolEndpoint(h.gw.ListOrderItems))
	group.POST("/create_session", toolEndpoint(h.gw.CreateSession))
	group.POST("/get_session", toolEndpoint(h.gw.GetSession))
	group.POST("/set_selected_order", toolEndpoint(h.gw.SetSelectedOrder))
	group.POST("/set_selected_items", toolEndpoint(h.gw.SetSelectedItems))
	group.POST("/update_session_state", toolEndpoint(h.gw.UpdateSessionState))
	group.POST("/append_chat_message", toolEndpoint(h.gw.AppendChatMessage))
	group.POST("/get_policy", toolEndpoint(h.gw.GetPolicy))
	group.POST("/check_eligibility", toolEndpoint(h.gw.CheckEligibility))
	group.POST("/compute_refund", toolEndpoint(h.gw.ComputeRefund))
	group.POST("/create_return", toolEndpoint(h.gw.CreateReturn))
	group.POST("/create_label", toolEndpoint(h.gw.CreateLabel))
	group.POST("/create_escalation", toolEndpoint(h.gw.CreateEscalation))
	group.POST("/create_test_order", toolEndpoint(h.gw.CreateTestOrder))
	group.POST("/get_case_status", toolEndpoint(h.gw.GetCaseStatus))
	group.POST("/upload_evidence", toolEndpoint(h.gw.UploadEvidence))
	group.POST("/get_evidence", toolEndpoint(h.gw.GetEvidence))
	group.POST("/validate_evidence", toolEndpoint(h.gw.ValidateEvidence))
}

func toolEndpoint[Req any, Res any](fn func(ctx context.Context, req Req) (Res, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		res, err := fn(c.Request.Context(), req)
		if err != nil {
			response.RespondFromError(c, http.StatusInternalServerError, "tool_call_failed", err)
			return
		}
		response.RespondOK(c, res)
	}
}
