package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RakMan09/refund-returns-agent/internal/platform/apierr"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

// HTTPGateway speaks the same catalog over HTTP, POSTing each operation
// to <base>/tools/<name>. It shares one injected http.Client so the
// process keeps a single connection pool regardless of how many turns
// run concurrently.
type HTTPGateway struct {
	log     *logger.Logger
	client  *http.Client
	baseURL string
}

func NewHTTPGateway(baseLog *logger.Logger, client *http.Client, baseURL string) *HTTPGateway {
	return &HTTPGateway{
		log:     baseLog.With("service", "HTTPGateway"),
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type remoteError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func call[Req any, Res any](g *HTTPGateway, ctx context.Context, toolName string, req Req) (Res, error) {
	var zero Res
	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("encode %s request: %w", toolName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/tools/"+toolName, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := g.client.Do(httpReq)
	if err != nil {
		return zero, fmt.Errorf("call %s: %w", toolName, err)
	}
	defer httpRes.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpRes.Body, 4<<20))
	if err != nil {
		return zero, fmt.Errorf("read %s response: %w", toolName, err)
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		var remote remoteError
		if json.Unmarshal(raw, &remote) == nil && remote.Error.Message != "" {
			code := remote.Error.Code
			if code == "" {
				code = "tool_call_failed"
			}
			return zero, apierr.New(httpRes.StatusCode, code, fmt.Errorf("%s: %s", toolName, remote.Error.Message))
		}
		return zero, apierr.New(httpRes.StatusCode, "tool_call_failed", fmt.Errorf("%s: status %d", toolName, httpRes.StatusCode))
	}

	var res Res
	if err := json.Unmarshal(raw, &res); err != nil {
		return zero, fmt.Errorf("decode %s response: %w", toolName, err)
	}
	return res, nil
}

func (g *HTTPGateway) LookupOrder(ctx context.Context, req LookupOrderRequest) (LookupOrderResponse, error) {
	return call[LookupOrderRequest, LookupOrderResponse](g, ctx, "lookup_order", req)
}

func (g *HTTPGateway) ListOrders(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error) {
	return call[ListOrdersRequest, ListOrdersResponse](g, ctx, "list_orders", req)
}

func (g *HTTPGateway) ListOrderItems(ctx context.Context, req ListOrderItemsRequest) (ListOrderItemsResponse, error) {
	return call[ListOrderItemsRequest, ListOrderItemsResponse](g, ctx, "list_order_items", req)
}

func (g *HTTPGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (SessionResponse, error) {
	return call[CreateSessionRequest, SessionResponse](g, ctx, "create_session", req)
}

func (g *HTTPGateway) GetSession(ctx context.Context, req GetSessionRequest) (SessionResponse, error) {
	return call[GetSessionRequest, SessionResponse](g, ctx, "get_session", req)
}

func (g *HTTPGateway) SetSelectedOrder(ctx context.Context, req SetSelectedOrderRequest) (SessionResponse, error) {
	return call[SetSelectedOrderRequest, SessionResponse](g, ctx, "set_selected_order", req)
}

func (g *HTTPGateway) SetSelectedItems(ctx context.Context, req SetSelectedItemsRequest) (SessionResponse, error) {
	return call[SetSelectedItemsRequest, SessionResponse](g, ctx, "set_selected_items", req)
}

func (g *HTTPGateway) UpdateSessionState(ctx context.Context, req UpdateSessionStateRequest) (SessionResponse, error) {
	return call[UpdateSessionStateRequest, SessionResponse](g, ctx, "update_session_state", req)
}

func (g *HTTPGateway) AppendChatMessage(ctx context.Context, req AppendChatMessageRequest) (AckResponse, error) {
	return call[AppendChatMessageRequest, AckResponse](g, ctx, "append_chat_message", req)
}

func (g *HTTPGateway) GetPolicy(ctx context.Context, req GetPolicyRequest) (GetPolicyResponse, error) {
	return call[GetPolicyRequest, GetPolicyResponse](g, ctx, "get_policy", req)
}

func (g *HTTPGateway) CheckEligibility(ctx context.Context, req CheckEligibilityRequest) (CheckEligibilityResponse, error) {
	return call[CheckEligibilityRequest, CheckEligibilityResponse](g, ctx, "check_eligibility", req)
}

func (g *HTTPGateway) ComputeRefund(ctx context.Context, req ComputeRefundRequest) (ComputeRefundResponse, error) {
	return call[ComputeRefundRequest, ComputeRefundResponse](g, ctx, "compute_refund", req)
}

func (g *HTTPGateway) CreateReturn(ctx context.Context, req CreateReturnRequest) (CreateReturnResponse, error) {
	return call[CreateReturnRequest, CreateReturnResponse](g, ctx, "create_return", req)
}

func (g *HTTPGateway) CreateLabel(ctx context.Context, req CreateLabelRequest) (CreateLabelResponse, error) {
	return call[CreateLabelRequest, CreateLabelResponse](g, ctx, "create_label", req)
}

func (g *HTTPGateway) CreateEscalation(ctx context.Context, req CreateEscalationRequest) (CreateEscalationResponse, error) {
	return call[CreateEscalationRequest, CreateEscalationResponse](g, ctx, "create_escalation", req)
}

func (g *HTTPGateway) CreateTestOrder(ctx context.Context, req CreateTestOrderRequest) (CreateTestOrderResponse, error) {
	return call[CreateTestOrderRequest, CreateTestOrderResponse](g, ctx, "create_test_order", req)
}

func (g *HTTPGateway) GetCaseStatus(ctx context.Context, req GetCaseStatusRequest) (GetCaseStatusResponse, error) {
	return call[GetCaseStatusRequest, GetCaseStatusResponse](g, ctx, "get_case_status", req)
}

func (g *HTTPGateway) UploadEvidence(ctx context.Context, req UploadEvidenceRequest) (UploadEvidenceResponse, error) {
	return call[UploadEvidenceRequest, UploadEvidenceResponse](g, ctx, "upload_evidence", req)
}

func (g *HTTPGateway) GetEvidence(ctx context.Context, req GetEvidenceRequest) (GetEvidenceResponse, error) {
	return call[GetEvidenceRequest, GetEvidenceResponse](g, ctx, "get_evidence", req)
}

func (g *HTTPGateway) ValidateEvidence(ctx context.Context, req ValidateEvidenceRequest) (ValidateEvidenceResponse, error) {
	return call[ValidateEvidenceRequest, ValidateEvidenceResponse](g, ctx, "validate_evidence", req)
}
