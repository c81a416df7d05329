package tools

import "context"

// Gateway is the fixed, allow-listed catalog of operations the
// conversation orchestrator may invoke. Every call is one bounded
// request/response exchange with no hidden retries; retried turns rely
// on the idempotent persistence layer, not on gateway retry logic.
type Gateway interface {
	LookupOrder(ctx context.Context, req LookupOrderRequest) (LookupOrderResponse, error)
	ListOrders(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error)
	ListOrderItems(ctx context.Context, req ListOrderItemsRequest) (ListOrderItemsResponse, error)

	CreateSession(ctx context.Context, req CreateSessionRequest) (SessionResponse, error)
	GetSession(ctx context.Context, req GetSessionRequest) (SessionResponse, error)
	SetSelectedOrder(ctx context.Context, req SetSelectedOrderRequest) (SessionResponse, error)
	SetSelectedItems(ctx context.Context, req SetSelectedItemsRequest) (SessionResponse, error)
	UpdateSessionState(ctx context.Context, req UpdateSessionStateRequest) (SessionResponse, error)
	AppendChatMessage(ctx context.Context, req AppendChatMessageRequest) (AckResponse, error)

	GetPolicy(ctx context.Context, req GetPolicyRequest) (GetPolicyResponse, error)
	CheckEligibility(ctx context.Context, req CheckEligibilityRequest) (CheckEligibilityResponse, error)
	ComputeRefund(ctx context.Context, req ComputeRefundRequest) (ComputeRefundResponse, error)

	CreateReturn(ctx context.Context, req CreateReturnRequest) (CreateReturnResponse, error)
	CreateLabel(ctx context.Context, req CreateLabelRequest) (CreateLabelResponse, error)
	CreateEscalation(ctx context.Context, req CreateEscalationRequest) (CreateEscalationResponse, error)

	CreateTestOrder(ctx context.Context, req CreateTestOrderRequest) (CreateTestOrderResponse, error)
	GetCaseStatus(ctx context.Context, req GetCaseStatusRequest) (GetCaseStatusResponse, error)

	UploadEvidence(ctx context.Context, req UploadEvidenceRequest) (UploadEvidenceResponse, error)
	GetEvidence(ctx context.Context, req GetEvidenceRequest) (GetEvidenceResponse, error)
	ValidateEvidence(ctx context.Context, req ValidateEvidenceRequest) (ValidateEvidenceResponse, error)
}
