package tools

import (
	"encoding/json"

	"github.com/RakMan09/refund-returns-agent/internal/policy"
)

// Wire contracts for the allow-listed tool catalog. Every operation is a
// single request/response exchange; dates travel as YYYY-MM-DD strings
// and money as fixed two-decimal strings.

const dateLayout = "2006-01-02"

type MaskedOrder struct {
	OrderID             string  `json:"order_id"`
	MerchantID          string  `json:"merchant_id"`
	CustomerEmailMasked string  `json:"customer_email_masked"`
	CustomerPhoneLast4  string  `json:"customer_phone_last4"`
	ItemID              string  `json:"item_id"`
	ItemCategory        string  `json:"item_category"`
	OrderDate           string  `json:"order_date"`
	DeliveryDate        *string `json:"delivery_date,omitempty"`
	ItemPrice           string  `json:"item_price"`
	ShippingFee         string  `json:"shipping_fee"`
	Status              string  `json:"status"`
}

type LookupOrderRequest struct {
	OrderID    string `json:"order_id,omitempty"`
	Email      string `json:"email,omitempty"`
	PhoneLast4 string `json:"phone_last4,omitempty"`
}

type LookupOrderResponse struct {
	Found bool         `json:"found"`
	Order *MaskedOrder `json:"order,omitempty"`
}

type ListOrdersRequest struct {
	CustomerIdentifier string `json:"customer_identifier"`
}

type OrderSummary struct {
	OrderID      string  `json:"order_id"`
	Status       string  `json:"status"`
	OrderDate    string  `json:"order_date"`
	DeliveryDate *string `json:"delivery_date,omitempty"`
}

type ListOrdersResponse struct {
	Orders []OrderSummary `json:"orders"`
}

type ListOrderItemsRequest struct {
	OrderID string `json:"order_id"`
}

type OrderItem struct {
	ItemID       string `json:"item_id"`
	ItemCategory string `json:"item_category"`
	ItemPrice    string `json:"item_price"`
	ShippingFee  string `json:"shipping_fee"`
}

type ListOrderItemsResponse struct {
	Items []OrderItem `json:"items"`
}

type CreateSessionRequest struct {
	SessionID string          `json:"session_id"`
	CaseID    string          `json:"case_id"`
	State     json.RawMessage `json:"state"`
	Status    string          `json:"status"`
}

type GetSessionRequest struct {
	SessionID string `json:"session_id"`
}

type SetSelectedOrderRequest struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

type SetSelectedItemsRequest struct {
	SessionID string   `json:"session_id"`
	ItemIDs   []string `json:"item_ids"`
}

type UpdateSessionStateRequest struct {
	SessionID  string          `json:"session_id"`
	StatePatch json.RawMessage `json:"state_patch"`
	Status     *string         `json:"status,omitempty"`
}

type SessionResponse struct {
	SessionID string          `json:"session_id"`
	CaseID    string          `json:"case_id"`
	State     json.RawMessage `json:"state"`
	Status    string          `json:"status"`
}

type AppendChatMessageRequest struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

type AckResponse struct {
	OK bool `json:"ok"`
}

type GetPolicyRequest struct {
	MerchantID   string  `json:"merchant_id"`
	ItemCategory string  `json:"item_category"`
	Reason       string  `json:"reason"`
	OrderDate    string  `json:"order_date"`
	DeliveryDate *string `json:"delivery_date,omitempty"`
}

type GetPolicyResponse = policy.Policy

type CheckEligibilityRequest struct {
	Order  MaskedOrder   `json:"order"`
	Policy policy.Policy `json:"policy"`
	Reason string        `json:"reason"`
}

type CheckEligibilityResponse = policy.Eligibility

type ComputeRefundRequest struct {
	Order  MaskedOrder   `json:"order"`
	Policy policy.Policy `json:"policy"`
	Reason string        `json:"reason"`
}

type ComputeRefundResponse = policy.Refund

type CreateReturnRequest struct {
	OrderID string `json:"order_id"`
	ItemID  string `json:"item_id"`
	Method  string `json:"method"`
}

type CreateReturnResponse struct {
	RMAID string `json:"rma_id"`
}

type CreateLabelRequest struct {
	RMAID string `json:"rma_id"`
}

type CreateLabelResponse struct {
	LabelID string `json:"label_id"`
	URL     string `json:"url"`
}

type CreateEscalationRequest struct {
	CaseID   string            `json:"case_id"`
	Reason   string            `json:"reason"`
	Evidence map[string]string `json:"evidence"`
}

type CreateEscalationResponse struct {
	TicketID string `json:"ticket_id"`
}

type CreateTestOrderRequest struct {
	CustomerEmail      string  `json:"customer_email"`
	CustomerPhoneLast4 string  `json:"customer_phone_last4"`
	ItemCategory       string  `json:"item_category"`
	Price              string  `json:"price"`
	ShippingFee        string  `json:"shipping_fee"`
	Status             string  `json:"status"`
	DeliveryDate       *string `json:"delivery_date,omitempty"`
}

type CreateTestOrderResponse struct {
	OrderID string `json:"order_id"`
}

type GetCaseStatusRequest struct {
	CaseID string `json:"case_id"`
}

type GetCaseStatusResponse struct {
	Status         string  `json:"status"`
	ETA            *string `json:"eta,omitempty"`
	RefundTracking *string `json:"refund_tracking,omitempty"`
}

type UploadEvidenceRequest struct {
	SessionID     string `json:"session_id"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
	SizeBytes     int64  `json:"size_bytes"`
	ContentBase64 string `json:"content_base64"`
}

type UploadEvidenceResponse struct {
	EvidenceID string `json:"evidence_id"`
	StoredPath string `json:"stored_path"`
}

type GetEvidenceRequest struct {
	CaseID string `json:"case_id"`
}

type EvidenceItem struct {
	EvidenceID string `json:"evidence_id"`
	SessionID  string `json:"session_id"`
	CaseID     string `json:"case_id"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt string `json:"uploaded_at"`
}

type GetEvidenceResponse struct {
	Evidence []EvidenceItem `json:"evidence"`
}

type ValidateEvidenceRequest struct {
	EvidenceID string `json:"evidence_id"`
	OrderID    string `json:"order_id"`
	ItemID     string `json:"item_id"`
}

type ValidateEvidenceResponse struct {
	Passed     bool     `json:"passed"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
	Approach   string   `json:"approach"`
}
