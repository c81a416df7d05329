package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/RakMan09/refund-returns-agent/internal/data/repos"
	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	evscore "github.com/RakMan09/refund-returns-agent/internal/evidence"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/apierr"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
	"github.com/RakMan09/refund-returns-agent/internal/policy"
)

const defaultCallTimeout = 15 * time.Second

// LocalGateway executes the tool catalog in-process against the
// persistence store. Every invocation is wrapped with a bounded timeout
// and an append-only audit row recording request, response or error, and
// latency.
type LocalGateway struct {
	log       *logger.Logger
	orders    repos.OrderRepo
	sess      repos.SessionRepo
	messages  repos.MessageRepo
	returns   repos.ReturnRepo
	labels    repos.LabelRepo
	escalates repos.EscalationRepo
	evidence  repos.EvidenceRepo
	verdicts  repos.ValidationRepo
	auditLog  repos.ToolCallLogRepo

	validator *evscore.Validator
	engine    policy.Engine

	storageDir  string
	callTimeout time.Duration

	validateGroup singleflight.Group
}

type LocalGatewayConfig struct {
	Orders      repos.OrderRepo
	Sessions    repos.SessionRepo
	Messages    repos.MessageRepo
	Returns     repos.ReturnRepo
	Labels      repos.LabelRepo
	Escalations repos.EscalationRepo
	Evidence    repos.EvidenceRepo
	Validations repos.ValidationRepo
	Audit       repos.ToolCallLogRepo
	Validator   *evscore.Validator
	Policy      policy.Engine
	StorageDir  string
	CallTimeout time.Duration
}

func NewLocalGateway(baseLog *logger.Logger, cfg LocalGatewayConfig) *LocalGateway {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &LocalGateway{
		log:         baseLog.With("service", "ToolGateway"),
		orders:      cfg.Orders,
		sess:        cfg.Sessions,
		messages:    cfg.Messages,
		returns:     cfg.Returns,
		labels:      cfg.Labels,
		escalates:   cfg.Escalations,
		evidence:    cfg.Evidence,
		verdicts:    cfg.Validations,
		auditLog:    cfg.Audit,
		validator:   cfg.Validator,
		engine:      cfg.Policy,
		storageDir:  cfg.StorageDir,
		callTimeout: timeout,
	}
}

// invoke runs one tool call: timeout, execution, audit row, log mirror.
// The audit row is written regardless of success so a turn can always be
// replayed from the trail.
func invoke[Req any, Res any](g *LocalGateway, ctx context.Context, toolName string, req Req, fn func(dbc dbctx.Context) (Res, error)) (Res, error) {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	requestJSON, _ := json.Marshal(req)
	res, err := fn(dbctx.Context{Ctx: callCtx})
	latency := time.Since(start)

	var responseJSON datatypes.JSON
	var errMsg *string
	if err != nil {
		msg := err.Error()
		errMsg = &msg
	} else {
		raw, marshalErr := json.Marshal(res)
		if marshalErr == nil {
			responseJSON = datatypes.JSON(raw)
		}
	}

	auditCtx := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	if auditErr := g.auditLog.Append(auditCtx, toolName, datatypes.JSON(requestJSON), responseJSON, errMsg, latency); auditErr != nil {
		g.log.Warn("tool_call_audit_write_failed", "tool", toolName, "error", auditErr)
	}

	if err != nil {
		g.log.Error("tool_call_error", "tool", toolName, "latency_ms", latency.Milliseconds(), "error", err)
		return res, err
	}
	g.log.Info("tool_call_success", "tool", toolName, "latency_ms", latency.Milliseconds())
	return res, nil
}

func (g *LocalGateway) LookupOrder(ctx context.Context, req LookupOrderRequest) (LookupOrderResponse, error) {
	return invoke(g, ctx, "lookup_order", req, func(dbc dbctx.Context) (LookupOrderResponse, error) {
		row, err := g.orders.Lookup(dbc, req.OrderID, req.Email, req.PhoneLast4)
		if err != nil {
			return LookupOrderResponse{}, err
		}
		if row == nil {
			return LookupOrderResponse{Found: false}, nil
		}
		masked := maskedOrderFrom(row)
		return LookupOrderResponse{Found: true, Order: &masked}, nil
	})
}

func (g *LocalGateway) ListOrders(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error) {
	return invoke(g, ctx, "list_orders", req, func(dbc dbctx.Context) (ListOrdersResponse, error) {
		rows, err := g.orders.ListByIdentifier(dbc, req.CustomerIdentifier)
		if err != nil {
			return ListOrdersResponse{}, err
		}
		out := ListOrdersResponse{Orders: make([]OrderSummary, 0, len(rows))}
		for _, r := range rows {
			out.Orders = append(out.Orders, OrderSummary{
				OrderID:      r.OrderID,
				Status:       r.Status,
				OrderDate:    r.OrderDate.Format(dateLayout),
				DeliveryDate: formatDatePtr(r.DeliveryDate),
			})
		}
		return out, nil
	})
}

func (g *LocalGateway) ListOrderItems(ctx context.Context, req ListOrderItemsRequest) (ListOrderItemsResponse, error) {
	return invoke(g, ctx, "list_order_items", req, func(dbc dbctx.Context) (ListOrderItemsResponse, error) {
		rows, err := g.orders.ListItems(dbc, req.OrderID)
		if err != nil {
			return ListOrderItemsResponse{}, err
		}
		out := ListOrderItemsResponse{Items: make([]OrderItem, 0, len(rows))}
		for _, r := range rows {
			out.Items = append(out.Items, OrderItem{
				ItemID:       r.ItemID,
				ItemCategory: r.ItemCategory,
				ItemPrice:    r.ItemPrice,
				ShippingFee:  r.ShippingFee,
			})
		}
		return out, nil
	})
}

func (g *LocalGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (SessionResponse, error) {
	return invoke(g, ctx, "create_session", req, func(dbc dbctx.Context) (SessionResponse, error) {
		row, err := g.sess.Create(dbc, req.SessionID, req.CaseID, datatypes.JSON(req.State), req.Status)
		if err != nil {
			return SessionResponse{}, err
		}
		return sessionResponseFrom(row), nil
	})
}

func (g *LocalGateway) GetSession(ctx context.Context, req GetSessionRequest) (SessionResponse, error) {
	return invoke(g, ctx, "get_session", req, func(dbc dbctx.Context) (SessionResponse, error) {
		row, err := g.sess.Get(dbc, req.SessionID)
		if err != nil {
			return SessionResponse{}, err
		}
		if row == nil {
			return SessionResponse{}, apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("session %s not found", req.SessionID))
		}
		return sessionResponseFrom(row), nil
	})
}

func (g *LocalGateway) SetSelectedOrder(ctx context.Context, req SetSelectedOrderRequest) (SessionResponse, error) {
	return invoke(g, ctx, "set_selected_order", req, func(dbc dbctx.Context) (SessionResponse, error) {
		patch, _ := json.Marshal(map[string]any{"selected_order_id": req.OrderID})
		return g.patchSession(dbc, req.SessionID, patch, nil)
	})
}

func (g *LocalGateway) SetSelectedItems(ctx context.Context, req SetSelectedItemsRequest) (SessionResponse, error) {
	return invoke(g, ctx, "set_selected_items", req, func(dbc dbctx.Context) (SessionResponse, error) {
		patch, _ := json.Marshal(map[string]any{"selected_items": req.ItemIDs})
		return g.patchSession(dbc, req.SessionID, patch, nil)
	})
}

func (g *LocalGateway) UpdateSessionState(ctx context.Context, req UpdateSessionStateRequest) (SessionResponse, error) {
	return invoke(g, ctx, "update_session_state", req, func(dbc dbctx.Context) (SessionResponse, error) {
		return g.patchSession(dbc, req.SessionID, req.StatePatch, req.Status)
	})
}

// patchSession shallow-merges the patch object into the stored state
// under the repo's version compare-and-swap.
func (g *LocalGateway) patchSession(dbc dbctx.Context, sessionID string, patch json.RawMessage, status *string) (SessionResponse, error) {
	row, err := g.sess.UpdateState(dbc, sessionID, status, func(current datatypes.JSON) (datatypes.JSON, error) {
		return mergePatch(current, patch)
	})
	if err != nil {
		return SessionResponse{}, err
	}
	if row == nil {
		return SessionResponse{}, apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("session %s not found", sessionID))
	}
	return sessionResponseFrom(row), nil
}

func (g *LocalGateway) AppendChatMessage(ctx context.Context, req AppendChatMessageRequest) (AckResponse, error) {
	return invoke(g, ctx, "append_chat_message", req, func(dbc dbctx.Context) (AckResponse, error) {
		if err := g.messages.Append(dbc, req.SessionID, req.Role, req.Content); err != nil {
			return AckResponse{}, err
		}
		return AckResponse{OK: true}, nil
	})
}

func (g *LocalGateway) GetPolicy(ctx context.Context, req GetPolicyRequest) (GetPolicyResponse, error) {
	return invoke(g, ctx, "get_policy", req, func(dbc dbctx.Context) (GetPolicyResponse, error) {
		return g.engine.GetPolicy(req.ItemCategory, req.Reason), nil
	})
}

func (g *LocalGateway) CheckEligibility(ctx context.Context, req CheckEligibilityRequest) (CheckEligibilityResponse, error) {
	return invoke(g, ctx, "check_eligibility", req, func(dbc dbctx.Context) (CheckEligibilityResponse, error) {
		order, err := orderFromMasked(req.Order)
		if err != nil {
			return CheckEligibilityResponse{}, err
		}
		return g.engine.CheckEligibility(order, req.Policy, req.Reason), nil
	})
}

func (g *LocalGateway) ComputeRefund(ctx context.Context, req ComputeRefundRequest) (ComputeRefundResponse, error) {
	return invoke(g, ctx, "compute_refund", req, func(dbc dbctx.Context) (ComputeRefundResponse, error) {
		order, err := orderFromMasked(req.Order)
		if err != nil {
			return ComputeRefundResponse{}, err
		}
		return g.engine.ComputeRefund(order, req.Policy, req.Reason)
	})
}

func (g *LocalGateway) CreateReturn(ctx context.Context, req CreateReturnRequest) (CreateReturnResponse, error) {
	return invoke(g, ctx, "create_return", req, func(dbc dbctx.Context) (CreateReturnResponse, error) {
		rmaID, err := g.returns.CreateReturn(dbc, req.OrderID, req.ItemID, req.Method)
		if err != nil {
			return CreateReturnResponse{}, err
		}
		return CreateReturnResponse{RMAID: rmaID}, nil
	})
}

func (g *LocalGateway) CreateLabel(ctx context.Context, req CreateLabelRequest) (CreateLabelResponse, error) {
	return invoke(g, ctx, "create_label", req, func(dbc dbctx.Context) (CreateLabelResponse, error) {
		labelID, url, err := g.labels.CreateLabel(dbc, req.RMAID)
		if err != nil {
			return CreateLabelResponse{}, err
		}
		return CreateLabelResponse{LabelID: labelID, URL: url}, nil
	})
}

func (g *LocalGateway) CreateEscalation(ctx context.Context, req CreateEscalationRequest) (CreateEscalationResponse, error) {
	return invoke(g, ctx, "create_escalation", req, func(dbc dbctx.Context) (CreateEscalationResponse, error) {
		evidenceJSON, _ := json.Marshal(req.Evidence)
		ticketID, err := g.escalates.CreateEscalation(dbc, req.CaseID, req.Reason, datatypes.JSON(evidenceJSON))
		if err != nil {
			return CreateEscalationResponse{}, err
		}
		return CreateEscalationResponse{TicketID: ticketID}, nil
	})
}

func (g *LocalGateway) CreateTestOrder(ctx context.Context, req CreateTestOrderRequest) (CreateTestOrderResponse, error) {
	return invoke(g, ctx, "create_test_order", req, func(dbc dbctx.Context) (CreateTestOrderResponse, error) {
		var deliveryDate *time.Time
		if req.DeliveryDate != nil && *req.DeliveryDate != "" {
			parsed, err := time.Parse(dateLayout, *req.DeliveryDate)
			if err != nil {
				return CreateTestOrderResponse{}, apierr.New(http.StatusBadRequest, "invalid_delivery_date", err)
			}
			deliveryDate = &parsed
		}
		orderID, err := g.orders.CreateTestOrder(dbc, repos.TestOrderInput{
			CustomerEmail:      req.CustomerEmail,
			CustomerPhoneLast4: req.CustomerPhoneLast4,
			ItemCategory:       req.ItemCategory,
			Price:              req.Price,
			ShippingFee:        req.ShippingFee,
			Status:             req.Status,
			DeliveryDate:       deliveryDate,
		})
		if err != nil {
			return CreateTestOrderResponse{}, err
		}
		return CreateTestOrderResponse{OrderID: orderID}, nil
	})
}

func (g *LocalGateway) GetCaseStatus(ctx context.Context, req GetCaseStatusRequest) (GetCaseStatusResponse, error) {
	return invoke(g, ctx, "get_case_status", req, func(dbc dbctx.Context) (GetCaseStatusResponse, error) {
		row, err := g.sess.GetByCaseID(dbc, req.CaseID)
		if err != nil {
			return GetCaseStatusResponse{}, err
		}
		if row == nil {
			return GetCaseStatusResponse{Status: "not_found"}, nil
		}
		switch row.Status {
		case "resolved", "pending_refund", "pending_return":
			eta := "2-5 business days"
			tracking := trackingID(req.CaseID)
			return GetCaseStatusResponse{Status: row.Status, ETA: &eta, RefundTracking: &tracking}, nil
		default:
			return GetCaseStatusResponse{Status: row.Status}, nil
		}
	})
}

func (g *LocalGateway) UploadEvidence(ctx context.Context, req UploadEvidenceRequest) (UploadEvidenceResponse, error) {
	return invoke(g, ctx, "upload_evidence", req, func(dbc dbctx.Context) (UploadEvidenceResponse, error) {
		session, err := g.sess.Get(dbc, req.SessionID)
		if err != nil {
			return UploadEvidenceResponse{}, err
		}
		if session == nil {
			return UploadEvidenceResponse{}, apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("session %s not found", req.SessionID))
		}

		fileBytes, err := base64.StdEncoding.Strict().DecodeString(req.ContentBase64)
		if err != nil {
			return UploadEvidenceResponse{}, apierr.New(http.StatusBadRequest, "invalid_base64", err)
		}
		if int64(len(fileBytes)) != req.SizeBytes {
			return UploadEvidenceResponse{}, apierr.New(http.StatusBadRequest, "evidence_size_mismatch",
				fmt.Errorf("declared %d bytes, decoded %d", req.SizeBytes, len(fileBytes)))
		}

		ext := filepath.Ext(req.FileName)
		if ext == "" {
			ext = ".bin"
		}
		evidenceID := "EVD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
		caseDir := filepath.Join(g.storageDir, session.CaseID)
		if err := os.MkdirAll(caseDir, 0o755); err != nil {
			return UploadEvidenceResponse{}, err
		}
		storePath := filepath.Join(caseDir, evidenceID+ext)
		if err := os.WriteFile(storePath, fileBytes, 0o644); err != nil {
			return UploadEvidenceResponse{}, err
		}

		row := &types.EvidenceRecord{
			EvidenceID:  evidenceID,
			SessionID:   req.SessionID,
			CaseID:      session.CaseID,
			FileName:    req.FileName,
			MimeType:    req.MimeType,
			SizeBytes:   req.SizeBytes,
			StoragePath: storePath,
			UploadedAt:  time.Now().UTC(),
		}
		if err := g.evidence.Create(dbc, row); err != nil {
			return UploadEvidenceResponse{}, err
		}
		return UploadEvidenceResponse{EvidenceID: evidenceID, StoredPath: storePath}, nil
	})
}

func (g *LocalGateway) GetEvidence(ctx context.Context, req GetEvidenceRequest) (GetEvidenceResponse, error) {
	return invoke(g, ctx, "get_evidence", req, func(dbc dbctx.Context) (GetEvidenceResponse, error) {
		rows, err := g.evidence.ListByCase(dbc, req.CaseID, 20)
		if err != nil {
			return GetEvidenceResponse{}, err
		}
		out := GetEvidenceResponse{Evidence: make([]EvidenceItem, 0, len(rows))}
		for _, r := range rows {
			out.Evidence = append(out.Evidence, EvidenceItem{
				EvidenceID: r.EvidenceID,
				SessionID:  r.SessionID,
				CaseID:     r.CaseID,
				FileName:   r.FileName,
				MimeType:   r.MimeType,
				SizeBytes:  r.SizeBytes,
				UploadedAt: r.UploadedAt.Format(time.RFC3339),
			})
		}
		return out, nil
	})
}

func (g *LocalGateway) ValidateEvidence(ctx context.Context, req ValidateEvidenceRequest) (ValidateEvidenceResponse, error) {
	return invoke(g, ctx, "validate_evidence", req, func(dbc dbctx.Context) (ValidateEvidenceResponse, error) {
		scopeKey := req.EvidenceID + "|" + req.OrderID + "|" + req.ItemID
		res, err, _ := g.validateGroup.Do(scopeKey, func() (any, error) {
			return g.validateScope(dbc, req)
		})
		if err != nil {
			return ValidateEvidenceResponse{}, err
		}
		return res.(ValidateEvidenceResponse), nil
	})
}

func (g *LocalGateway) validateScope(dbc dbctx.Context, req ValidateEvidenceRequest) (ValidateEvidenceResponse, error) {
	cached, err := g.verdicts.GetByScope(dbc, req.EvidenceID, req.OrderID, req.ItemID)
	if err != nil {
		return ValidateEvidenceResponse{}, err
	}
	if cached != nil {
		return validationResponseFrom(cached)
	}

	record, err := g.evidence.Get(dbc, req.EvidenceID)
	if err != nil {
		return ValidateEvidenceResponse{}, err
	}
	if record == nil {
		return ValidateEvidenceResponse{}, apierr.New(http.StatusNotFound, "evidence_not_found", fmt.Errorf("evidence %s not found", req.EvidenceID))
	}

	verdict := g.validator.Validate(record)
	reasonsJSON, _ := json.Marshal(verdict.Reasons)
	saved, err := g.verdicts.Save(dbc, &types.EvidenceValidationRecord{
		EvidenceID:  req.EvidenceID,
		OrderID:     req.OrderID,
		ItemID:      req.ItemID,
		Passed:      verdict.Passed,
		Confidence:  evscore.FormatConfidence(verdict.Confidence),
		Reasons:     datatypes.JSON(reasonsJSON),
		Approach:    verdict.Approach,
		ValidatedAt: time.Now().UTC(),
	})
	if err != nil {
		return ValidateEvidenceResponse{}, err
	}
	return validationResponseFrom(saved)
}
