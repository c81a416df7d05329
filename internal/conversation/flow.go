package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
	"github.com/RakMan09/refund-returns-agent/internal/tools"
)

// Status chips shown next to each assistant reply.
const (
	ChipAwaitingUserInfo   = "Awaiting User Info"
	ChipAwaitingUserChoice = "Awaiting User Choice"
	ChipAwaitingEvidence   = "Awaiting Evidence"
	ChipRefundPending      = "Refund Pending"
	ChipReplacementStarted = "Replacement Initiated"
	ChipEscalated          = "Escalated"
	ChipDenied             = "Denied"
	ChipResolved           = "Resolved"
	ChipRefused            = "Refused"
	ChipStatus             = "Status"
)

// Session statuses persisted on the session row.
const (
	StatusActive             = "active"
	StatusResolved           = "resolved"
	StatusRefused            = "refused"
	StatusPendingReplacement = "pending_replacement"
	StatusEscalated          = "escalated"
	StatusPendingRefund      = "pending_refund"
)

var exitWords = map[string]bool{
	"end chat":   true,
	"close chat": true,
	"exit":       true,
	"quit":       true,
	"stop":       true,
}

var statusWords = map[string]bool{
	"status":        true,
	"status check":  true,
	"refund status": true,
	"case status":   true,
}

const greeting = "Hi, I can help with refund, return, replacement, missing/wrong item, " +
	"late delivery, or cancellation."

// Manager drives the multi-turn flow. Each user turn runs the ordered
// rule list top to bottom; the first rule that produces a reply wins and
// everything below it never executes that turn.
type Manager struct {
	log    *logger.Logger
	gw     tools.Gateway
	guards Guardrails
	locker TurnLocker
	now    func() time.Time
	rules  []turnRule
}

func NewManager(baseLog *logger.Logger, gw tools.Gateway, guards Guardrails, locker TurnLocker) *Manager {
	m := &Manager{
		log:    baseLog.With("service", "ChatFlowManager"),
		gw:     gw,
		guards: guards,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
	}
	m.rules = []turnRule{
		{name: "explicit_exit", handle: (*Manager).ruleExplicitExit},
		{name: "status_query", handle: (*Manager).ruleStatusQuery},
		{name: "fraud_guard", handle: (*Manager).ruleFraudGuard},
		{name: "injection_guard", handle: (*Manager).ruleInjectionGuard},
		{name: "satisfaction", handle: (*Manager).ruleSatisfaction},
		{name: "alternative_choice", handle: (*Manager).ruleAlternativeChoice},
		{name: "need_identifier", handle: (*Manager).ruleNeedIdentifier},
		{name: "apply_inputs", handle: (*Manager).ruleApplyInputs},
		{name: "select_order", handle: (*Manager).ruleSelectOrder},
		{name: "select_items", handle: (*Manager).ruleSelectItems},
		{name: "collect_reason", handle: (*Manager).ruleCollectReason},
		{name: "cancel_order", handle: (*Manager).ruleCancelOrder},
		{name: "evidence_gate", handle: (*Manager).ruleEvidenceGate},
		{name: "resolution", handle: (*Manager).ruleResolution},
	}
	return m
}

type turnRule struct {
	name   string
	handle func(*Manager, *turn) (*MessageResponse, error)
}

// turn carries everything one user message needs through the rule list.
type turn struct {
	ctx       context.Context
	req       MessageRequest
	userText  string
	sessionID string
	caseID    string
	state     *State
}

func (m *Manager) Start(ctx context.Context, req StartRequest) (StartResponse, error) {
	sessionID := "SES-" + shortHex()
	caseID := "CASE-" + shortHex()

	state := NewState()
	state.CustomerIdentifier = req.CustomerIdentifier

	raw, err := state.MarshalJSONBytes()
	if err != nil {
		return StartResponse{}, err
	}
	if _, err := m.gw.CreateSession(ctx, tools.CreateSessionRequest{
		SessionID: sessionID,
		CaseID:    caseID,
		State:     raw,
		Status:    StatusActive,
	}); err != nil {
		return StartResponse{}, err
	}

	controls := []Control{identifierControl("Share order ID, email, or phone last 4.")}
	if req.CustomerIdentifier != "" {
		controls = []Control{}
	}
	m.log.Info("chat_started", "session_id", sessionID, "case_id", caseID)
	return StartResponse{
		SessionID:        sessionID,
		CaseID:           caseID,
		AssistantMessage: greeting,
		StatusChip:       ChipAwaitingUserInfo,
		Controls:         controls,
	}, nil
}

func (m *Manager) Message(ctx context.Context, req MessageRequest) (MessageResponse, error) {
	unlock, err := m.locker.Lock(ctx, req.SessionID)
	if err != nil {
		return MessageResponse{}, err
	}
	defer unlock()

	session, err := m.gw.GetSession(ctx, tools.GetSessionRequest{SessionID: req.SessionID})
	if err != nil {
		return MessageResponse{}, err
	}
	state, err := StateFromJSON(session.State)
	if err != nil {
		return MessageResponse{}, fmt.Errorf("decode session state: %w", err)
	}

	userText := strings.TrimSpace(req.Text)
	logged := userText
	if logged == "" {
		logged = "[ui_action]"
	}
	if _, err := m.gw.AppendChatMessage(ctx, tools.AppendChatMessageRequest{
		SessionID: req.SessionID, Role: "user", Content: logged,
	}); err != nil {
		return MessageResponse{}, err
	}

	t := &turn{
		ctx:       ctx,
		req:       req,
		userText:  userText,
		sessionID: req.SessionID,
		caseID:    session.CaseID,
		state:     state,
	}
	for _, rule := range m.rules {
		res, err := rule.handle(m, t)
		if err != nil {
			m.log.Error("turn_rule_failed", "rule", rule.name, "session_id", t.sessionID, "error", err)
			return MessageResponse{}, err
		}
		if res != nil {
			return *res, nil
		}
	}
	// The resolution rule always replies, so falling through means a bug
	// in the rule list itself.
	return MessageResponse{}, fmt.Errorf("turn fell through every rule for session %s", t.sessionID)
}

func (m *Manager) ruleExplicitExit(t *turn) (*MessageResponse, error) {
	if !exitWords[strings.ToLower(t.userText)] {
		return nil, nil
	}
	t.state.Apply(Patch{Terminal: ptr(true), Stage: stagePtr(StageResolved)})
	t.state.AppendTimeline(m.now(), "User ended chat", "explicit_exit")
	if err := m.saveState(t, strPtr(StatusResolved)); err != nil {
		return nil, err
	}
	return m.respond(t, "Chat ended. You can restart anytime if you need further help.", ChipResolved, nil)
}

func (m *Manager) ruleStatusQuery(t *turn) (*MessageResponse, error) {
	if !statusWords[strings.ToLower(t.userText)] {
		return nil, nil
	}
	status, err := m.gw.GetCaseStatus(t.ctx, tools.GetCaseStatusRequest{CaseID: t.caseID})
	if err != nil {
		return nil, err
	}
	t.state.AppendTimeline(m.now(), "Status check", status.Status)
	if err := m.saveState(t, nil); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Case status: %s. ETA: %s. Tracking: %s.",
		status.Status, orNA(status.ETA), orNA(status.RefundTracking))
	return m.respond(t, msg, ChipStatus, nil)
}

func (m *Manager) ruleFraudGuard(t *turn) (*MessageResponse, error) {
	if !m.guards.LooksLikeFraudOrExfil(t.userText) {
		return nil, nil
	}
	t.state.AppendTimeline(m.now(), "Guardrail refusal", "fraud_or_exfil")
	if err := m.saveState(t, strPtr(StatusRefused)); err != nil {
		return nil, err
	}
	return m.respond(t, "I can't help with fraud, policy bypass, or data-exfiltration requests.", ChipRefused, nil)
}

func (m *Manager) ruleInjectionGuard(t *turn) (*MessageResponse, error) {
	if !m.guards.LooksLikeInjection(t.userText) {
		return nil, nil
	}
	t.state.AppendTimeline(m.now(), "Guardrail check", "prompt_injection")
	if err := m.saveState(t, nil); err != nil {
		return nil, err
	}
	return m.respond(t,
		"Please provide a normal support request with order/account details.",
		ChipAwaitingUserInfo,
		[]Control{identifierControl("Order ID, email, or phone last 4")})
}

func (m *Manager) ruleSatisfaction(t *turn) (*MessageResponse, error) {
	switch t.req.Satisfaction {
	case "yes":
		t.state.Apply(Patch{Terminal: ptr(true), Stage: stagePtr(StageResolved)})
		t.state.AppendTimeline(m.now(), "User confirmed satisfaction", "resolved")
		if err := m.saveState(t, strPtr(StatusResolved)); err != nil {
			return nil, err
		}
		return m.respond(t, "Great. Your case is now closed. You can start a new chat anytime.", ChipResolved, nil)
	case "no":
		t.state.Apply(Patch{Stage: stagePtr(StageOfferAlternatives)})
		t.state.AppendTimeline(m.now(), "User not satisfied", "continue")
		if err := m.saveState(t, nil); err != nil {
			return nil, err
		}
		return m.respond(t, "Thanks for the feedback. Choose an alternative path.", ChipAwaitingUserChoice,
			[]Control{alternativeControl()})
	}
	return nil, nil
}

func (m *Manager) ruleAlternativeChoice(t *turn) (*MessageResponse, error) {
	switch t.req.Reason {
	case "replacement":
		t.state.Apply(Patch{Stage: stagePtr(StageTerminalWait)})
		t.state.AppendTimeline(m.now(), "Alternative selected", "replacement")
		if err := m.saveState(t, strPtr(StatusPendingReplacement)); err != nil {
			return nil, err
		}
		return m.respond(t,
			"Replacement has been initiated. You'll receive shipment details shortly. Are you satisfied?",
			ChipReplacementStarted, []Control{satisfactionControl()})
	case "store_credit":
		t.state.Apply(Patch{Stage: stagePtr(StageTerminalWait)})
		t.state.AppendTimeline(m.now(), "Alternative selected", "store_credit")
		if err := m.saveState(t, strPtr(StatusResolved)); err != nil {
			return nil, err
		}
		return m.respond(t,
			"Store credit option selected. Credit will be applied within 24 hours. Are you satisfied?",
			ChipResolved, []Control{satisfactionControl()})
	case "escalate":
		ticket, err := m.gw.CreateEscalation(t.ctx, tools.CreateEscalationRequest{
			CaseID:   t.caseID,
			Reason:   "customer_not_satisfied",
			Evidence: map[string]string{"note": "escalated from chat flow"},
		})
		if err != nil {
			return nil, err
		}
		t.state.Apply(Patch{Stage: stagePtr(StageTerminalWait)})
		t.state.AppendTimeline(m.now(), "Escalated", ticket.TicketID)
		if err := m.saveState(t, strPtr(StatusEscalated)); err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("Escalation created: %s. A specialist will follow up. Are you satisfied?", ticket.TicketID)
		return m.respond(t, msg, ChipEscalated, []Control{satisfactionControl()})
	}
	return nil, nil
}

func (m *Manager) ruleNeedIdentifier(t *turn) (*MessageResponse, error) {
	if t.state.CustomerIdentifier == "" && t.userText != "" && looksLikeIdentifier(t.userText) {
		t.state.Apply(Patch{CustomerIdentifier: strPtr(t.userText)})
	}
	if t.state.CustomerIdentifier != "" {
		return nil, nil
	}
	if err := m.saveState(t, nil); err != nil {
		return nil, err
	}
	return m.respond(t,
		"Please share order ID, email, or phone last 4 so I can list your orders.",
		ChipAwaitingUserInfo,
		[]Control{identifierControl("Order ID / email / phone last 4")})
}

// ruleApplyInputs folds the structured parts of the request into the
// state and performs the evidence upload when a file rides along. It
// never replies on its own.
func (m *Manager) ruleApplyInputs(t *turn) (*MessageResponse, error) {
	if t.req.SelectedOrderID != "" {
		if _, err := m.gw.SetSelectedOrder(t.ctx, tools.SetSelectedOrderRequest{
			SessionID: t.sessionID, OrderID: t.req.SelectedOrderID,
		}); err != nil {
			return nil, err
		}
		t.state.Apply(Patch{SelectedOrderID: strPtr(t.req.SelectedOrderID)})
	}
	if len(t.req.SelectedItemIDs) > 0 {
		if _, err := m.gw.SetSelectedItems(t.ctx, tools.SetSelectedItemsRequest{
			SessionID: t.sessionID, ItemIDs: t.req.SelectedItemIDs,
		}); err != nil {
			return nil, err
		}
		t.state.Apply(Patch{SelectedItems: t.req.SelectedItemIDs})
	}
	if t.req.Reason != "" {
		t.state.Apply(Patch{Reason: strPtr(t.req.Reason)})
	}
	if t.req.EvidenceUploaded {
		t.state.Apply(Patch{EvidenceUploaded: ptr(true)})
	}
	if t.req.EvidenceContentBase64 != "" && t.req.EvidenceFileName != "" && t.req.EvidenceMimeType != "" {
		upload, err := m.gw.UploadEvidence(t.ctx, tools.UploadEvidenceRequest{
			SessionID:     t.sessionID,
			FileName:      t.req.EvidenceFileName,
			MimeType:      t.req.EvidenceMimeType,
			SizeBytes:     t.req.EvidenceSizeBytes,
			ContentBase64: t.req.EvidenceContentBase64,
		})
		if err != nil {
			return nil, err
		}
		t.state.Apply(Patch{UploadedEvidenceID: strPtr(upload.EvidenceID)})
		t.state.AppendTimeline(m.now(), "Evidence uploaded", upload.EvidenceID)
	}
	return nil, nil
}

func (m *Manager) ruleSelectOrder(t *turn) (*MessageResponse, error) {
	if t.state.SelectedOrderID != "" {
		return nil, nil
	}
	listed, err := m.gw.ListOrders(t.ctx, tools.ListOrdersRequest{CustomerIdentifier: t.state.CustomerIdentifier})
	if err != nil {
		return nil, err
	}
	t.state.AppendTimeline(m.now(), "Listed orders", fmt.Sprintf("count=%d", len(listed.Orders)))
	if err := m.saveState(t, nil); err != nil {
		return nil, err
	}
	if len(listed.Orders) == 0 {
		return m.respond(t,
			"I couldn't find orders for that identifier. Try another one.",
			ChipAwaitingUserInfo,
			[]Control{identifierControl("Order ID / email / phone last 4")})
	}
	options := make([]Option, 0, len(listed.Orders))
	for _, o := range listed.Orders {
		options = append(options, Option{
			Label: fmt.Sprintf("%s (%s)", o.OrderID, o.Status),
			Value: o.OrderID,
		})
	}
	return m.respond(t, "Select your order.", ChipAwaitingUserChoice, []Control{orderSelectControl(options)})
}

func (m *Manager) ruleSelectItems(t *turn) (*MessageResponse, error) {
	if len(t.state.SelectedItems) > 0 {
		return nil, nil
	}
	listed, err := m.gw.ListOrderItems(t.ctx, tools.ListOrderItemsRequest{OrderID: t.state.SelectedOrderID})
	if err != nil {
		return nil, err
	}
	t.state.AppendTimeline(m.now(), "Listed order items", fmt.Sprintf("count=%d", len(listed.Items)))
	if err := m.saveState(t, nil); err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(listed.Items))
	for _, i := range listed.Items {
		options = append(options, Option{
			Label: fmt.Sprintf("%s (%s)", i.ItemID, i.ItemCategory),
			Value: i.ItemID,
		})
	}
	return m.respond(t, "Select item(s) to continue.", ChipAwaitingUserChoice, []Control{itemSelectControl(options)})
}

func (m *Manager) ruleCollectReason(t *turn) (*MessageResponse, error) {
	if t.state.Reason == "" {
		if inferred := InferReason(t.userText); inferred != "" {
			t.state.Apply(Patch{Reason: strPtr(inferred)})
		} else {
			if err := m.saveState(t, nil); err != nil {
				return nil, err
			}
			return m.respond(t, "Select the reason for your request.", ChipAwaitingUserChoice,
				[]Control{reasonControl()})
		}
	}
	t.state.Apply(Patch{Reason: strPtr(NormalizeReason(t.state.Reason))})
	return nil, nil
}

func (m *Manager) ruleCancelOrder(t *turn) (*MessageResponse, error) {
	if t.state.Reason != "cancel_order" {
		return nil, nil
	}
	lookup, err := m.gw.LookupOrder(t.ctx, tools.LookupOrderRequest{OrderID: t.state.SelectedOrderID})
	if err != nil {
		return nil, err
	}
	if !lookup.Found || lookup.Order == nil {
		return nil, fmt.Errorf("selected order %s no longer found", t.state.SelectedOrderID)
	}
	if lookup.Order.Status == "processing" {
		t.state.Apply(Patch{Stage: stagePtr(StageTerminalWait)})
		t.state.AppendTimeline(m.now(), "Cancel approved", "order="+lookup.Order.OrderID)
		if err := m.saveState(t, strPtr(StatusResolved)); err != nil {
			return nil, err
		}
		return m.respond(t,
			"Order cancellation approved because the item has not shipped yet. Are you satisfied?",
			ChipResolved, []Control{satisfactionControl()})
	}
	t.state.Apply(Patch{Stage: stagePtr(StageOfferAlternatives)})
	t.state.AppendTimeline(m.now(), "Cancel denied", "already_shipped")
	if err := m.saveState(t, nil); err != nil {
		return nil, err
	}
	return m.respond(t,
		"This order is already shipped/delivered. You can proceed with return or escalate.",
		ChipAwaitingUserChoice, []Control{cancelDeniedControl()})
}

// ruleEvidenceGate enforces the photo requirement for damage claims and
// runs validation exactly once per uploaded file.
func (m *Manager) ruleEvidenceGate(t *turn) (*MessageResponse, error) {
	if t.state.Reason != "damaged" {
		return nil, nil
	}
	if !t.state.EvidenceUploaded {
		if err := m.saveState(t, nil); err != nil {
			return nil, err
		}
		return m.respond(t,
			"Please upload a photo of the item or packaging to continue.",
			ChipAwaitingEvidence, []Control{evidenceUploadControl("Upload damage photo")})
	}
	if t.state.EvidenceID == "" {
		if err := m.saveState(t, nil); err != nil {
			return nil, err
		}
		return m.respond(t,
			"I still need the damage photo upload to proceed.",
			ChipAwaitingEvidence, []Control{evidenceUploadControl("Upload damage photo")})
	}
	if t.state.EvidenceValidation == nil {
		verdict, err := m.gw.ValidateEvidence(t.ctx, tools.ValidateEvidenceRequest{
			EvidenceID: t.state.EvidenceID,
			OrderID:    t.state.SelectedOrderID,
			ItemID:     t.state.SelectedItems[0],
		})
		if err != nil {
			return nil, err
		}
		t.state.Apply(Patch{Validation: &verdict})
		t.state.AppendTimeline(m.now(), "Evidence validated",
			fmt.Sprintf("pass=%v confidence=%.3f", verdict.Passed, verdict.Confidence))
		if !verdict.Passed {
			if err := m.saveState(t, nil); err != nil {
				return nil, err
			}
			msg := fmt.Sprintf(
				"Evidence looks insufficient for damage verification. Reason(s): %s. Please upload a clearer image.",
				strings.Join(verdict.Reasons, ", "))
			return m.respond(t, msg, ChipAwaitingEvidence,
				[]Control{evidenceUploadControl("Upload clearer damage photo")})
		}
	}
	listed, err := m.gw.GetEvidence(t.ctx, tools.GetEvidenceRequest{CaseID: t.caseID})
	if err != nil {
		return nil, err
	}
	t.state.AppendTimeline(m.now(), "Evidence retrieved", fmt.Sprintf("count=%d", len(listed.Evidence)))
	return nil, nil
}

func (m *Manager) ruleResolution(t *turn) (*MessageResponse, error) {
	lookup, err := m.gw.LookupOrder(t.ctx, tools.LookupOrderRequest{OrderID: t.state.SelectedOrderID})
	if err != nil {
		return nil, err
	}
	if !lookup.Found || lookup.Order == nil {
		return nil, fmt.Errorf("selected order %s no longer found", t.state.SelectedOrderID)
	}
	order := *lookup.Order

	pol, err := m.gw.GetPolicy(t.ctx, tools.GetPolicyRequest{
		MerchantID:   order.MerchantID,
		ItemCategory: order.ItemCategory,
		Reason:       t.state.Reason,
		OrderDate:    order.OrderDate,
		DeliveryDate: order.DeliveryDate,
	})
	if err != nil {
		return nil, err
	}
	eligibility, err := m.gw.CheckEligibility(t.ctx, tools.CheckEligibilityRequest{
		Order: order, Policy: pol, Reason: t.state.Reason,
	})
	if err != nil {
		return nil, err
	}

	if !eligibility.Eligible {
		t.state.Apply(Patch{Stage: stagePtr(StageTerminalWait)})
		t.state.AppendTimeline(m.now(), "Decision", eligibility.DecisionReason)
		if err := m.saveState(t, strPtr(StatusResolved)); err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("This case is not eligible: %s. Are you satisfied?", eligibility.DecisionReason)
		return m.respond(t, msg, ChipDenied, []Control{satisfactionControl()})
	}

	refund, err := m.gw.ComputeRefund(t.ctx, tools.ComputeRefundRequest{
		Order: order, Policy: pol, Reason: t.state.Reason,
	})
	if err != nil {
		return nil, err
	}
	ret, err := m.gw.CreateReturn(t.ctx, tools.CreateReturnRequest{
		OrderID: order.OrderID, ItemID: order.ItemID, Method: "dropoff",
	})
	if err != nil {
		return nil, err
	}
	label, err := m.gw.CreateLabel(t.ctx, tools.CreateLabelRequest{RMAID: ret.RMAID})
	if err != nil {
		return nil, err
	}

	t.state.Apply(Patch{Stage: stagePtr(StageTerminalWait)})
	t.state.AppendTimeline(m.now(), "Resolution", fmt.Sprintf("refund=%s rma=%s", refund.Amount, ret.RMAID))
	if err := m.saveState(t, strPtr(StatusPendingRefund)); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Refund/return initiated. Amount: %s. RMA: %s. Label: %s. Are you satisfied?",
		refund.Amount, ret.RMAID, label.URL)
	return m.respond(t, msg, ChipRefundPending, []Control{satisfactionControl()})
}

func (m *Manager) saveState(t *turn, status *string) error {
	raw, err := t.state.MarshalJSONBytes()
	if err != nil {
		return err
	}
	_, err = m.gw.UpdateSessionState(t.ctx, tools.UpdateSessionStateRequest{
		SessionID:  t.sessionID,
		StatePatch: raw,
		Status:     status,
	})
	return err
}

func (m *Manager) respond(t *turn, message, chip string, controls []Control) (*MessageResponse, error) {
	if _, err := m.gw.AppendChatMessage(t.ctx, tools.AppendChatMessageRequest{
		SessionID: t.sessionID, Role: "assistant", Content: message,
	}); err != nil {
		return nil, err
	}
	if controls == nil {
		controls = []Control{}
	}
	return &MessageResponse{
		SessionID:        t.sessionID,
		CaseID:           t.caseID,
		AssistantMessage: message,
		StatusChip:       chip,
		Controls:         controls,
		Timeline:         append([]TimelineEvent{}, t.state.Timeline...),
	}, nil
}

// looksLikeIdentifier accepts an email, a four-digit phone suffix, or a
// direct order ID. Anything else stays free text.
func looksLikeIdentifier(text string) bool {
	if strings.Contains(text, "@") {
		return true
	}
	if len(text) == 4 && isDigits(text) {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(text), "ORD-")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func shortHex() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func ptr(b bool) *bool        { return &b }
func strPtr(s string) *string { return &s }
func stagePtr(s Stage) *Stage { return &s }
