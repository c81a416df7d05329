package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
)

// Policy is the contract returned to the orchestrator. Its internals are
// a black box from the conversation engine's perspective.
type Policy struct {
	ReturnWindowDays        int      `json:"return_window_days"`
	RefundShipping          bool     `json:"refund_shipping"`
	RequiresEvidenceFor     []string `json:"requires_evidence_for"`
	NonReturnableCategories []string `json:"non_returnable_categories"`
}

type Eligibility struct {
	Eligible         bool     `json:"eligible"`
	MissingInfo      []string `json:"missing_info"`
	RequiredEvidence []string `json:"required_evidence"`
	DecisionReason   string   `json:"decision_reason"`
}

type Refund struct {
	Amount     string            `json:"amount"`
	Breakdown  map[string]string `json:"breakdown"`
	RefundType string            `json:"refund_type"`
}

type Engine interface {
	GetPolicy(itemCategory, reason string) Policy
	CheckEligibility(order *types.Order, pol Policy, reason string) Eligibility
	ComputeRefund(order *types.Order, pol Policy, reason string) (Refund, error)
}

type rulesEngine struct {
	rules Rules
	now   func() time.Time
}

func NewEngine(rules Rules) Engine {
	return &rulesEngine{rules: rules, now: func() time.Time { return time.Now().UTC() }}
}

// NewEngineAt pins the clock; used by tests to make window checks stable.
func NewEngineAt(rules Rules, now func() time.Time) Engine {
	return &rulesEngine{rules: rules, now: now}
}

func (e *rulesEngine) GetPolicy(itemCategory, reason string) Policy {
	window := e.rules.DefaultReturnWindowDays
	if v, ok := e.rules.CategoryWindowDays[strings.ToLower(itemCategory)]; ok {
		window = v
	}
	if sellerFault(e.rules, reason) {
		window = e.rules.SellerFaultWindowDays
	}
	return Policy{
		ReturnWindowDays:        window,
		RefundShipping:          e.rules.RefundShippingDefault || sellerFault(e.rules, reason),
		RequiresEvidenceFor:     append([]string(nil), e.rules.EvidenceRequiredReasons...),
		NonReturnableCategories: append([]string(nil), e.rules.NonReturnableCategories...),
	}
}

func (e *rulesEngine) CheckEligibility(order *types.Order, pol Policy, reason string) Eligibility {
	if order == nil {
		return Eligibility{Eligible: false, DecisionReason: "Order not found"}
	}
	for _, cat := range pol.NonReturnableCategories {
		if strings.EqualFold(cat, order.ItemCategory) {
			return Eligibility{
				Eligible:       false,
				DecisionReason: fmt.Sprintf("Category %s is not returnable", order.ItemCategory),
			}
		}
	}

	if order.Status != "delivered" && reason != "late_delivery" {
		return Eligibility{
			Eligible:       false,
			MissingInfo:    []string{"delivery_confirmation"},
			DecisionReason: "Order has not been delivered yet",
		}
	}

	reference := order.OrderDate
	if order.DeliveryDate != nil {
		reference = *order.DeliveryDate
	}
	if pol.ReturnWindowDays > 0 {
		deadline := reference.AddDate(0, 0, pol.ReturnWindowDays)
		if e.now().After(deadline) {
			return Eligibility{
				Eligible:       false,
				DecisionReason: fmt.Sprintf("Return window of %d days has expired", pol.ReturnWindowDays),
			}
		}
	}

	var required []string
	for _, r := range pol.RequiresEvidenceFor {
		if r == reason {
			required = []string{"photo"}
			break
		}
	}
	return Eligibility{
		Eligible:         true,
		MissingInfo:      []string{},
		RequiredEvidence: required,
		DecisionReason:   "Eligible under policy",
	}
}

func (e *rulesEngine) ComputeRefund(order *types.Order, pol Policy, reason string) (Refund, error) {
	if order == nil {
		return Refund{}, fmt.Errorf("missing order")
	}
	itemCents, err := parseAmount(order.ItemPrice)
	if err != nil {
		return Refund{}, fmt.Errorf("bad item_price %q: %w", order.ItemPrice, err)
	}
	shippingCents, err := parseAmount(order.ShippingFee)
	if err != nil {
		return Refund{}, fmt.Errorf("bad shipping_fee %q: %w", order.ShippingFee, err)
	}

	total := itemCents
	breakdown := map[string]string{"item": formatCents(itemCents)}
	refundType := "item_only"
	if pol.RefundShipping || sellerFault(e.rules, reason) {
		total += shippingCents
		breakdown["shipping"] = formatCents(shippingCents)
		refundType = "full"
	}
	return Refund{
		Amount:     formatCents(total),
		Breakdown:  breakdown,
		RefundType: refundType,
	}, nil
}

func sellerFault(rules Rules, reason string) bool {
	for _, r := range rules.SellerFaultReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Amounts travel as fixed two-decimal strings; arithmetic happens in
// integer cents.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		frac = "00"
	}
	if len(frac) != 2 {
		return 0, fmt.Errorf("expected two decimal places")
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}
	return w*100 + f, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
