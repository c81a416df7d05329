package policy

import (
	"strings"
	"testing"
	"time"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
)

func pinnedEngine() Engine {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	return NewEngineAt(DefaultRules(), func() time.Time { return now })
}

func deliveredOrder(category string, delivered time.Time) *types.Order {
	return &types.Order{
		OrderID:      "ORD-1001",
		MerchantID:   "M-001",
		ItemID:       "ITEM-1",
		ItemCategory: category,
		OrderDate:    delivered.AddDate(0, 0, -4),
		DeliveryDate: &delivered,
		ItemPrice:    "120.00",
		ShippingFee:  "10.00",
		Status:       "delivered",
	}
}

func TestGetPolicyCategoryWindows(t *testing.T) {
	e := pinnedEngine()

	if got := e.GetPolicy("electronics", "changed_mind").ReturnWindowDays; got != 15 {
		t.Fatalf("electronics window = %d, want 15", got)
	}
	if got := e.GetPolicy("fashion", "changed_mind").ReturnWindowDays; got != 30 {
		t.Fatalf("fashion window = %d, want 30", got)
	}
	if got := e.GetPolicy("books", "changed_mind").ReturnWindowDays; got != 30 {
		t.Fatalf("default window = %d, want 30", got)
	}
	// Seller-fault claims get the extended window regardless of category.
	if got := e.GetPolicy("electronics", "damaged").ReturnWindowDays; got != 365 {
		t.Fatalf("seller fault window = %d, want 365", got)
	}
}

func TestGetPolicyRefundShipping(t *testing.T) {
	e := pinnedEngine()
	if e.GetPolicy("electronics", "changed_mind").RefundShipping {
		t.Fatalf("changed_mind should not refund shipping")
	}
	if !e.GetPolicy("electronics", "damaged").RefundShipping {
		t.Fatalf("damaged should refund shipping")
	}
}

func TestEligibilityNonReturnableCategory(t *testing.T) {
	e := pinnedEngine()
	order := deliveredOrder("perishable", time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC))
	pol := e.GetPolicy("perishable", "changed_mind")

	out := e.CheckEligibility(order, pol, "changed_mind")
	if out.Eligible {
		t.Fatalf("perishable must be denied, got %+v", out)
	}
	if !strings.Contains(out.DecisionReason, "not returnable") {
		t.Fatalf("decision reason = %q", out.DecisionReason)
	}
}

func TestEligibilityUndeliveredOrder(t *testing.T) {
	e := pinnedEngine()
	order := &types.Order{
		OrderID:      "ORD-1003",
		ItemCategory: "electronics",
		OrderDate:    time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC),
		ItemPrice:    "50.00",
		ShippingFee:  "5.00",
		Status:       "shipped",
	}
	pol := e.GetPolicy("electronics", "changed_mind")

	out := e.CheckEligibility(order, pol, "changed_mind")
	if out.Eligible {
		t.Fatalf("undelivered order must be denied, got %+v", out)
	}
	if len(out.MissingInfo) != 1 || out.MissingInfo[0] != "delivery_confirmation" {
		t.Fatalf("missing info = %v", out.MissingInfo)
	}

	// Late delivery complaints are the exception: the order being in
	// transit is the complaint itself.
	latePol := e.GetPolicy("electronics", "late_delivery")
	late := e.CheckEligibility(order, latePol, "late_delivery")
	if !late.Eligible {
		t.Fatalf("late_delivery on undelivered order must be eligible, got %+v", late)
	}
}

func TestEligibilityWindowExpiry(t *testing.T) {
	e := pinnedEngine()

	// Delivered 2025-12-05, checked 2026-09-01: far outside the 15-day
	// electronics window for buyer-remorse claims.
	order := deliveredOrder("electronics", time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC))
	pol := e.GetPolicy("electronics", "changed_mind")
	out := e.CheckEligibility(order, pol, "changed_mind")
	if out.Eligible {
		t.Fatalf("expired window must deny, got %+v", out)
	}
	if !strings.Contains(out.DecisionReason, "expired") {
		t.Fatalf("decision reason = %q", out.DecisionReason)
	}

	// The same delivery under a damage claim stays inside the extended
	// seller-fault window.
	damagedPol := e.GetPolicy("electronics", "damaged")
	damaged := e.CheckEligibility(order, damagedPol, "damaged")
	if !damaged.Eligible {
		t.Fatalf("damage claim within seller-fault window must be eligible, got %+v", damaged)
	}
	if len(damaged.RequiredEvidence) != 1 || damaged.RequiredEvidence[0] != "photo" {
		t.Fatalf("required evidence = %v", damaged.RequiredEvidence)
	}
}

func TestEligibilityInsideWindow(t *testing.T) {
	e := pinnedEngine()
	order := deliveredOrder("fashion", time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC))
	pol := e.GetPolicy("fashion", "changed_mind")

	out := e.CheckEligibility(order, pol, "changed_mind")
	if !out.Eligible {
		t.Fatalf("in-window claim must be eligible, got %+v", out)
	}
	if out.DecisionReason != "Eligible under policy" {
		t.Fatalf("decision reason = %q", out.DecisionReason)
	}
	if len(out.RequiredEvidence) != 0 {
		t.Fatalf("changed_mind should need no evidence, got %v", out.RequiredEvidence)
	}
}

func TestComputeRefundFullVsItemOnly(t *testing.T) {
	e := pinnedEngine()
	order := deliveredOrder("electronics", time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC))

	full, err := e.ComputeRefund(order, e.GetPolicy("electronics", "damaged"), "damaged")
	if err != nil {
		t.Fatalf("compute full: %v", err)
	}
	if full.Amount != "130.00" || full.RefundType != "full" {
		t.Fatalf("full refund = %+v", full)
	}
	if full.Breakdown["item"] != "120.00" || full.Breakdown["shipping"] != "10.00" {
		t.Fatalf("full breakdown = %v", full.Breakdown)
	}

	itemOnly, err := e.ComputeRefund(order, e.GetPolicy("electronics", "changed_mind"), "changed_mind")
	if err != nil {
		t.Fatalf("compute item only: %v", err)
	}
	if itemOnly.Amount != "120.00" || itemOnly.RefundType != "item_only" {
		t.Fatalf("item-only refund = %+v", itemOnly)
	}
	if _, ok := itemOnly.Breakdown["shipping"]; ok {
		t.Fatalf("item-only must not refund shipping: %v", itemOnly.Breakdown)
	}
}

func TestComputeRefundRejectsMalformedAmounts(t *testing.T) {
	e := pinnedEngine()
	order := deliveredOrder("electronics", time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC))
	order.ItemPrice = "12.5"

	if _, err := e.ComputeRefund(order, e.GetPolicy("electronics", "damaged"), "damaged"); err == nil {
		t.Fatalf("expected error for one-decimal amount")
	}
}

func TestAmountArithmeticStaysExact(t *testing.T) {
	e := pinnedEngine()
	order := deliveredOrder("fashion", time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC))
	order.ItemPrice = "0.10"
	order.ShippingFee = "0.20"

	out, err := e.ComputeRefund(order, e.GetPolicy("fashion", "damaged"), "damaged")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if out.Amount != "0.30" {
		t.Fatalf("amount = %q, want 0.30", out.Amount)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing rules file")
	}
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("empty path must fall back to defaults: %v", err)
	}
	if rules.DefaultReturnWindowDays != 30 {
		t.Fatalf("default window = %d", rules.DefaultReturnWindowDays)
	}
}
