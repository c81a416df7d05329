package tools

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
)

// MaskEmail keeps the first two characters of the local part and stars
// the rest, so "alice@example.com" becomes "al***@example.com".
func MaskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	keep := 2
	if len(local) < keep {
		keep = len(local)
	}
	return local[:keep] + "***@" + domain
}

func maskedOrderFrom(row *types.Order) MaskedOrder {
	return MaskedOrder{
		OrderID:             row.OrderID,
		MerchantID:          row.MerchantID,
		CustomerEmailMasked: MaskEmail(row.CustomerEmail),
		CustomerPhoneLast4:  row.CustomerPhoneLast4,
		ItemID:              row.ItemID,
		ItemCategory:        row.ItemCategory,
		OrderDate:           row.OrderDate.Format(dateLayout),
		DeliveryDate:        formatDatePtr(row.DeliveryDate),
		ItemPrice:           row.ItemPrice,
		ShippingFee:         row.ShippingFee,
		Status:              row.Status,
	}
}

// orderFromMasked rebuilds the fields the policy engine reads from a
// wire-shape order. The masked email never reaches policy decisions.
func orderFromMasked(m MaskedOrder) (*types.Order, error) {
	orderDate, err := time.Parse(dateLayout, m.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("bad order_date %q: %w", m.OrderDate, err)
	}
	var deliveryDate *time.Time
	if m.DeliveryDate != nil && *m.DeliveryDate != "" {
		parsed, err := time.Parse(dateLayout, *m.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("bad delivery_date %q: %w", *m.DeliveryDate, err)
		}
		deliveryDate = &parsed
	}
	return &types.Order{
		OrderID:            m.OrderID,
		MerchantID:         m.MerchantID,
		CustomerPhoneLast4: m.CustomerPhoneLast4,
		ItemID:             m.ItemID,
		ItemCategory:       m.ItemCategory,
		OrderDate:          orderDate,
		DeliveryDate:       deliveryDate,
		ItemPrice:          m.ItemPrice,
		ShippingFee:        m.ShippingFee,
		Status:             m.Status,
	}, nil
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func sessionResponseFrom(row *types.ChatSession) SessionResponse {
	return SessionResponse{
		SessionID: row.SessionID,
		CaseID:    row.CaseID,
		State:     json.RawMessage(row.StateJSON),
		Status:    row.Status,
	}
}

// mergePatch applies a shallow JSON merge: top-level keys in patch
// overwrite the stored object, and explicit nulls delete keys.
func mergePatch(current datatypes.JSON, patch json.RawMessage) (datatypes.JSON, error) {
	base := map[string]json.RawMessage{}
	if len(current) > 0 {
		if err := json.Unmarshal(current, &base); err != nil {
			return nil, fmt.Errorf("decode stored state: %w", err)
		}
	}
	delta := map[string]json.RawMessage{}
	if err := json.Unmarshal(patch, &delta); err != nil {
		return nil, fmt.Errorf("decode state patch: %w", err)
	}
	for k, v := range delta {
		if string(v) == "null" {
			delete(base, k)
			continue
		}
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(merged), nil
}

func trackingID(caseID string) string {
	sum := sha256.Sum256([]byte(caseID))
	return "TRACK-" + strings.ToUpper(fmt.Sprintf("%x", sum[:6]))
}

func validationResponseFrom(row *types.EvidenceValidationRecord) (ValidateEvidenceResponse, error) {
	confidence, err := strconv.ParseFloat(row.Confidence, 64)
	if err != nil {
		return ValidateEvidenceResponse{}, fmt.Errorf("bad stored confidence %q: %w", row.Confidence, err)
	}
	var reasons []string
	if len(row.Reasons) > 0 {
		if err := json.Unmarshal(row.Reasons, &reasons); err != nil {
			return ValidateEvidenceResponse{}, fmt.Errorf("decode stored reasons: %w", err)
		}
	}
	return ValidateEvidenceResponse{
		Passed:     row.Passed,
		Confidence: confidence,
		Reasons:    reasons,
		Approach:   row.Approach,
	}, nil
}
