package conversation

import "strings"

// Reason inference is keyword-first so typed free text can skip the
// reason picker. Order matters: damage phrasing wins over a generic
// "return" mention in the same sentence.
func InferReason(text string) string {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "damaged", "broken", "cracked"):
		return "damaged"
	case containsAny(t, "defective", "not working", "replacement"):
		return "defective"
	case strings.Contains(t, "wrong item") || strings.Contains(t, "missing item"):
		return "wrong_item"
	case containsAny(t, "late", "delayed"):
		return "late_delivery"
	case strings.Contains(t, "cancel"):
		return "cancel_order"
	case strings.Contains(t, "return"):
		return "return_request"
	case strings.Contains(t, "changed my mind"):
		return "changed_mind"
	case strings.Contains(t, "not as described"):
		return "not_as_described"
	case strings.Contains(t, "refund"):
		return "refund_request"
	}
	return ""
}

// NormalizeReason folds UI-facing reason values onto the canonical
// vocabulary the policy engine understands.
func NormalizeReason(reason string) string {
	switch reason {
	case "refund_request", "return_request":
		return "changed_mind"
	case "missing_item":
		return "wrong_item"
	default:
		return reason
	}
}

func containsAny(t string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
