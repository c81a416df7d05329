package conversation

// Control describes one UI affordance the client should render for the
// next turn. The orchestrator emits descriptors only; rendering is the
// client's problem.
type Control struct {
	ControlType string   `json:"control_type"` // dropdown|multiselect|buttons|file_upload|text
	Field       string   `json:"field"`
	Label       string   `json:"label"`
	Options     []Option `json:"options"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func identifierControl(label string) Control {
	return Control{ControlType: "text", Field: "identifier", Label: label, Options: []Option{}}
}

func orderSelectControl(options []Option) Control {
	return Control{ControlType: "dropdown", Field: "selected_order_id", Label: "Select order", Options: options}
}

func itemSelectControl(options []Option) Control {
	return Control{ControlType: "multiselect", Field: "selected_item_ids", Label: "Select item(s)", Options: options}
}

func reasonControl() Control {
	return Control{
		ControlType: "buttons",
		Field:       "reason",
		Label:       "Reason",
		Options: []Option{
			{Label: "Refund Request", Value: "refund_request"},
			{Label: "Return Request", Value: "return_request"},
			{Label: "Replacement", Value: "defective"},
			{Label: "Cancel Order", Value: "cancel_order"},
			{Label: "Missing / Wrong Item", Value: "wrong_item"},
			{Label: "Damaged", Value: "damaged"},
			{Label: "Late Delivery", Value: "late_delivery"},
			{Label: "Changed Mind", Value: "changed_mind"},
		},
	}
}

func alternativeControl() Control {
	return Control{
		ControlType: "buttons",
		Field:       "reason",
		Label:       "Alternative resolution",
		Options: []Option{
			{Label: "Replacement", Value: "replacement"},
			{Label: "Store credit", Value: "store_credit"},
			{Label: "Escalate to human", Value: "escalate"},
		},
	}
}

func cancelDeniedControl() Control {
	return Control{
		ControlType: "buttons",
		Field:       "reason",
		Label:       "Choose next step",
		Options: []Option{
			{Label: "Proceed with return", Value: "return_request"},
			{Label: "Escalate to human", Value: "escalate"},
		},
	}
}

func evidenceUploadControl(label string) Control {
	return Control{ControlType: "file_upload", Field: "evidence_uploaded", Label: label, Options: []Option{}}
}

func satisfactionControl() Control {
	return Control{
		ControlType: "buttons",
		Field:       "satisfaction",
		Label:       "Are you satisfied with this resolution?",
		Options: []Option{
			{Label: "Yes, end chat", Value: "yes"},
			{Label: "No, continue", Value: "no"},
		},
	}
}
