package conversation

// Chat surface types. These mirror what the web client exchanges with
// the chat endpoints one-to-one.

type StartRequest struct {
	CustomerIdentifier string `json:"customer_identifier,omitempty"`
}

type StartResponse struct {
	SessionID        string    `json:"session_id"`
	CaseID           string    `json:"case_id"`
	AssistantMessage string    `json:"assistant_message"`
	StatusChip       string    `json:"status_chip"`
	Controls         []Control `json:"controls"`
}

type MessageRequest struct {
	SessionID             string   `json:"session_id" binding:"required"`
	Text                  string   `json:"text"`
	SelectedOrderID       string   `json:"selected_order_id,omitempty"`
	SelectedItemIDs       []string `json:"selected_item_ids,omitempty"`
	Reason                string   `json:"reason,omitempty"`
	EvidenceUploaded      bool     `json:"evidence_uploaded,omitempty"`
	EvidenceFileName      string   `json:"evidence_file_name,omitempty"`
	EvidenceMimeType      string   `json:"evidence_mime_type,omitempty"`
	EvidenceSizeBytes     int64    `json:"evidence_size_bytes,omitempty"`
	EvidenceContentBase64 string   `json:"evidence_content_base64,omitempty"`
	Satisfaction          string   `json:"satisfaction,omitempty"` // yes|no
}

type MessageResponse struct {
	SessionID        string          `json:"session_id"`
	CaseID           string          `json:"case_id"`
	AssistantMessage string          `json:"assistant_message"`
	StatusChip       string          `json:"status_chip"`
	Controls         []Control       `json:"controls"`
	Timeline         []TimelineEvent `json:"timeline"`
}
