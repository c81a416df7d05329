package types

import (
	"time"

	"gorm.io/datatypes"
)

// Side-effect records are keyed by a derived idempotency key so a retried
// turn resolves to the existing record instead of minting a new one.

type ReturnRecord struct {
	RMAID          string    `gorm:"type:text;primaryKey" json:"rma_id"`
	IdempotencyKey string    `gorm:"type:text;not null;uniqueIndex:uq_returns_idempotency" json:"idempotency_key"`
	OrderID        string    `gorm:"type:text;not null" json:"order_id"`
	ItemID         string    `gorm:"type:text;not null" json:"item_id"`
	Method         string    `gorm:"type:text;not null" json:"method"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (ReturnRecord) TableName() string { return "returns" }

type LabelRecord struct {
	LabelID   string    `gorm:"type:text;primaryKey" json:"label_id"`
	RMAID     string    `gorm:"type:text;not null;uniqueIndex:uq_labels_rma" json:"rma_id"`
	LabelURL  string    `gorm:"type:text;not null" json:"label_url"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (LabelRecord) TableName() string { return "labels" }

type EscalationRecord struct {
	TicketID       string         `gorm:"type:text;primaryKey" json:"ticket_id"`
	IdempotencyKey string         `gorm:"type:text;not null;uniqueIndex:uq_escalations_idempotency" json:"idempotency_key"`
	CaseID         string         `gorm:"type:text;not null;index" json:"case_id"`
	Reason         string         `gorm:"type:text;not null" json:"reason"`
	Evidence       datatypes.JSON `gorm:"not null" json:"evidence"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}

func (EscalationRecord) TableName() string { return "escalations" }
