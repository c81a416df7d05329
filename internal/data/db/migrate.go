package db

import (
	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Reference data
		&types.Order{},

		// Conversation state + transcript
		&types.ChatSession{},
		&types.ChatMessage{},

		// Side effects (idempotency-keyed)
		&types.ReturnRecord{},
		&types.LabelRecord{},
		&types.EscalationRecord{},

		// Evidence
		&types.EvidenceRecord{},
		&types.EvidenceValidationRecord{},

		// Audit
		&types.ToolCallLog{},
	)
}
