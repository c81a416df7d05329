package repos

import (
	"gorm.io/gorm"

	"github.com/RakMan09/refund-returns-agent/internal/data/repos/audit"
	"github.com/RakMan09/refund-returns-agent/internal/data/repos/evidence"
	"github.com/RakMan09/refund-returns-agent/internal/data/repos/orders"
	"github.com/RakMan09/refund-returns-agent/internal/data/repos/sessions"
	"github.com/RakMan09/refund-returns-agent/internal/data/repos/sideeffects"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type OrderRepo = orders.OrderRepo
type TestOrderInput = orders.TestOrderInput

type SessionRepo = sessions.SessionRepo
type MessageRepo = sessions.MessageRepo

type ReturnRepo = sideeffects.ReturnRepo
type LabelRepo = sideeffects.LabelRepo
type EscalationRepo = sideeffects.EscalationRepo

type EvidenceRepo = evidence.EvidenceRepo
type ValidationRepo = evidence.ValidationRepo

type ToolCallLogRepo = audit.ToolCallLogRepo

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return orders.NewOrderRepo(db, baseLog)
}
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return sessions.NewSessionRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return sessions.NewMessageRepo(db, baseLog)
}
func NewReturnRepo(db *gorm.DB, baseLog *logger.Logger) ReturnRepo {
	return sideeffects.NewReturnRepo(db, baseLog)
}
func NewLabelRepo(db *gorm.DB, baseLog *logger.Logger) LabelRepo {
	return sideeffects.NewLabelRepo(db, baseLog)
}
func NewEscalationRepo(db *gorm.DB, baseLog *logger.Logger) EscalationRepo {
	return sideeffects.NewEscalationRepo(db, baseLog)
}
func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return evidence.NewEvidenceRepo(db, baseLog)
}
func NewValidationRepo(db *gorm.DB, baseLog *logger.Logger) ValidationRepo {
	return evidence.NewValidationRepo(db, baseLog)
}
func NewToolCallLogRepo(db *gorm.DB, baseLog *logger.Logger) ToolCallLogRepo {
	return audit.NewToolCallLogRepo(db, baseLog)
}
