package sideeffects

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type EscalationRepo interface {
	// CreateEscalation opens one ticket per (case, reason).
	CreateEscalation(dbc dbctx.Context, caseID, reason string, evidence datatypes.JSON) (string, error)
}

type escalationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEscalationRepo(db *gorm.DB, log *logger.Logger) EscalationRepo {
	return &escalationRepo{db: db, log: log.With("repo", "EscalationRepo")}
}

func (r *escalationRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *escalationRepo) CreateEscalation(dbc dbctx.Context, caseID, reason string, evidence datatypes.JSON) (string, error) {
	if caseID == "" || reason == "" {
		return "", fmt.Errorf("missing case_id or reason")
	}
	key := fmt.Sprintf("%s:%s", caseID, reason)

	existing, err := r.getByKey(dbc, key)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.TicketID, nil
	}

	if len(evidence) == 0 {
		evidence = datatypes.JSON([]byte("{}"))
	}
	row := &types.EscalationRecord{
		TicketID:       derivedID("ESC", key),
		IdempotencyKey: key,
		CaseID:         caseID,
		Reason:         reason,
		Evidence:       evidence,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		ex2, getErr := r.getByKey(dbc, key)
		if getErr == nil && ex2 != nil {
			return ex2.TicketID, nil
		}
		return "", err
	}
	return row.TicketID, nil
}

func (r *escalationRepo) getByKey(dbc dbctx.Context, key string) (*types.EscalationRecord, error) {
	var out types.EscalationRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("idempotency_key = ?", key).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
