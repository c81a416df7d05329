package evidence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type ValidationRepo interface {
	GetByScope(dbc dbctx.Context, evidenceID, orderID, itemID string) (*types.EvidenceValidationRecord, error)
	// Save persists the first verdict for a scope. On a concurrent save of
	// the same scope the stored verdict wins; the function is pure, so
	// both writers computed the same one.
	Save(dbc dbctx.Context, row *types.EvidenceValidationRecord) (*types.EvidenceValidationRecord, error)
}

type validationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValidationRepo(db *gorm.DB, log *logger.Logger) ValidationRepo {
	return &validationRepo{db: db, log: log.With("repo", "ValidationRepo")}
}

func (r *validationRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *validationRepo) GetByScope(dbc dbctx.Context, evidenceID, orderID, itemID string) (*types.EvidenceValidationRecord, error) {
	if evidenceID == "" || orderID == "" || itemID == "" {
		return nil, fmt.Errorf("missing validation scope")
	}
	var out types.EvidenceValidationRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("evidence_id = ? AND order_id = ? AND item_id = ?", evidenceID, orderID, itemID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *validationRepo) Save(dbc dbctx.Context, row *types.EvidenceValidationRecord) (*types.EvidenceValidationRecord, error) {
	if row == nil {
		return nil, fmt.Errorf("missing validation record")
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		existing, getErr := r.GetByScope(dbc, row.EvidenceID, row.OrderID, row.ItemID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return row, nil
}
