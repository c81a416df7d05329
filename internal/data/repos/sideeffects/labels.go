package sideeffects

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type LabelRepo interface {
	// CreateLabel issues one shipping label per RMA.
	CreateLabel(dbc dbctx.Context, rmaID string) (labelID string, url string, err error)
}

type labelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLabelRepo(db *gorm.DB, log *logger.Logger) LabelRepo {
	return &labelRepo{db: db, log: log.With("repo", "LabelRepo")}
}

func (r *labelRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *labelRepo) CreateLabel(dbc dbctx.Context, rmaID string) (string, string, error) {
	if rmaID == "" {
		return "", "", fmt.Errorf("missing rma_id")
	}

	existing, err := r.getByRMA(dbc, rmaID)
	if err != nil {
		return "", "", err
	}
	if existing != nil {
		return existing.LabelID, existing.LabelURL, nil
	}

	labelID := derivedID("LBL", rmaID)
	row := &types.LabelRecord{
		LabelID:   labelID,
		RMAID:     rmaID,
		LabelURL:  fmt.Sprintf("https://labels.local/%s.pdf", labelID),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		ex2, getErr := r.getByRMA(dbc, rmaID)
		if getErr == nil && ex2 != nil {
			return ex2.LabelID, ex2.LabelURL, nil
		}
		return "", "", err
	}
	return row.LabelID, row.LabelURL, nil
}

func (r *labelRepo) getByRMA(dbc dbctx.Context, rmaID string) (*types.LabelRecord, error) {
	var out types.LabelRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("rma_id = ?", rmaID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
