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

type ReturnRepo interface {
	// CreateReturn issues an RMA at most once per (order, item, method).
	// A repeated call returns the existing RMA id.
	CreateReturn(dbc dbctx.Context, orderID, itemID, method string) (string, error)
	GetByRMA(dbc dbctx.Context, rmaID string) (*types.ReturnRecord, error)
}

type returnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReturnRepo(db *gorm.DB, log *logger.Logger) ReturnRepo {
	return &returnRepo{db: db, log: log.With("repo", "ReturnRepo")}
}

func (r *returnRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *returnRepo) CreateReturn(dbc dbctx.Context, orderID, itemID, method string) (string, error) {
	if orderID == "" || itemID == "" || method == "" {
		return "", fmt.Errorf("missing order_id, item_id or method")
	}
	key := fmt.Sprintf("%s:%s:%s", orderID, itemID, method)

	existing, err := r.getByKey(dbc, key)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.RMAID, nil
	}

	row := &types.ReturnRecord{
		RMAID:          derivedID("RMA", key),
		IdempotencyKey: key,
		OrderID:        orderID,
		ItemID:         itemID,
		Method:         method,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		// Unique index on the key: a concurrent create wins, read it back.
		ex2, getErr := r.getByKey(dbc, key)
		if getErr == nil && ex2 != nil {
			return ex2.RMAID, nil
		}
		return "", err
	}
	return row.RMAID, nil
}

func (r *returnRepo) GetByRMA(dbc dbctx.Context, rmaID string) (*types.ReturnRecord, error) {
	if rmaID == "" {
		return nil, fmt.Errorf("missing rma_id")
	}
	var out types.ReturnRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("rma_id = ?", rmaID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *returnRepo) getByKey(dbc dbctx.Context, key string) (*types.ReturnRecord, error) {
	var out types.ReturnRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("idempotency_key = ?", key).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
