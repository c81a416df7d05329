package evidence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type EvidenceRepo interface {
	Create(dbc dbctx.Context, row *types.EvidenceRecord) error
	Get(dbc dbctx.Context, evidenceID string) (*types.EvidenceRecord, error)
	ListByCase(dbc dbctx.Context, caseID string, limit int) ([]*types.EvidenceRecord, error)
}

type evidenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceRepo(db *gorm.DB, log *logger.Logger) EvidenceRepo {
	return &evidenceRepo{db: db, log: log.With("repo", "EvidenceRepo")}
}

func (r *evidenceRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *evidenceRepo) Create(dbc dbctx.Context, row *types.EvidenceRecord) error {
	if row == nil || row.EvidenceID == "" {
		return fmt.Errorf("missing evidence record")
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *evidenceRepo) Get(dbc dbctx.Context, evidenceID string) (*types.EvidenceRecord, error) {
	if evidenceID == "" {
		return nil, fmt.Errorf("missing evidence_id")
	}
	var out types.EvidenceRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("evidence_id = ?", evidenceID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *evidenceRepo) ListByCase(dbc dbctx.Context, caseID string, limit int) ([]*types.EvidenceRecord, error) {
	if caseID == "" {
		return nil, fmt.Errorf("missing case_id")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []*types.EvidenceRecord
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.EvidenceRecord{}).
		Where("case_id = ?", caseID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
