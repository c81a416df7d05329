package sessions

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

// ErrVersionConflict is returned when the compare-and-swap on the session
// row keeps losing against concurrent writers.
var ErrVersionConflict = errors.New("session version conflict")

const casAttempts = 3

type SessionRepo interface {
	// Create is idempotent on session_id: an existing row is returned
	// unchanged.
	Create(dbc dbctx.Context, sessionID, caseID string, state datatypes.JSON, status string) (*types.ChatSession, error)
	Get(dbc dbctx.Context, sessionID string) (*types.ChatSession, error)
	GetByCaseID(dbc dbctx.Context, caseID string) (*types.ChatSession, error)
	// UpdateState re-reads the row, applies the caller's merge function to
	// the stored state, and writes back under a version compare-and-swap.
	// A lost race re-reads and re-applies, so no patch is silently dropped.
	UpdateState(dbc dbctx.Context, sessionID string, status *string, apply func(current datatypes.JSON) (datatypes.JSON, error)) (*types.ChatSession, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: log.With("repo", "SessionRepo")}
}

func (r *sessionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *sessionRepo) Create(dbc dbctx.Context, sessionID, caseID string, state datatypes.JSON, status string) (*types.ChatSession, error) {
	if sessionID == "" || caseID == "" {
		return nil, fmt.Errorf("missing session_id or case_id")
	}
	existing, err := r.Get(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	now := time.Now().UTC()
	row := &types.ChatSession{
		SessionID: sessionID,
		CaseID:    caseID,
		StateJSON: state,
		Status:    status,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		// Possible race: another turn created it.
		ex2, getErr := r.Get(dbc, sessionID)
		if getErr == nil && ex2 != nil {
			return ex2, nil
		}
		return nil, err
	}
	return row, nil
}

func (r *sessionRepo) Get(dbc dbctx.Context, sessionID string) (*types.ChatSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("missing session_id")
	}
	var out types.ChatSession
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("session_id = ?", sessionID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) GetByCaseID(dbc dbctx.Context, caseID string) (*types.ChatSession, error) {
	if caseID == "" {
		return nil, fmt.Errorf("missing case_id")
	}
	var out types.ChatSession
	err := r.tx(dbc).WithContext(dbc.Ctx).Where("case_id = ?", caseID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) UpdateState(dbc dbctx.Context, sessionID string, status *string, apply func(current datatypes.JSON) (datatypes.JSON, error)) (*types.ChatSession, error) {
	if apply == nil {
		return nil, fmt.Errorf("missing apply func")
	}
	for attempt := 0; attempt < casAttempts; attempt++ {
		row, err := r.Get(dbc, sessionID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}

		merged, err := apply(row.StateJSON)
		if err != nil {
			return nil, err
		}

		updates := map[string]interface{}{
			"state_json": merged,
			"version":    row.Version + 1,
			"updated_at": time.Now().UTC(),
		}
		if status != nil {
			updates["status"] = *status
		}

		res := r.tx(dbc).WithContext(dbc.Ctx).
			Model(&types.ChatSession{}).
			Where("session_id = ? AND version = ?", sessionID, row.Version).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return r.Get(dbc, sessionID)
		}
		// Lost the CAS; loop and re-apply on the fresher state.
	}
	return nil, ErrVersionConflict
}
