package sessions

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type MessageRepo interface {
	Append(dbc dbctx.Context, sessionID, role, content string) error
	ListBySession(dbc dbctx.Context, sessionID string, limit int) ([]*types.ChatMessage, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *messageRepo) Append(dbc dbctx.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return fmt.Errorf("missing session_id")
	}
	row := &types.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *messageRepo) ListBySession(dbc dbctx.Context, sessionID string, limit int) ([]*types.ChatMessage, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("missing session_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*types.ChatMessage
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
