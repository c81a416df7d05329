package audit

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type ToolCallLogRepo interface {
	Append(dbc dbctx.Context, toolName string, request datatypes.JSON, response datatypes.JSON, errMsg *string, latency time.Duration) error
	ListByTool(dbc dbctx.Context, toolName string, limit int) ([]*types.ToolCallLog, error)
}

type toolCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewToolCallLogRepo(db *gorm.DB, log *logger.Logger) ToolCallLogRepo {
	return &toolCallLogRepo{db: db, log: log.With("repo", "ToolCallLogRepo")}
}

func (r *toolCallLogRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *toolCallLogRepo) Append(dbc dbctx.Context, toolName string, request datatypes.JSON, response datatypes.JSON, errMsg *string, latency time.Duration) error {
	if len(request) == 0 {
		request = datatypes.JSON([]byte("{}"))
	}
	row := &types.ToolCallLog{
		ToolName:        toolName,
		RequestPayload:  request,
		ResponsePayload: response,
		ErrorMessage:    errMsg,
		LatencyMS:       latency.Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}
	return r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *toolCallLogRepo) ListByTool(dbc dbctx.Context, toolName string, limit int) ([]*types.ToolCallLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&types.ToolCallLog{})
	if toolName != "" {
		q = q.Where("tool_name = ?", toolName)
	}
	var out []*types.ToolCallLog
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
