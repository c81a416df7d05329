package types

import (
	"time"

	"gorm.io/datatypes"
)

// ToolCallLog is a write-once audit row per tool gateway invocation.
// Rows are never updated or deleted.
type ToolCallLog struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ToolName        string         `gorm:"type:text;not null;index" json:"tool_name"`
	RequestPayload  datatypes.JSON `gorm:"not null" json:"request_payload"`
	ResponsePayload datatypes.JSON `json:"response_payload,omitempty"`
	ErrorMessage    *string        `gorm:"type:text" json:"error_message,omitempty"`
	LatencyMS       int64          `gorm:"not null" json:"latency_ms"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
}

func (ToolCallLog) TableName() string { return "tool_call_logs" }
