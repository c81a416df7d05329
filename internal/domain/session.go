package types

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSession holds the only cross-turn memory of a conversation. The
// typed state record lives serialized in StateJSON; Version backs the
// compare-and-swap on state updates.
type ChatSession struct {
	SessionID string         `gorm:"type:text;primaryKey" json:"session_id"`
	CaseID    string         `gorm:"type:text;not null;uniqueIndex" json:"case_id"`
	StateJSON datatypes.JSON `gorm:"not null" json:"state"`
	Status    string         `gorm:"type:text;not null" json:"status"`
	Version   int64          `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

type ChatMessage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:text;not null;index" json:"session_id"`
	Role      string    `gorm:"type:text;not null" json:"role"` // user|assistant
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
