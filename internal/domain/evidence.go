package types

import (
	"time"

	"gorm.io/datatypes"
)

type EvidenceRecord struct {
	EvidenceID  string    `gorm:"type:text;primaryKey" json:"evidence_id"`
	SessionID   string    `gorm:"type:text;not null;index" json:"session_id"`
	CaseID      string    `gorm:"type:text;not null;index" json:"case_id"`
	FileName    string    `gorm:"type:text;not null" json:"file_name"`
	MimeType    string    `gorm:"type:text;not null" json:"mime_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	StoragePath string    `gorm:"type:text;not null" json:"storage_path"`
	UploadedAt  time.Time `gorm:"not null" json:"uploaded_at"`
}

func (EvidenceRecord) TableName() string { return "evidence_records" }

// EvidenceValidationRecord caches one verdict per (evidence, order, item)
// scope. The scoring function is pure over persisted metadata, so the
// first verdict for a scope is permanently reusable.
type EvidenceValidationRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EvidenceID  string         `gorm:"type:text;not null;uniqueIndex:uq_evidence_validation_scope" json:"evidence_id"`
	OrderID     string         `gorm:"type:text;not null;uniqueIndex:uq_evidence_validation_scope" json:"order_id"`
	ItemID      string         `gorm:"type:text;not null;uniqueIndex:uq_evidence_validation_scope" json:"item_id"`
	Passed      bool           `gorm:"not null" json:"passed"`
	Confidence  string         `gorm:"type:text;not null" json:"confidence"`
	Reasons     datatypes.JSON `gorm:"not null" json:"reasons"`
	Approach    string         `gorm:"type:text;not null" json:"approach"`
	ValidatedAt time.Time      `gorm:"not null" json:"validated_at"`
}

func (EvidenceValidationRecord) TableName() string { return "evidence_validations" }
