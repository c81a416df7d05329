package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
)

func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, orderID, email, status string) *types.Order {
	tb.Helper()
	delivery := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)
	o := &types.Order{
		OrderID:            orderID,
		MerchantID:         "M-001",
		CustomerEmail:      email,
		CustomerPhoneLast4: "1234",
		ItemID:             "ITEM-1",
		ItemCategory:       "electronics",
		OrderDate:          time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
		DeliveryDate:       &delivery,
		ItemPrice:          "120.00",
		ShippingFee:        "10.00",
		Status:             status,
	}
	if o.Status == "processing" {
		o.DeliveryDate = nil
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, caseID string) *types.ChatSession {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.ChatSession{
		SessionID: sessionID,
		CaseID:    caseID,
		StateJSON: datatypes.JSON([]byte(`{"stage":"need_identifier","terminal":false,"timeline":[]}`)),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedEvidence(tb testing.TB, ctx context.Context, tx *gorm.DB, evidenceID, caseID, fileName, mimeType string, sizeBytes int64) *types.EvidenceRecord {
	tb.Helper()
	e := &types.EvidenceRecord{
		EvidenceID:  evidenceID,
		SessionID:   "SES-FIXTURE",
		CaseID:      caseID,
		FileName:    fileName,
		MimeType:    mimeType,
		SizeBytes:   sizeBytes,
		StoragePath: "/tmp/" + evidenceID,
		UploadedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed evidence: %v", err)
	}
	return e
}
