package evidence_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/RakMan09/refund-returns-agent/internal/data/repos/evidence"
	"github.com/RakMan09/refund-returns-agent/internal/data/repos/testutil"
	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
)

func verdictRow(passed bool, confidence string) *types.EvidenceValidationRecord {
	return &types.EvidenceValidationRecord{
		EvidenceID:  "EVD-1",
		OrderID:     "ORD-1001",
		ItemID:      "ITEM-1",
		Passed:      passed,
		Confidence:  confidence,
		Reasons:     datatypes.JSON([]byte(`["Image MIME type accepted"]`)),
		Approach:    "approach_b_simulation",
		ValidatedAt: time.Now().UTC(),
	}
}

func TestSaveAndGetByScope(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := evidence.NewValidationRepo(gdb, testutil.Logger(t))

	saved, err := repo.Save(dbc, verdictRow(true, "0.650"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved.Passed || saved.Confidence != "0.650" {
		t.Fatalf("saved verdict mismatch: %+v", saved)
	}

	got, err := repo.GetByScope(dbc, "EVD-1", "ORD-1001", "ITEM-1")
	if err != nil || got == nil {
		t.Fatalf("get by scope: %v, %v", got, err)
	}
	if got.Confidence != "0.650" {
		t.Fatalf("stored confidence = %q", got.Confidence)
	}
}

func TestSaveConflictKeepsStoredVerdict(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := evidence.NewValidationRepo(gdb, testutil.Logger(t))

	if _, err := repo.Save(dbc, verdictRow(true, "0.650")); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Second save for the same scope must return the stored row, not
	// overwrite it.
	second, err := repo.Save(dbc, verdictRow(false, "0.100"))
	if err != nil {
		t.Fatalf("conflicting save: %v", err)
	}
	if !second.Passed || second.Confidence != "0.650" {
		t.Fatalf("stored verdict lost to a later save: %+v", second)
	}
}

func TestGetByScopeMissing(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := evidence.NewValidationRepo(gdb, testutil.Logger(t))

	got, err := repo.GetByScope(dbc, "EVD-NONE", "ORD-NONE", "ITEM-NONE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing scope, got %+v", got)
	}

	if _, err := repo.GetByScope(dbc, "", "ORD-1", "ITEM-1"); err == nil {
		t.Fatalf("expected error for empty scope key")
	}
}

func TestEvidenceCreateAndListByCase(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := evidence.NewEvidenceRepo(gdb, testutil.Logger(t))

	testutil.SeedEvidence(t, ctx, tx, "EVD-1", "CASE-1", "damage.jpg", "image/jpeg", 25000)
	testutil.SeedEvidence(t, ctx, tx, "EVD-2", "CASE-1", "damage2.jpg", "image/jpeg", 30000)
	testutil.SeedEvidence(t, ctx, tx, "EVD-3", "CASE-OTHER", "other.jpg", "image/jpeg", 30000)

	rows, err := repo.ListByCase(dbc, "CASE-1", 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(rows))
	}

	got, err := repo.Get(dbc, "EVD-1")
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if got.FileName != "damage.jpg" {
		t.Fatalf("file name = %q", got.FileName)
	}
}
