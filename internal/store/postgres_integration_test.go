//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/Credia/internal/scoring"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	if err := Migrate(ctx, dbURL, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Reset(ctx)
		s.Close()
	})
	return s
}

func TestPostgres_DealRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	submitted := time.Date(2024, time.February, 6, 9, 30, 0, 0, time.UTC)
	d := testDeal("deal-001", "sme-001", DealPendingReview, 93, submitted)
	d.ScoreComponents = scoring.Components{PayerScore: 28, DocScore: 20, TimeScore: 12, AmountScore: 14, ConcScore: 9, DispScore: 10}

	if err := s.CreateDeal(ctx, d); err != nil {
		t.Fatalf("CreateDeal failed: %v", err)
	}

	got, err := s.GetDeal(ctx, "deal-001")
	if err != nil {
		t.Fatalf("GetDeal failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected deal, got nil")
	}
	if got.AIScore != 93 || got.ScoreComponents != d.ScoreComponents {
		t.Errorf("score snapshot not preserved: %+v", got)
	}
	if got.FinalRate == nil || *got.FinalRate != 1.9 {
		t.Errorf("expected final rate 1.9, got %v", got.FinalRate)
	}
	if len(got.ExtractedFields.LineItems) != 1 || got.SimulatedExtraction == nil {
		t.Errorf("nested fields not preserved: %+v", got.ExtractedFields)
	}
	if !got.SubmittedAt.Equal(submitted) {
		t.Errorf("expected submitted_at %v, got %v", submitted, got.SubmittedAt)
	}

	got.Status = DealApproved
	if err := s.UpdateDeal(ctx, got); err != nil {
		t.Fatalf("UpdateDeal failed: %v", err)
	}
	approved := DealApproved
	list, err := s.ListDeals(ctx, DealFilter{Status: &approved})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 approved deal, got %d (%v)", len(list), err)
	}

	missing, err := s.GetDeal(ctx, "missing")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil), got %v %v", missing, err)
	}
}

func TestPostgres_PayersSMEsAudit(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if err := s.UpsertPayer(ctx, &Payer{ID: "payer-001", Name: "Siemens AG", Tier: scoring.TierA, Country: "Germany", DisputeRate: 2}); err != nil {
		t.Fatalf("UpsertPayer: %v", err)
	}
	p, err := s.GetPayerByName(ctx, "siemens ag")
	if err != nil || p == nil || p.Tier != scoring.TierA {
		t.Fatalf("GetPayerByName: %v %v", p, err)
	}

	sme := &SME{ID: "sme-001", CompanyName: "TechFlow Solutions", KYBStatus: KYBVerified, LastActivity: time.Now().UTC()}
	if err := s.CreateSME(ctx, sme); err != nil {
		t.Fatalf("CreateSME: %v", err)
	}
	sme.KYBStatus = KYBSuspended
	if err := s.UpdateSME(ctx, sme); err != nil {
		t.Fatalf("UpdateSME: %v", err)
	}
	got, _ := s.GetSME(ctx, "sme-001")
	if got.KYBStatus != KYBSuspended {
		t.Errorf("expected suspended, got %s", got.KYBStatus)
	}

	now := time.Now().UTC()
	_ = s.AppendAudit(ctx, &AuditLog{ID: "log-1", Timestamp: now.Add(-time.Minute), UserRole: RoleSME, Action: "INVOICE_SUBMITTED", ResourceType: "deal", ResourceID: "deal-001"})
	_ = s.AppendAudit(ctx, &AuditLog{ID: "log-2", Timestamp: now, UserRole: RoleAdmin, Action: "DEAL_APPROVED", ResourceType: "deal", ResourceID: "deal-001"})
	logs, err := s.ListAuditLogs(ctx, AuditFilter{ResourceID: "deal-001"})
	if err != nil || len(logs) != 2 || logs[0].ID != "log-2" {
		t.Errorf("expected newest-first audit log, got %v (%v)", logs, err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalSMEs != 1 || stats.ActiveSMEs != 0 {
		t.Errorf("unexpected SME stats %+v", stats)
	}
}
