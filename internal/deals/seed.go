package deals

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/Credia/internal/extraction"
	"github.com/MikeSquared-Agency/Credia/internal/scoring"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

func seedTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(fmt.Sprintf("seed time %q: %v", s, err))
	}
	return t
}

func seedPayers() []*store.Payer {
	return []*store.Payer{
		{ID: "payer-001", Name: "Siemens AG", Tier: scoring.TierA, Country: "Germany", DisputeRate: 2},
		{ID: "payer-002", Name: "BMW Group", Tier: scoring.TierA, Country: "Germany", DisputeRate: 1},
		{ID: "payer-003", Name: "BASF SE", Tier: scoring.TierA, Country: "Germany", DisputeRate: 3},
		{ID: "payer-004", Name: "Deutsche Post", Tier: scoring.TierA, Country: "Germany", DisputeRate: 2},
		{ID: "payer-005", Name: "StartupXYZ", Tier: scoring.TierC, Country: "Germany", DisputeRate: 15},
		{ID: "payer-006", Name: "MidCorp GmbH", Tier: scoring.TierB, Country: "Germany", DisputeRate: 7},
	}
}

func seedSMEs() []*store.SME {
	return []*store.SME{
		{ID: "sme-001", CompanyName: "TechFlow Solutions", Email: "finance@techflow.de", RegistrationNumber: "HRB 123456", Country: "Germany",
			ProfileCompleteness: 100, KYBStatus: store.KYBVerified, TotalFunded: 450000, ActiveDeals: 2,
			JoinedAt: "2023-06-15", LastActivity: seedTime("2024-02-06T09:30:00Z"), RiskTier: "low"},
		{ID: "sme-002", CompanyName: "Green Manufacturing Ltd", Email: "accounts@greenmanuf.co.uk", RegistrationNumber: "UK-89012345", Country: "United Kingdom",
			ProfileCompleteness: 85, KYBStatus: store.KYBVerified, TotalFunded: 78500, ActiveDeals: 1,
			JoinedAt: "2023-11-20", LastActivity: seedTime("2024-02-05T14:20:00Z"), RiskTier: "medium"},
		{ID: "sme-003", CompanyName: "Digital Marketing Pro", Email: "info@digitalmpro.com", RegistrationNumber: "NL-56789012", Country: "Netherlands",
			ProfileCompleteness: 70, KYBStatus: store.KYBPending, TotalFunded: 0, ActiveDeals: 1,
			JoinedAt: "2024-01-10", LastActivity: seedTime("2024-02-04T11:45:00Z"), RiskTier: "high"},
		{ID: "sme-004", CompanyName: "Logistics Express", Email: "billing@logisticsexp.de", RegistrationNumber: "HRB 789012", Country: "Germany",
			ProfileCompleteness: 100, KYBStatus: store.KYBVerified, TotalFunded: 890000, ActiveDeals: 3,
			JoinedAt: "2022-09-01", LastActivity: seedTime("2024-02-06T11:00:00Z"), RiskTier: "low"},
		{ID: "sme-005", CompanyName: "Creative Agency Hub", Email: "finance@creativeagency.fr", RegistrationNumber: "FR-34567890", Country: "France",
			ProfileCompleteness: 45, KYBStatus: store.KYBPending, TotalFunded: 0, ActiveDeals: 0,
			JoinedAt: "2024-02-01", LastActivity: seedTime("2024-02-03T09:00:00Z"), RiskTier: "medium"},
		{ID: "sme-006", CompanyName: "Suspended Corp", Email: "admin@suspended.com", RegistrationNumber: "ES-12345678", Country: "Spain",
			ProfileCompleteness: 100, KYBStatus: store.KYBSuspended, TotalFunded: 125000, ActiveDeals: 0,
			JoinedAt: "2023-03-15", LastActivity: seedTime("2024-01-15T10:00:00Z"), RiskTier: "high"},
	}
}

// seedDeal carries the scoring inputs alongside the record. Scores are always
// computed from these, never stored literally.
type seedDeal struct {
	deal          store.Deal
	daysToDue     int
	docs          float64
	concentration float64
}

func seedDeals() []seedDeal {
	rate := func(v float64) *float64 { return &v }
	return []seedDeal{
		{
			deal: store.Deal{
				ID: "deal-001", InvoiceNumber: "INV-2024-0142", SMEID: "sme-001", SMEName: "TechFlow Solutions",
				PayerName: "Siemens AG", Amount: 45000, DueDate: "2024-03-15",
				SubmittedAt: seedTime("2024-02-06T09:30:00Z"), Status: store.DealPendingReview,
				ExtractedFields: store.ExtractedSummary{
					InvoiceDate: "2024-02-01",
					LineItems: []store.LineItem{
						{Description: "Software Development Services - Q1", Amount: 38000},
						{Description: "Cloud Infrastructure Setup", Amount: 7000},
					},
					TaxAmount: 8550, TotalAmount: 45000,
				},
			},
			daysToDue: 38, docs: 100, concentration: 10,
		},
		{
			deal: store.Deal{
				ID: "deal-002", InvoiceNumber: "INV-2024-0089", SMEID: "sme-002", SMEName: "Green Manufacturing Ltd",
				PayerName: "BASF SE", Amount: 78500, DueDate: "2024-03-30",
				SubmittedAt: seedTime("2024-02-05T14:20:00Z"), Status: store.DealPendingReview,
				ExtractedFields: store.ExtractedSummary{
					InvoiceDate: "2024-01-28",
					LineItems: []store.LineItem{
						{Description: "Industrial Equipment Parts", Amount: 65000},
						{Description: "Installation Services", Amount: 13500},
					},
					TaxAmount: 14915, TotalAmount: 78500,
				},
			},
			daysToDue: 53, docs: 70, concentration: 30,
		},
		{
			deal: store.Deal{
				ID: "deal-003", InvoiceNumber: "INV-2024-0201", SMEID: "sme-003", SMEName: "Digital Marketing Pro",
				PayerName: "StartupXYZ", Amount: 12000, DueDate: "2024-02-28",
				SubmittedAt: seedTime("2024-02-04T11:45:00Z"), Status: store.DealPendingReview,
				ExtractedFields: store.ExtractedSummary{
					InvoiceDate: "2024-02-01",
					LineItems: []store.LineItem{
						{Description: "Marketing Campaign Q1", Amount: 8000},
						{Description: "Social Media Management", Amount: 4000},
					},
					TaxAmount: 2280, TotalAmount: 12000,
				},
			},
			daysToDue: 22, docs: 50, concentration: 50,
		},
		{
			deal: store.Deal{
				ID: "deal-004", InvoiceNumber: "INV-2024-0178", SMEID: "sme-001", SMEName: "TechFlow Solutions",
				PayerName: "BMW Group", Amount: 125000, DueDate: "2024-04-15",
				SubmittedAt: seedTime("2024-02-03T16:00:00Z"), Status: store.DealApproved, FinalRate: rate(1.77),
				ExtractedFields: store.ExtractedSummary{
					InvoiceDate: "2024-01-30",
					LineItems: []store.LineItem{
						{Description: "Enterprise Software License", Amount: 100000},
						{Description: "Implementation Services", Amount: 25000},
					},
					TaxAmount: 23750, TotalAmount: 125000,
				},
			},
			daysToDue: 68, docs: 100, concentration: 5,
		},
		{
			deal: store.Deal{
				ID: "deal-005", InvoiceNumber: "INV-2024-0156", SMEID: "sme-004", SMEName: "Logistics Express",
				PayerName: "Deutsche Post", Amount: 34000, DueDate: "2024-03-10",
				SubmittedAt: seedTime("2024-02-02T08:15:00Z"), Status: store.DealFunded, FinalRate: rate(2.0),
				ExtractedFields: store.ExtractedSummary{
					InvoiceDate: "2024-01-25",
					LineItems: []store.LineItem{
						{Description: "Fleet Management Services", Amount: 34000},
					},
					TaxAmount: 6460, TotalAmount: 34000,
				},
			},
			daysToDue: 33, docs: 100, concentration: 10,
		},
	}
}

func seedAuditLogs() []*store.AuditLog {
	return []*store.AuditLog{
		{ID: "log-001", Timestamp: seedTime("2024-02-06T10:30:00Z"), UserID: "admin-1", UserName: "Admin User", UserRole: store.RoleAdmin,
			Action: "DEAL_APPROVED", ResourceType: "deal", ResourceID: "deal-004",
			Details: "Approved deal INV-2024-0178 for TechFlow Solutions. Rate: 1.77%", IPAddress: "192.168.1.100"},
		{ID: "log-002", Timestamp: seedTime("2024-02-06T09:45:00Z"), UserID: "sme-001", UserName: "TechFlow Solutions", UserRole: store.RoleSME,
			Action: "INVOICE_SUBMITTED", ResourceType: "deal", ResourceID: "deal-001",
			Details: "New invoice INV-2024-0142 submitted. Amount: €45,000", IPAddress: "85.214.132.45"},
		{ID: "log-003", Timestamp: seedTime("2024-02-06T08:20:00Z"), UserID: "admin-1", UserName: "Admin User", UserRole: store.RoleAdmin,
			Action: "SME_SUSPENDED", ResourceType: "sme", ResourceID: "sme-006",
			Details: "Suspended Suspended Corp due to compliance concerns", IPAddress: "192.168.1.100"},
		{ID: "log-004", Timestamp: seedTime("2024-02-05T16:30:00Z"), UserID: "admin-2", UserName: "Maria Garcia", UserRole: store.RoleAdmin,
			Action: "DEAL_FUNDED", ResourceType: "deal", ResourceID: "deal-005",
			Details: "Deal INV-2024-0156 funded. Amount: €34,000. Rate: 2.0%", IPAddress: "192.168.1.101"},
		{ID: "log-005", Timestamp: seedTime("2024-02-05T14:20:00Z"), UserID: "sme-002", UserName: "Green Manufacturing Ltd", UserRole: store.RoleSME,
			Action: "INVOICE_SUBMITTED", ResourceType: "deal", ResourceID: "deal-002",
			Details: "New invoice INV-2024-0089 submitted. Amount: €78,500", IPAddress: "51.132.45.89"},
		{ID: "log-006", Timestamp: seedTime("2024-02-05T11:00:00Z"), UserID: "sme-004", UserName: "Logistics Express", UserRole: store.RoleSME,
			Action: "PROFILE_UPDATED", ResourceType: "sme", ResourceID: "sme-004",
			Details: "Updated bank account information", IPAddress: "89.45.123.67"},
		{ID: "log-007", Timestamp: seedTime("2024-02-04T15:45:00Z"), UserID: "admin-1", UserName: "Admin User", UserRole: store.RoleAdmin,
			Action: "RATE_OVERRIDE", ResourceType: "deal", ResourceID: "deal-004",
			Details: "Manual rate override from 2.3% to 1.77% for premium client", IPAddress: "192.168.1.100"},
		{ID: "log-008", Timestamp: seedTime("2024-02-04T11:45:00Z"), UserID: "sme-003", UserName: "Digital Marketing Pro", UserRole: store.RoleSME,
			Action: "INVOICE_SUBMITTED", ResourceType: "deal", ResourceID: "deal-003",
			Details: "New invoice INV-2024-0201 submitted. Amount: €12,000", IPAddress: "145.89.23.12"},
		{ID: "log-009", Timestamp: seedTime("2024-02-03T09:30:00Z"), UserID: "admin-2", UserName: "Maria Garcia", UserRole: store.RoleAdmin,
			Action: "SME_VERIFIED", ResourceType: "sme", ResourceID: "sme-002",
			Details: "KYB verification completed for Green Manufacturing Ltd", IPAddress: "192.168.1.101"},
		{ID: "log-010", Timestamp: seedTime("2024-02-02T08:15:00Z"), UserID: "sme-004", UserName: "Logistics Express", UserRole: store.RoleSME,
			Action: "INVOICE_SUBMITTED", ResourceType: "deal", ResourceID: "deal-005",
			Details: "New invoice INV-2024-0156 submitted. Amount: €34,000", IPAddress: "89.45.123.67"},
	}
}

// EnsureSeeded loads the demo data set into an empty store. It is a no-op
// once any deal exists.
func (s *Service) EnsureSeeded(ctx context.Context) error {
	existing, err := s.store.ListDeals(ctx, store.DealFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("check existing deals: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("store already has deals, skipping seed")
		return nil
	}
	return s.seed(ctx)
}

// Reset wipes every record and reloads the demo data set.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return s.seed(ctx)
}

func (s *Service) seed(ctx context.Context) error {
	payers := seedPayers()
	registry := make(map[string]*store.Payer, len(payers))
	for _, p := range payers {
		if err := s.store.UpsertPayer(ctx, p); err != nil {
			return fmt.Errorf("seed payer %s: %w", p.ID, err)
		}
		registry[p.Name] = p
	}

	for _, sme := range seedSMEs() {
		if err := s.store.CreateSME(ctx, sme); err != nil {
			return fmt.Errorf("seed sme %s: %w", sme.ID, err)
		}
	}

	for _, sd := range seedDeals() {
		deal := sd.deal
		payer := registry[deal.PayerName]
		docs, conc, disp := sd.docs, sd.concentration, payer.DisputeRate
		result := s.scorer.Score(scoring.Inputs{
			InvoiceAmount:     deal.Amount,
			DaysToDue:         sd.daysToDue,
			PayerName:         deal.PayerName,
			PayerTier:         payer.Tier,
			DocCompleteness:   &docs,
			ConcentrationRisk: &conc,
			DisputeRate:       &disp,
		})
		applyScore(&deal, result)
		deal.Currency = extraction.Currency
		deal.UpdatedAt = deal.SubmittedAt
		if err := s.store.CreateDeal(ctx, &deal); err != nil {
			return fmt.Errorf("seed deal %s: %w", deal.ID, err)
		}
	}

	for _, entry := range seedAuditLogs() {
		if err := s.store.AppendAudit(ctx, entry); err != nil {
			return fmt.Errorf("seed audit %s: %w", entry.ID, err)
		}
	}

	s.logger.Info("demo data seeded")
	return nil
}
