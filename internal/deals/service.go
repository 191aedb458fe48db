package deals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Credia/internal/extraction"
	"github.com/MikeSquared-Agency/Credia/internal/hermes"
	"github.com/MikeSquared-Agency/Credia/internal/metrics"
	"github.com/MikeSquared-Agency/Credia/internal/scoring"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

// TaxRate is the VAT rate applied to the invoice summary.
var TaxRate = decimal.RequireFromString("0.19")

// DefaultIPAddress is recorded on audit entries when the caller's address is
// unknown.
const DefaultIPAddress = "127.0.0.1"

// Actor identifies who performed an action, for the audit trail.
type Actor struct {
	ID        string
	Name      string
	Role      store.Role
	IPAddress string
}

// Service owns the deal workflow: scoring, submission, review and seeding.
type Service struct {
	store     store.Store
	hermes    hermes.Client
	scorer    *scoring.Scorer
	simulator *extraction.Simulator
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for timestamps and extraction dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. h may be nil, in which case no events are published.
// A nil scorer falls back to scoring.DefaultScorer.
func New(st store.Store, h hermes.Client, scorer *scoring.Scorer, logger *slog.Logger, opts ...Option) *Service {
	if scorer == nil {
		scorer = scoring.DefaultScorer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  st,
		hermes: h,
		scorer: scorer,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.simulator = extraction.NewSimulator(s.now)
	return s
}

func (s *Service) Scorer() *scoring.Scorer { return s.scorer }

// PreScore scores raw inputs without persisting anything.
func (s *Service) PreScore(in scoring.Inputs) scoring.Result {
	result := s.scorer.Score(in)
	metrics.ObserveScore(metrics.SourcePreScore, result)
	return result
}

type ExtractResult struct {
	Fields          extraction.Fields `json:"fields"`
	DocCompleteness int               `json:"doc_completeness"`
}

// Extract runs the extraction simulator and derives document completeness.
func (s *Service) Extract(req extraction.Request) ExtractResult {
	fields := s.simulator.Extract(req)
	completeness := extraction.ComputeDocCompleteness(fields.Flags)
	metrics.ObserveDocCompleteness(completeness)
	return ExtractResult{Fields: fields, DocCompleteness: completeness}
}

// TierLookup reports a payer's tier and where it came from.
type TierLookup struct {
	PayerName string            `json:"payer_name"`
	Tier      scoring.PayerTier `json:"tier"`
	Source    string            `json:"source"`
}

const (
	TierSourceRegistry = "registry"
	TierSourceInferred = "inferred"
)

// LookupPayerTier prefers the payer registry and falls back to inference.
func (s *Service) LookupPayerTier(ctx context.Context, name string) (*TierLookup, error) {
	name = strings.TrimSpace(name)
	payer, err := s.store.GetPayerByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get payer %q: %w", name, err)
	}
	if payer != nil && payer.Tier.Valid() {
		return &TierLookup{PayerName: payer.Name, Tier: payer.Tier, Source: TierSourceRegistry}, nil
	}
	return &TierLookup{PayerName: name, Tier: s.scorer.Payers().Infer(name), Source: TierSourceInferred}, nil
}

// SubmitRequest is an SME invoice upload.
type SubmitRequest struct {
	InvoiceAmount float64 `json:"invoice_amount"`
	DaysToDue     int     `json:"days_to_due"`
	PayerName     string  `json:"payer_name"`
	SMEID         string  `json:"sme_id"`
	FileName      string  `json:"file_name,omitempty"`
}

func (r SubmitRequest) validate() error {
	if math.IsNaN(r.InvoiceAmount) || math.IsInf(r.InvoiceAmount, 0) || r.InvoiceAmount <= 0 {
		return fmt.Errorf("%w: invoice_amount must be a positive number", ErrInvalidSubmission)
	}
	if strings.TrimSpace(r.PayerName) == "" {
		return fmt.Errorf("%w: payer_name is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(r.SMEID) == "" {
		return fmt.Errorf("%w: sme_id is required", ErrInvalidSubmission)
	}
	return nil
}

// Submit extracts, scores and persists a new deal in pending_review.
func (s *Service) Submit(ctx context.Context, actor Actor, req SubmitRequest) (*store.Deal, error) {
	return s.submit(ctx, actor, req, metrics.SourceSubmission)
}

func (s *Service) submit(ctx context.Context, actor Actor, req SubmitRequest, source string) (*store.Deal, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	req.PayerName = strings.TrimSpace(req.PayerName)

	sme, err := s.store.GetSME(ctx, req.SMEID)
	if err != nil {
		return nil, fmt.Errorf("get sme %s: %w", req.SMEID, err)
	}
	if sme == nil {
		return nil, fmt.Errorf("%w: unknown sme %s", ErrInvalidSubmission, req.SMEID)
	}
	if sme.KYBStatus == store.KYBSuspended {
		return nil, fmt.Errorf("submit for sme %s: %w", sme.ID, ErrSMESuspended)
	}

	fields := s.simulator.Extract(extraction.Request{
		PayerName:     req.PayerName,
		InvoiceAmount: req.InvoiceAmount,
		DaysToDue:     req.DaysToDue,
		SupplierName:  sme.CompanyName,
		FileName:      req.FileName,
	})
	completeness := float64(extraction.ComputeDocCompleteness(fields.Flags))
	metrics.ObserveDocCompleteness(int(completeness))

	inputs := scoring.Inputs{
		InvoiceAmount:   req.InvoiceAmount,
		DaysToDue:       req.DaysToDue,
		PayerName:       req.PayerName,
		DocCompleteness: &completeness,
	}
	payer, err := s.store.GetPayerByName(ctx, req.PayerName)
	if err != nil {
		return nil, fmt.Errorf("get payer %q: %w", req.PayerName, err)
	}
	if payer != nil {
		inputs.PayerTier = payer.Tier
		rate := payer.DisputeRate
		inputs.DisputeRate = &rate
	}

	result := s.scorer.Score(inputs)
	metrics.ObserveScore(source, result)

	now := s.now().UTC()
	extracted := fields
	deal := &store.Deal{
		ID:            "deal-" + uuid.NewString(),
		InvoiceNumber: fields.InvoiceNumber,
		SMEID:         sme.ID,
		SMEName:       sme.CompanyName,
		PayerName:     req.PayerName,
		Amount:        req.InvoiceAmount,
		Currency:      fields.Currency,
		DueDate:       fields.DueDate,
		SubmittedAt:   now,
		UpdatedAt:     now,
		Status:        store.DealPendingReview,
		ExtractedFields: store.ExtractedSummary{
			InvoiceDate: fields.IssueDate,
			LineItems:   []store.LineItem{{Description: "Invoice to " + req.PayerName, Amount: req.InvoiceAmount}},
			TaxAmount:   taxOn(req.InvoiceAmount),
			TotalAmount: req.InvoiceAmount,
		},
		SimulatedExtraction: &extracted,
	}
	applyScore(deal, result)

	if err := s.store.CreateDeal(ctx, deal); err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}

	sme.ActiveDeals++
	sme.LastActivity = now
	if err := s.store.UpdateSME(ctx, sme); err != nil {
		s.logger.Error("failed to update sme activity", "sme_id", sme.ID, "error", err)
	}

	if actor.ID == "" {
		actor.ID, actor.Role = sme.ID, store.RoleSME
	}
	if actor.ID == sme.ID && actor.Name == "" {
		actor.Name = sme.CompanyName
	}
	if actor.Role == "" {
		actor.Role = store.RoleSME
	}
	s.audit(ctx, actor, "INVOICE_SUBMITTED", "deal", deal.ID,
		fmt.Sprintf("New invoice %s submitted. Amount: %s. Score: %d. Decision: %s.",
			deal.InvoiceNumber, scoring.FormatEuro(deal.Amount), deal.AIScore, deal.Decision))

	s.publish(hermes.SubjectDealSubmitted(deal.ID), hermes.DealSubmittedEvent{
		DealID:        deal.ID,
		InvoiceNumber: deal.InvoiceNumber,
		SMEID:         deal.SMEID,
		PayerName:     deal.PayerName,
		Amount:        deal.Amount,
		Score:         deal.AIScore,
		Decision:      string(deal.Decision),
		FeePercent:    deal.SuggestedRate,
		SubmittedAt:   deal.SubmittedAt,
	})

	s.logger.Info("deal submitted",
		"deal_id", deal.ID,
		"sme_id", deal.SMEID,
		"payer", deal.PayerName,
		"score", deal.AIScore,
		"decision", deal.Decision,
		"source", source,
	)
	return deal, nil
}

// SetupSubscriptions registers the inbound invoice submission handler.
func (s *Service) SetupSubscriptions() {
	if s.hermes == nil {
		return
	}

	_ = s.hermes.Subscribe(hermes.SubjectInvoiceSubmit, func(_ string, data []byte) {
		var evt hermes.InvoiceSubmitEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			s.logger.Warn("invalid invoice submit event", "error", err)
			return
		}
		req := SubmitRequest{
			InvoiceAmount: evt.InvoiceAmount,
			DaysToDue:     evt.DaysToDue,
			PayerName:     evt.PayerName,
			SMEID:         evt.SMEID,
			FileName:      evt.FileName,
		}
		if _, err := s.submit(context.Background(), Actor{}, req, metrics.SourceNATS); err != nil {
			s.logger.Warn("failed to submit invoice from NATS", "sme_id", evt.SMEID, "error", err)
		}
	})
}

// applyScore copies a scoring result onto the deal's frozen score fields.
func applyScore(d *store.Deal, r scoring.Result) {
	c := r.Components
	d.AIScore = r.Score
	d.InvoiceRiskScore = c.AmountScore + c.TimeScore + c.DocScore
	d.PayerRiskScore = c.PayerScore + c.ConcScore
	d.SMEReliabilityScore = c.DispScore * 10
	d.SuggestedRate = r.Pricing.FeePercent
	d.ImpliedAPR = r.Pricing.ImpliedAPR
	d.Decision = r.Decision
	d.AIExplanation = strings.Join(r.Explanation, ". ") + "."
	d.ScoreExplanation = append([]string(nil), r.Explanation...)
	d.AssumptionsUsed = append([]string{}, r.AssumptionsUsed...)
	d.ScoreComponents = c
}

func taxOn(amount float64) float64 {
	return decimal.NewFromFloat(amount).Mul(TaxRate).Round(0).InexactFloat64()
}

func (s *Service) getDeal(ctx context.Context, id string) (*store.Deal, error) {
	deal, err := s.store.GetDeal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deal %s: %w", id, err)
	}
	if deal == nil {
		return nil, fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	return deal, nil
}

func (s *Service) getSME(ctx context.Context, id string) (*store.SME, error) {
	sme, err := s.store.GetSME(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sme %s: %w", id, err)
	}
	if sme == nil {
		return nil, fmt.Errorf("sme %s: %w", id, ErrNotFound)
	}
	return sme, nil
}

// audit records an entry. A failed write is logged; the action it describes
// has already been persisted.
func (s *Service) audit(ctx context.Context, actor Actor, action, resourceType, resourceID, details string) {
	entry := &store.AuditLog{
		ID:           "log-" + uuid.NewString(),
		Timestamp:    s.now().UTC(),
		UserID:       actor.ID,
		UserName:     actor.Name,
		UserRole:     actor.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    actor.IPAddress,
	}
	if entry.UserName == "" {
		entry.UserName = actor.ID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = DefaultIPAddress
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Error("failed to append audit log", "action", action, "resource_id", resourceID, "error", err)
	}
}

func (s *Service) publish(subject string, data interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
