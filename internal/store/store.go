package store

import (
	"context"
	"errors"
	"time"

	"github.com/MikeSquared-Agency/Credia/internal/extraction"
	"github.com/MikeSquared-Agency/Credia/internal/scoring"
)

// ErrNotFound is returned by Update* when the record does not exist. Get*
// returns (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

type DealStatus string

const (
	DealPendingReview DealStatus = "pending_review"
	DealDocsRequested DealStatus = "docs_requested"
	DealApproved      DealStatus = "approved"
	DealRejected      DealStatus = "rejected"
	DealFunded        DealStatus = "funded"
	DealPaid          DealStatus = "paid"
)

// AllDealStatuses lists every status in lifecycle order.
var AllDealStatuses = []DealStatus{
	DealPendingReview, DealDocsRequested, DealApproved, DealRejected, DealFunded, DealPaid,
}

func (s DealStatus) Valid() bool {
	for _, v := range AllDealStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Closed reports whether the deal has reached a terminal status.
func (s DealStatus) Closed() bool {
	return s == DealRejected || s == DealPaid
}

type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// ExtractedSummary is the invoice detail shown on the admin deal page.
type ExtractedSummary struct {
	InvoiceDate string     `json:"invoice_date"`
	LineItems   []LineItem `json:"line_items"`
	TaxAmount   float64    `json:"tax_amount"`
	TotalAmount float64    `json:"total_amount"`
}

// Deal is a submitted invoice. Score fields are frozen at submission.
type Deal struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	SMEID         string     `json:"sme_id"`
	SMEName       string     `json:"sme_name"`
	PayerName     string     `json:"payer_name"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	DueDate       string     `json:"due_date"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Status        DealStatus `json:"status"`

	// Scoring snapshot
	AIScore             int                `json:"ai_score"`
	InvoiceRiskScore    int                `json:"invoice_risk_score"`
	PayerRiskScore      int                `json:"payer_risk_score"`
	SMEReliabilityScore int                `json:"sme_reliability_score"`
	SuggestedRate       float64            `json:"suggested_rate"`
	ImpliedAPR          float64            `json:"implied_apr"`
	FinalRate           *float64           `json:"final_rate,omitempty"`
	Decision            scoring.Decision   `json:"decision"`
	AIExplanation       string             `json:"ai_explanation"`
	ScoreExplanation    []string           `json:"score_explanation"`
	AssumptionsUsed     []string           `json:"assumptions_used"`
	ScoreComponents     scoring.Components `json:"score_components"`

	ExtractedFields     ExtractedSummary   `json:"extracted_fields"`
	SimulatedExtraction *extraction.Fields `json:"simulated_extraction,omitempty"`
}

type KYBStatus string

const (
	KYBPending   KYBStatus = "pending"
	KYBVerified  KYBStatus = "verified"
	KYBRejected  KYBStatus = "rejected"
	KYBSuspended KYBStatus = "suspended"
)

type SME struct {
	ID                  string    `json:"id"`
	CompanyName         string    `json:"company_name"`
	Email               string    `json:"email"`
	RegistrationNumber  string    `json:"registration_number"`
	Country             string    `json:"country"`
	ProfileCompleteness int       `json:"profile_completeness"`
	KYBStatus           KYBStatus `json:"kyb_status"`
	TotalFunded         float64   `json:"total_funded"`
	ActiveDeals         int       `json:"active_deals"`
	JoinedAt            string    `json:"joined_at"`
	LastActivity        time.Time `json:"last_activity"`
	RiskTier            string    `json:"risk_tier"`
}

// Payer is a registry entry. A registered payer's tier and dispute rate take
// precedence over inference and defaults at submission.
type Payer struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Tier        scoring.PayerTier `json:"tier"`
	Country     string            `json:"country"`
	DisputeRate float64           `json:"dispute_rate"`
}

type Role string

const (
	RoleSME   Role = "SME"
	RoleAdmin Role = "ADMIN"
)

type AuditLog struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserRole     Role      `json:"user_role"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	IPAddress    string    `json:"ip_address"`
}

type DealFilter struct {
	Status *DealStatus
	SMEID  string
	Limit  int
}

type AuditFilter struct {
	ResourceType string
	ResourceID   string
	Action       string
	Limit        int
}

type DealStats struct {
	TotalDeals    int                `json:"total_deals"`
	ByStatus      map[DealStatus]int `json:"by_status"`
	FundedVolume  float64            `json:"funded_volume"`
	ActiveSMEs    int                `json:"active_smes"`
	TotalSMEs     int                `json:"total_smes"`
	HighRiskDeals int                `json:"high_risk_deals"`
	AverageScore  float64            `json:"average_score"`
}

// HighRiskScore is the score below which a deal counts as high risk.
const HighRiskScore = 50

type Store interface {
	// Deals
	CreateDeal(ctx context.Context, deal *Deal) error
	GetDeal(ctx context.Context, id string) (*Deal, error)
	ListDeals(ctx context.Context, filter DealFilter) ([]*Deal, error)
	UpdateDeal(ctx context.Context, deal *Deal) error

	// SMEs
	CreateSME(ctx context.Context, sme *SME) error
	GetSME(ctx context.Context, id string) (*SME, error)
	ListSMEs(ctx context.Context) ([]*SME, error)
	UpdateSME(ctx context.Context, sme *SME) error

	// Payers
	UpsertPayer(ctx context.Context, payer *Payer) error
	GetPayerByName(ctx context.Context, name string) (*Payer, error)
	ListPayers(ctx context.Context) ([]*Payer, error)

	// Audit
	AppendAudit(ctx context.Context, entry *AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*AuditLog, error)

	GetStats(ctx context.Context) (*DealStats, error)

	// Reset removes every record.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
