package scoring

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Decision thresholds. A score at or above ApproveThreshold approves; at or
// above RequestDocsThreshold asks for more documents; anything lower rejects.
const (
	ApproveThreshold     = 75
	RequestDocsThreshold = 55
)

// Fee band in percent of invoice face value.
const (
	MinFeePercent = 1.5
	MaxFeePercent = 6.0
)

// Maximum points per component. They sum to 100.
const (
	MaxPayerPoints         = 30
	MaxDocPoints           = 20
	MaxTimelinePoints      = 15
	MaxAmountPoints        = 15
	MaxConcentrationPoints = 10
	MaxDisputePoints       = 10
)

// Values used when an optional input is absent.
const (
	DefaultDocCompleteness   = 50.0
	DefaultConcentrationRisk = 30.0
	DefaultDisputeRate       = 5.0
	DefaultSMESizeBand       = SizeSmall
)

// Policy holds the tunable decision and pricing constants. Component scoring
// math is fixed and not part of the policy.
type Policy struct {
	ApproveAt     int     `json:"approve_at" yaml:"approve_at"`
	RequestDocsAt int     `json:"request_docs_at" yaml:"request_docs_at"`
	MinFeePercent float64 `json:"min_fee_percent" yaml:"min_fee_percent"`
	MaxFeePercent float64 `json:"max_fee_percent" yaml:"max_fee_percent"`
}

// DefaultPolicy returns the production thresholds and fee band.
func DefaultPolicy() Policy {
	return Policy{
		ApproveAt:     ApproveThreshold,
		RequestDocsAt: RequestDocsThreshold,
		MinFeePercent: MinFeePercent,
		MaxFeePercent: MaxFeePercent,
	}
}

// Validate checks that the bands are ordered and inside the score range.
func (p Policy) Validate() error {
	if p.RequestDocsAt < 0 || p.ApproveAt > 100 {
		return fmt.Errorf("thresholds must lie in [0,100], got request_docs=%d approve=%d", p.RequestDocsAt, p.ApproveAt)
	}
	if p.RequestDocsAt >= p.ApproveAt {
		return fmt.Errorf("request_docs threshold %d must be below approve threshold %d", p.RequestDocsAt, p.ApproveAt)
	}
	if math.IsNaN(p.MinFeePercent) || math.IsNaN(p.MaxFeePercent) || p.MinFeePercent <= 0 {
		return fmt.Errorf("min fee must be positive, got %v", p.MinFeePercent)
	}
	if p.MinFeePercent >= p.MaxFeePercent {
		return fmt.Errorf("min fee %.2f must be below max fee %.2f", p.MinFeePercent, p.MaxFeePercent)
	}
	return nil
}

// Decide maps a score onto a decision. Bands are inclusive at their lower bound.
func (p Policy) Decide(score int) Decision {
	switch {
	case score >= p.ApproveAt:
		return DecisionApprove
	case score >= p.RequestDocsAt:
		return DecisionRequestDocs
	default:
		return DecisionReject
	}
}

// Price maps a score onto a fee, linear and inverse across the fee band, and
// annualizes it over the invoice horizon as simple interest.
func (p Policy) Price(score, daysToDue int) Pricing {
	ceiling := decimalFromFloat(p.MaxFeePercent)
	band := ceiling.Sub(decimalFromFloat(p.MinFeePercent))
	raw := ceiling.Sub(decimal.NewFromInt(int64(score)).Div(hundred).Mul(band))
	fee := clamp(roundTo(raw, 2), p.MinFeePercent, p.MaxFeePercent)

	days := max(daysToDue, 1)
	apr := roundTo(decimalFromFloat(fee).Mul(daysPerYear).Div(decimal.NewFromInt(int64(days))), 2)
	return Pricing{FeePercent: fee, ImpliedAPR: apr}
}
