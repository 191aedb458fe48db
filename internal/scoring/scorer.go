package scoring

import (
	"fmt"
	"math"
	"strconv"
)

// Decision is the underwriting outcome for an invoice.
type Decision string

const (
	DecisionApprove     Decision = "APPROVE"
	DecisionRequestDocs Decision = "REQUEST_DOCS"
	DecisionReject      Decision = "REJECT"
)

// SMESizeBand describes the submitting SME. It is carried for disclosure only
// and never changes the score.
type SMESizeBand string

const (
	SizeMicro  SMESizeBand = "micro"
	SizeSmall  SMESizeBand = "small"
	SizeMedium SMESizeBand = "medium"
)

func (b SMESizeBand) Valid() bool {
	return b == SizeMicro || b == SizeSmall || b == SizeMedium
}

// Inputs are the invoice and payer attributes a score is computed from.
// Pointer fields are optional; nil (or NaN) resolves to a disclosed default.
type Inputs struct {
	InvoiceAmount     float64     `json:"invoice_amount"`
	DaysToDue         int         `json:"days_to_due"`
	PayerName         string      `json:"payer_name"`
	PayerTier         PayerTier   `json:"payer_tier,omitempty"`
	DocCompleteness   *float64    `json:"doc_completeness,omitempty"`
	ConcentrationRisk *float64    `json:"concentration_risk,omitempty"`
	SMESizeBand       SMESizeBand `json:"sme_size_band,omitempty"`
	DisputeRate       *float64    `json:"dispute_rate,omitempty"`
}

type Pricing struct {
	FeePercent float64 `json:"fee_percent"`
	ImpliedAPR float64 `json:"implied_apr"`
}

// Components holds the six sub-scores by name.
type Components struct {
	PayerScore  int `json:"payer_score"`
	DocScore    int `json:"doc_score"`
	TimeScore   int `json:"time_score"`
	AmountScore int `json:"amount_score"`
	ConcScore   int `json:"conc_score"`
	DispScore   int `json:"disp_score"`
}

// Sum returns the unclamped total of all six components.
func (c Components) Sum() int {
	return c.PayerScore + c.DocScore + c.TimeScore + c.AmountScore + c.ConcScore + c.DispScore
}

// Result is the complete, immutable output of one scoring call.
type Result struct {
	Score           int              `json:"score"`
	Decision        Decision         `json:"decision"`
	Pricing         Pricing          `json:"pricing"`
	Explanation     []string         `json:"explanation"`
	AssumptionsUsed []string         `json:"assumptions_used"`
	Components      Components       `json:"components"`
	Breakdown       []ComponentScore `json:"breakdown"`
}

// Scorer turns Inputs into a Result. It holds only immutable configuration and
// is safe for concurrent use.
type Scorer struct {
	policy Policy
	payers PayerDirectory
}

// NewScorer creates a Scorer with the given policy and payer directory.
func NewScorer(policy Policy, payers PayerDirectory) *Scorer {
	return &Scorer{policy: policy, payers: payers}
}

// DefaultScorer uses DefaultPolicy and DefaultPayerDirectory.
func DefaultScorer() *Scorer {
	return NewScorer(DefaultPolicy(), DefaultPayerDirectory())
}

func (s *Scorer) Policy() Policy { return s.policy }

func (s *Scorer) Payers() PayerDirectory { return s.payers }

var defaultScorer = DefaultScorer()

// ScoreInvoice scores with the default policy and payer directory.
func ScoreInvoice(in Inputs) Result {
	return defaultScorer.Score(in)
}

// Score computes the full result. It never fails: absent inputs are
// defaulted and disclosed, out-of-range inputs are clamped.
func (s *Scorer) Score(in Inputs) Result {
	var assumptions []string

	tier := in.PayerTier
	if !tier.Valid() {
		tier = s.payers.Infer(in.PayerName)
		assumptions = append(assumptions, fmt.Sprintf("Payer tier inferred as %q from name (no verified tier provided)", tier))
	}

	docCompleteness, docDefaulted := resolvePercent(in.DocCompleteness, DefaultDocCompleteness)
	if docDefaulted {
		assumptions = append(assumptions, fmt.Sprintf("Document completeness assumed %s (no documents uploaded)", formatPercent(DefaultDocCompleteness)))
	}

	concentration, concDefaulted := resolvePercent(in.ConcentrationRisk, DefaultConcentrationRisk)
	if concDefaulted {
		assumptions = append(assumptions, fmt.Sprintf("Concentration risk assumed %s (default for new SMEs)", formatPercent(DefaultConcentrationRisk)))
	}

	disputeRate, dispDefaulted := resolvePercent(in.DisputeRate, DefaultDisputeRate)
	if dispDefaulted {
		assumptions = append(assumptions, fmt.Sprintf("Dispute rate assumed %s (industry average)", formatPercent(DefaultDisputeRate)))
	}

	if !in.SMESizeBand.Valid() {
		assumptions = append(assumptions, fmt.Sprintf("SME size assumed %s (no profile data)", strconv.Quote(string(DefaultSMESizeBand))))
	}

	days := max(in.DaysToDue, 1)

	breakdown := []ComponentScore{
		PayerComponent(tier),
		DocumentComponent(docCompleteness),
		TimelineComponent(days),
		AmountComponent(in.InvoiceAmount),
		ConcentrationComponent(concentration),
		DisputeComponent(disputeRate),
	}
	breakdown[0].Defaulted = !in.PayerTier.Valid()
	breakdown[1].Defaulted = docDefaulted
	breakdown[4].Defaulted = concDefaulted
	breakdown[5].Defaulted = dispDefaulted

	components := Components{
		PayerScore:  breakdown[0].Points,
		DocScore:    breakdown[1].Points,
		TimeScore:   breakdown[2].Points,
		AmountScore: breakdown[3].Points,
		ConcScore:   breakdown[4].Points,
		DispScore:   breakdown[5].Points,
	}

	explanation := make([]string, len(breakdown))
	for i, c := range breakdown {
		explanation[i] = c.Explanation()
	}

	score := min(max(components.Sum(), 0), 100)

	if assumptions == nil {
		assumptions = []string{}
	}
	return Result{
		Score:           score,
		Decision:        s.policy.Decide(score),
		Pricing:         s.policy.Price(score, days),
		Explanation:     explanation,
		AssumptionsUsed: assumptions,
		Components:      components,
		Breakdown:       breakdown,
	}
}

func resolvePercent(v *float64, def float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) {
		return def, true
	}
	return *v, false
}
