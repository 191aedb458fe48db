package deals

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Credia/internal/hermes"
	"github.com/MikeSquared-Agency/Credia/internal/metrics"
	"github.com/MikeSquared-Agency/Credia/internal/scoring"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

// MinRateFloor is the lowest rate an admin may set, whatever the suggestion.
const MinRateFloor = 0.5

// RateBand is the inclusive range an admin may price a deal within.
type RateBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewRateBand allows one point below and two points above the suggested rate.
func NewRateBand(suggested float64) RateBand {
	d := decimal.NewFromFloat(suggested)
	lo := d.Sub(decimal.NewFromInt(1)).InexactFloat64()
	return RateBand{
		Min: max(lo, MinRateFloor),
		Max: d.Add(decimal.NewFromInt(2)).InexactFloat64(),
	}
}

func (b RateBand) Contains(rate float64) bool {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return false
	}
	return rate >= b.Min && rate <= b.Max
}

func (s *Service) checkRate(deal *store.Deal, rate float64) error {
	band := NewRateBand(deal.SuggestedRate)
	if !band.Contains(rate) {
		return fmt.Errorf("rate %v for deal %s not in [%v, %v]: %w", rate, deal.ID, band.Min, band.Max, ErrRateOutOfRange)
	}
	return nil
}

func requireStatus(deal *store.Deal, action string, allowed ...store.DealStatus) error {
	for _, st := range allowed {
		if deal.Status == st {
			return nil
		}
	}
	return fmt.Errorf("%s deal %s in status %s: %w", action, deal.ID, deal.Status, ErrInvalidTransition)
}

// transition persists the status change and records the metric and event.
func (s *Service) transition(ctx context.Context, actor Actor, deal *store.Deal, to store.DealStatus, subject, reason string) error {
	from := deal.Status
	deal.Status = to
	deal.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateDeal(ctx, deal); err != nil {
		deal.Status = from
		return fmt.Errorf("update deal %s: %w", deal.ID, err)
	}
	metrics.ObserveTransition(string(from), string(to))

	s.publish(subject, hermes.DealTransitionEvent{
		DealID:     deal.ID,
		From:       string(from),
		To:         string(to),
		ActorID:    actor.ID,
		Rate:       deal.FinalRate,
		Reason:     reason,
		OccurredAt: deal.UpdatedAt,
	})
	s.logger.Info("deal transitioned", "deal_id", deal.ID, "from", from, "to", to, "actor", actor.ID)
	return nil
}

// Approve accepts a deal at rate. A nil rate keeps an earlier override, or the
// suggested rate when there is none.
func (s *Service) Approve(ctx context.Context, actor Actor, id string, rate *float64) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(deal, "approve", store.DealPendingReview, store.DealDocsRequested); err != nil {
		return nil, err
	}
	final := deal.SuggestedRate
	if deal.FinalRate != nil {
		final = *deal.FinalRate
	}
	if rate != nil {
		if err := s.checkRate(deal, *rate); err != nil {
			return nil, err
		}
		final = *rate
	}
	deal.FinalRate = &final

	if err := s.transition(ctx, actor, deal, store.DealApproved, hermes.SubjectDealApproved(deal.ID), ""); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "DEAL_APPROVED", "deal", deal.ID,
		fmt.Sprintf("Approved deal %s for %s. Rate: %s", deal.InvoiceNumber, deal.SMEName, formatRate(final)))
	return deal, nil
}

func (s *Service) Reject(ctx context.Context, actor Actor, id, reason string) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(deal, "reject", store.DealPendingReview, store.DealDocsRequested); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, deal, store.DealRejected, hermes.SubjectDealRejected(deal.ID), reason); err != nil {
		return nil, err
	}
	s.releaseActiveDeal(ctx, deal.SMEID)
	s.audit(ctx, actor, "DEAL_REJECTED", "deal", deal.ID,
		fmt.Sprintf("Rejected deal %s. Reason: %s", deal.InvoiceNumber, reason))
	return deal, nil
}

// RequestDocs asks the SME for more documents. The message is relayed in the
// event and the audit trail.
func (s *Service) RequestDocs(ctx context.Context, actor Actor, id, message string) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(deal, "request docs for", store.DealPendingReview); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, deal, store.DealDocsRequested, hermes.SubjectDealDocsRequested(deal.ID), message); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "DOCS_REQUESTED", "deal", deal.ID,
		fmt.Sprintf("Requested docs for %s from %s. Message: %s", deal.InvoiceNumber, deal.SMEName, message))
	return deal, nil
}

// OverrideRate reprices an open deal without changing its status.
func (s *Service) OverrideRate(ctx context.Context, actor Actor, id string, rate float64, reason string) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if deal.Status.Closed() {
		return nil, fmt.Errorf("override rate on deal %s in status %s: %w", deal.ID, deal.Status, ErrInvalidTransition)
	}
	if err := s.checkRate(deal, rate); err != nil {
		return nil, err
	}

	previous := deal.SuggestedRate
	if deal.FinalRate != nil {
		previous = *deal.FinalRate
	}
	deal.FinalRate = &rate
	deal.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateDeal(ctx, deal); err != nil {
		return nil, fmt.Errorf("update deal %s: %w", deal.ID, err)
	}

	s.publish(hermes.SubjectDealRateOverridden(deal.ID), hermes.DealTransitionEvent{
		DealID:     deal.ID,
		From:       string(deal.Status),
		To:         string(deal.Status),
		ActorID:    actor.ID,
		Rate:       deal.FinalRate,
		Reason:     reason,
		OccurredAt: deal.UpdatedAt,
	})

	details := fmt.Sprintf("Manual rate override from %s to %s", formatRate(previous), formatRate(rate))
	if reason != "" {
		details += " for " + reason
	}
	s.audit(ctx, actor, "RATE_OVERRIDE", "deal", deal.ID, details)
	s.logger.Info("deal rate overridden", "deal_id", deal.ID, "from", previous, "to", rate, "actor", actor.ID)
	return deal, nil
}

// Fund disburses an approved deal and credits the SME's funded total.
func (s *Service) Fund(ctx context.Context, actor Actor, id string) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(deal, "fund", store.DealApproved); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, deal, store.DealFunded, hermes.SubjectDealFunded(deal.ID), ""); err != nil {
		return nil, err
	}

	if sme, err := s.getSME(ctx, deal.SMEID); err != nil {
		s.logger.Error("failed to load sme for funding", "sme_id", deal.SMEID, "error", err)
	} else {
		sme.TotalFunded = decimal.NewFromFloat(sme.TotalFunded).Add(decimal.NewFromFloat(deal.Amount)).InexactFloat64()
		sme.LastActivity = deal.UpdatedAt
		if err := s.store.UpdateSME(ctx, sme); err != nil {
			s.logger.Error("failed to credit sme funded total", "sme_id", sme.ID, "error", err)
		}
	}

	rate := deal.SuggestedRate
	if deal.FinalRate != nil {
		rate = *deal.FinalRate
	}
	s.audit(ctx, actor, "DEAL_FUNDED", "deal", deal.ID,
		fmt.Sprintf("Deal %s funded. Amount: %s. Rate: %s", deal.InvoiceNumber, scoring.FormatEuro(deal.Amount), formatRate(rate)))
	return deal, nil
}

// MarkPaid closes a funded deal once the payer has settled.
func (s *Service) MarkPaid(ctx context.Context, actor Actor, id string) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(deal, "mark paid", store.DealFunded); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, deal, store.DealPaid, hermes.SubjectDealPaid(deal.ID), ""); err != nil {
		return nil, err
	}
	s.releaseActiveDeal(ctx, deal.SMEID)
	s.audit(ctx, actor, "DEAL_PAID", "deal", deal.ID,
		fmt.Sprintf("Deal %s paid by %s", deal.InvoiceNumber, deal.PayerName))
	return deal, nil
}

// SendPayerNotice notifies the payer of the assignment. The deal is unchanged.
func (s *Service) SendPayerNotice(ctx context.Context, actor Actor, id string) (*store.Deal, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(deal, "send payer notice for", store.DealApproved, store.DealFunded); err != nil {
		return nil, err
	}

	s.publish(hermes.SubjectDealPayerNotice(deal.ID), hermes.PayerNoticeEvent{
		DealID:        deal.ID,
		InvoiceNumber: deal.InvoiceNumber,
		PayerName:     deal.PayerName,
		ActorID:       actor.ID,
		SentAt:        s.now().UTC(),
	})
	s.audit(ctx, actor, "PAYER_NOTICE_SENT", "deal", deal.ID,
		fmt.Sprintf("Payer notice sent to %s for deal %s", deal.PayerName, deal.InvoiceNumber))
	return deal, nil
}

// DealExplanation is the stored scoring snapshot of a deal.
type DealExplanation struct {
	DealID          string             `json:"deal_id"`
	Score           int                `json:"score"`
	Decision        scoring.Decision   `json:"decision"`
	Pricing         scoring.Pricing    `json:"pricing"`
	FinalRate       *float64           `json:"final_rate,omitempty"`
	RateBand        RateBand           `json:"rate_band"`
	Explanation     []string           `json:"explanation"`
	AssumptionsUsed []string           `json:"assumptions_used"`
	Components      scoring.Components `json:"components"`
}

// Explain returns the frozen score snapshot. It never re-scores.
func (s *Service) Explain(ctx context.Context, id string) (*DealExplanation, error) {
	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DealExplanation{
		DealID:          deal.ID,
		Score:           deal.AIScore,
		Decision:        deal.Decision,
		Pricing:         scoring.Pricing{FeePercent: deal.SuggestedRate, ImpliedAPR: deal.ImpliedAPR},
		FinalRate:       deal.FinalRate,
		RateBand:        NewRateBand(deal.SuggestedRate),
		Explanation:     deal.ScoreExplanation,
		AssumptionsUsed: deal.AssumptionsUsed,
		Components:      deal.ScoreComponents,
	}, nil
}

func (s *Service) releaseActiveDeal(ctx context.Context, smeID string) {
	sme, err := s.getSME(ctx, smeID)
	if err != nil {
		s.logger.Warn("failed to load sme", "sme_id", smeID, "error", err)
		return
	}
	if sme.ActiveDeals > 0 {
		sme.ActiveDeals--
	}
	sme.LastActivity = s.now().UTC()
	if err := s.store.UpdateSME(ctx, sme); err != nil {
		s.logger.Error("failed to update sme active deals", "sme_id", sme.ID, "error", err)
	}
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}
