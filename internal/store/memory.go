package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps every record in process memory. It is the default
// backend; state is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	deals  map[string]*Deal
	smes   map[string]*SME
	payers map[string]*Payer
	audit  []*AuditLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals:  make(map[string]*Deal),
		smes:   make(map[string]*SME),
		payers: make(map[string]*Payer),
	}
}

// --- Deals ---

func (s *MemoryStore) CreateDeal(_ context.Context, deal *Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[deal.ID]; ok {
		return fmt.Errorf("deal %s already exists", deal.ID)
	}
	s.deals[deal.ID] = cloneDeal(deal)
	return nil
}

func (s *MemoryStore) GetDeal(_ context.Context, id string) (*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deals[id]
	if !ok {
		return nil, nil
	}
	return cloneDeal(d), nil
}

func (s *MemoryStore) ListDeals(_ context.Context, filter DealFilter) ([]*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Deal
	for _, d := range s.deals {
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.SMEID != "" && d.SMEID != filter.SMEID {
			continue
		}
		out = append(out, cloneDeal(d))
	}
	slices.SortFunc(out, func(a, b *Deal) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateDeal(_ context.Context, deal *Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[deal.ID]; !ok {
		return fmt.Errorf("deal %s: %w", deal.ID, ErrNotFound)
	}
	s.deals[deal.ID] = cloneDeal(deal)
	return nil
}

// --- SMEs ---

func (s *MemoryStore) CreateSME(_ context.Context, sme *SME) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.smes[sme.ID]; ok {
		return fmt.Errorf("sme %s already exists", sme.ID)
	}
	c := *sme
	s.smes[sme.ID] = &c
	return nil
}

func (s *MemoryStore) GetSME(_ context.Context, id string) (*SME, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sme, ok := s.smes[id]
	if !ok {
		return nil, nil
	}
	c := *sme
	return &c, nil
}

func (s *MemoryStore) ListSMEs(_ context.Context) ([]*SME, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*SME, 0, len(s.smes))
	for _, sme := range s.smes {
		c := *sme
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *SME) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemoryStore) UpdateSME(_ context.Context, sme *SME) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.smes[sme.ID]; !ok {
		return fmt.Errorf("sme %s: %w", sme.ID, ErrNotFound)
	}
	c := *sme
	s.smes[sme.ID] = &c
	return nil
}

// --- Payers ---

func (s *MemoryStore) UpsertPayer(_ context.Context, payer *Payer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *payer
	s.payers[payer.ID] = &c
	return nil
}

func (s *MemoryStore) GetPayerByName(_ context.Context, name string) (*Payer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payers {
		if strings.EqualFold(p.Name, name) {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListPayers(_ context.Context) ([]*Payer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Payer, 0, len(s.payers))
	for _, p := range s.payers {
		c := *p
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *Payer) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// --- Audit ---

func (s *MemoryStore) AppendAudit(_ context.Context, entry *AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *entry
	s.audit = append(s.audit, &c)
	return nil
}

func (s *MemoryStore) ListAuditLogs(_ context.Context, filter AuditFilter) ([]*AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*AuditLog
	for _, e := range s.audit {
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	// Stable so entries sharing a timestamp keep newest-appended first.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b *AuditLog) int { return b.Timestamp.Compare(a.Timestamp) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// --- Stats ---

func (s *MemoryStore) GetStats(_ context.Context) (*DealStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &DealStats{ByStatus: make(map[DealStatus]int, len(AllDealStatuses))}
	for _, st := range AllDealStatuses {
		stats.ByStatus[st] = 0
	}
	var scoreSum int
	for _, d := range s.deals {
		stats.TotalDeals++
		stats.ByStatus[d.Status]++
		scoreSum += d.AIScore
		if d.Status == DealApproved || d.Status == DealFunded {
			stats.FundedVolume += d.Amount
		}
		if d.AIScore < HighRiskScore {
			stats.HighRiskDeals++
		}
	}
	if stats.TotalDeals > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.TotalDeals)
	}
	for _, sme := range s.smes {
		stats.TotalSMEs++
		if sme.KYBStatus == KYBVerified {
			stats.ActiveSMEs++
		}
	}
	return stats, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = make(map[string]*Deal)
	s.smes = make(map[string]*SME)
	s.payers = make(map[string]*Payer)
	s.audit = nil
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// cloneDeal copies the deal including its slices and pointers so callers
// never share state with the store.
func cloneDeal(d *Deal) *Deal {
	c := *d
	c.ScoreExplanation = slices.Clone(d.ScoreExplanation)
	c.AssumptionsUsed = slices.Clone(d.AssumptionsUsed)
	c.ExtractedFields.LineItems = slices.Clone(d.ExtractedFields.LineItems)
	if d.FinalRate != nil {
		r := *d.FinalRate
		c.FinalRate = &r
	}
	if d.SimulatedExtraction != nil {
		f := *d.SimulatedExtraction
		c.SimulatedExtraction = &f
	}
	return &c
}
