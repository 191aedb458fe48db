package deals

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/Credia/internal/hermes"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

// SuspendSME blocks further submissions from the SME. Existing deals are left
// as they are.
func (s *Service) SuspendSME(ctx context.Context, actor Actor, id string) (*store.SME, error) {
	sme, err := s.getSME(ctx, id)
	if err != nil {
		return nil, err
	}
	if sme.KYBStatus == store.KYBSuspended {
		return nil, fmt.Errorf("suspend sme %s: already suspended: %w", id, ErrInvalidTransition)
	}
	if err := s.setKYBStatus(ctx, actor, sme, store.KYBSuspended, hermes.SubjectSMESuspended(sme.ID)); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "SME_SUSPENDED", "sme", sme.ID, "Suspended "+sme.CompanyName)
	return sme, nil
}

// ReactivateSME restores a suspended SME to verified.
func (s *Service) ReactivateSME(ctx context.Context, actor Actor, id string) (*store.SME, error) {
	sme, err := s.getSME(ctx, id)
	if err != nil {
		return nil, err
	}
	if sme.KYBStatus != store.KYBSuspended {
		return nil, fmt.Errorf("reactivate sme %s in status %s: %w", id, sme.KYBStatus, ErrInvalidTransition)
	}
	if err := s.setKYBStatus(ctx, actor, sme, store.KYBVerified, hermes.SubjectSMEReactivated(sme.ID)); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "SME_REACTIVATED", "sme", sme.ID, "Reactivated "+sme.CompanyName)
	return sme, nil
}

func (s *Service) setKYBStatus(ctx context.Context, actor Actor, sme *store.SME, status store.KYBStatus, subject string) error {
	sme.KYBStatus = status
	sme.LastActivity = s.now().UTC()
	if err := s.store.UpdateSME(ctx, sme); err != nil {
		return fmt.Errorf("update sme %s: %w", sme.ID, err)
	}
	s.publish(subject, hermes.SMEStatusEvent{
		SMEID:      sme.ID,
		KYBStatus:  string(status),
		ActorID:    actor.ID,
		OccurredAt: sme.LastActivity,
	})
	s.logger.Info("sme status changed", "sme_id", sme.ID, "kyb_status", status, "actor", actor.ID)
	return nil
}

func (s *Service) GetDeal(ctx context.Context, id string) (*store.Deal, error) {
	return s.getDeal(ctx, id)
}

func (s *Service) ListDeals(ctx context.Context, filter store.DealFilter) ([]*store.Deal, error) {
	deals, err := s.store.ListDeals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return deals, nil
}

func (s *Service) GetSME(ctx context.Context, id string) (*store.SME, error) {
	return s.getSME(ctx, id)
}

func (s *Service) ListSMEs(ctx context.Context) ([]*store.SME, error) {
	smes, err := s.store.ListSMEs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list smes: %w", err)
	}
	return smes, nil
}

func (s *Service) ListPayers(ctx context.Context) ([]*store.Payer, error) {
	payers, err := s.store.ListPayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payers: %w", err)
	}
	return payers, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, filter store.AuditFilter) ([]*store.AuditLog, error) {
	logs, err := s.store.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func (s *Service) Stats(ctx context.Context) (*store.DealStats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}
