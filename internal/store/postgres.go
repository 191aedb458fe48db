package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Deals ---

const dealColumns = `id, invoice_number, sme_id, sme_name, payer_name,
	amount, currency, due_date, submitted_at, updated_at, status,
	ai_score, invoice_risk_score, payer_risk_score, sme_reliability_score,
	suggested_rate, implied_apr, final_rate, decision,
	ai_explanation, score_explanation, assumptions_used, score_components,
	extracted_fields, simulated_extraction`

// dealJSON holds the JSONB-encoded nested fields of a deal.
type dealJSON struct {
	explanation, assumptions, components, extracted, simulated []byte
}

func encodeDeal(d *Deal) (dealJSON, error) {
	var j dealJSON
	var err error
	explanation := d.ScoreExplanation
	if explanation == nil {
		explanation = []string{}
	}
	assumptions := d.AssumptionsUsed
	if assumptions == nil {
		assumptions = []string{}
	}
	if j.explanation, err = json.Marshal(explanation); err != nil {
		return j, fmt.Errorf("encode score_explanation: %w", err)
	}
	if j.assumptions, err = json.Marshal(assumptions); err != nil {
		return j, fmt.Errorf("encode assumptions_used: %w", err)
	}
	if j.components, err = json.Marshal(d.ScoreComponents); err != nil {
		return j, fmt.Errorf("encode score_components: %w", err)
	}
	if j.extracted, err = json.Marshal(d.ExtractedFields); err != nil {
		return j, fmt.Errorf("encode extracted_fields: %w", err)
	}
	if d.SimulatedExtraction != nil {
		if j.simulated, err = json.Marshal(d.SimulatedExtraction); err != nil {
			return j, fmt.Errorf("encode simulated_extraction: %w", err)
		}
	}
	return j, nil
}

func (s *PostgresStore) CreateDeal(ctx context.Context, d *Deal) error {
	j, err := encodeDeal(d)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO credia_deals (`+dealColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		d.ID, d.InvoiceNumber, d.SMEID, d.SMEName, d.PayerName,
		d.Amount, d.Currency, d.DueDate, d.SubmittedAt, d.UpdatedAt, d.Status,
		d.AIScore, d.InvoiceRiskScore, d.PayerRiskScore, d.SMEReliabilityScore,
		d.SuggestedRate, d.ImpliedAPR, d.FinalRate, d.Decision,
		d.AIExplanation, j.explanation, j.assumptions, j.components,
		j.extracted, j.simulated,
	)
	if err != nil {
		return fmt.Errorf("insert deal %s: %w", d.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetDeal(ctx context.Context, id string) (*Deal, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+dealColumns+` FROM credia_deals WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals, err := scanDeals(rows)
	if err != nil || len(deals) == 0 {
		return nil, err
	}
	return deals[0], nil
}

func (s *PostgresStore) ListDeals(ctx context.Context, filter DealFilter) ([]*Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM credia_deals WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.SMEID != "" {
		n++
		query += fmt.Sprintf(" AND sme_id = $%d", n)
		args = append(args, filter.SMEID)
	}

	query += " ORDER BY submitted_at DESC, id DESC"

	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

func (s *PostgresStore) UpdateDeal(ctx context.Context, d *Deal) error {
	j, err := encodeDeal(d)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE credia_deals SET
			invoice_number = $2, sme_id = $3, sme_name = $4, payer_name = $5,
			amount = $6, currency = $7, due_date = $8, submitted_at = $9, updated_at = $10, status = $11,
			ai_score = $12, invoice_risk_score = $13, payer_risk_score = $14, sme_reliability_score = $15,
			suggested_rate = $16, implied_apr = $17, final_rate = $18, decision = $19,
			ai_explanation = $20, score_explanation = $21, assumptions_used = $22, score_components = $23,
			extracted_fields = $24, simulated_extraction = $25
		WHERE id = $1`,
		d.ID, d.InvoiceNumber, d.SMEID, d.SMEName, d.PayerName,
		d.Amount, d.Currency, d.DueDate, d.SubmittedAt, d.UpdatedAt, d.Status,
		d.AIScore, d.InvoiceRiskScore, d.PayerRiskScore, d.SMEReliabilityScore,
		d.SuggestedRate, d.ImpliedAPR, d.FinalRate, d.Decision,
		d.AIExplanation, j.explanation, j.assumptions, j.components,
		j.extracted, j.simulated,
	)
	if err != nil {
		return fmt.Errorf("update deal %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deal %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

func scanDeals(rows pgx.Rows) ([]*Deal, error) {
	var deals []*Deal
	for rows.Next() {
		d := &Deal{}
		var j dealJSON
		if err := rows.Scan(
			&d.ID, &d.InvoiceNumber, &d.SMEID, &d.SMEName, &d.PayerName,
			&d.Amount, &d.Currency, &d.DueDate, &d.SubmittedAt, &d.UpdatedAt, &d.Status,
			&d.AIScore, &d.InvoiceRiskScore, &d.PayerRiskScore, &d.SMEReliabilityScore,
			&d.SuggestedRate, &d.ImpliedAPR, &d.FinalRate, &d.Decision,
			&d.AIExplanation, &j.explanation, &j.assumptions, &j.components,
			&j.extracted, &j.simulated,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(j.explanation, &d.ScoreExplanation); err != nil {
			return nil, fmt.Errorf("decode score_explanation: %w", err)
		}
		if err := json.Unmarshal(j.assumptions, &d.AssumptionsUsed); err != nil {
			return nil, fmt.Errorf("decode assumptions_used: %w", err)
		}
		if err := json.Unmarshal(j.components, &d.ScoreComponents); err != nil {
			return nil, fmt.Errorf("decode score_components: %w", err)
		}
		if err := json.Unmarshal(j.extracted, &d.ExtractedFields); err != nil {
			return nil, fmt.Errorf("decode extracted_fields: %w", err)
		}
		if j.simulated != nil {
			if err := json.Unmarshal(j.simulated, &d.SimulatedExtraction); err != nil {
				return nil, fmt.Errorf("decode simulated_extraction: %w", err)
			}
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// --- SMEs ---

const smeColumns = `id, company_name, email, registration_number, country,
	profile_completeness, kyb_status, total_funded, active_deals,
	joined_at, last_activity, risk_tier`

func (s *PostgresStore) CreateSME(ctx context.Context, sme *SME) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credia_smes (`+smeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sme.ID, sme.CompanyName, sme.Email, sme.RegistrationNumber, sme.Country,
		sme.ProfileCompleteness, sme.KYBStatus, sme.TotalFunded, sme.ActiveDeals,
		sme.JoinedAt, sme.LastActivity, sme.RiskTier,
	)
	if err != nil {
		return fmt.Errorf("insert sme %s: %w", sme.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetSME(ctx context.Context, id string) (*SME, error) {
	sme := &SME{}
	err := s.pool.QueryRow(ctx, `SELECT `+smeColumns+` FROM credia_smes WHERE id = $1`, id).Scan(
		&sme.ID, &sme.CompanyName, &sme.Email, &sme.RegistrationNumber, &sme.Country,
		&sme.ProfileCompleteness, &sme.KYBStatus, &sme.TotalFunded, &sme.ActiveDeals,
		&sme.JoinedAt, &sme.LastActivity, &sme.RiskTier,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sme, nil
}

func (s *PostgresStore) ListSMEs(ctx context.Context) ([]*SME, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+smeColumns+` FROM credia_smes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var smes []*SME
	for rows.Next() {
		sme := &SME{}
		if err := rows.Scan(
			&sme.ID, &sme.CompanyName, &sme.Email, &sme.RegistrationNumber, &sme.Country,
			&sme.ProfileCompleteness, &sme.KYBStatus, &sme.TotalFunded, &sme.ActiveDeals,
			&sme.JoinedAt, &sme.LastActivity, &sme.RiskTier,
		); err != nil {
			return nil, err
		}
		smes = append(smes, sme)
	}
	return smes, rows.Err()
}

func (s *PostgresStore) UpdateSME(ctx context.Context, sme *SME) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE credia_smes SET
			company_name = $2, email = $3, registration_number = $4, country = $5,
			profile_completeness = $6, kyb_status = $7, total_funded = $8, active_deals = $9,
			joined_at = $10, last_activity = $11, risk_tier = $12
		WHERE id = $1`,
		sme.ID, sme.CompanyName, sme.Email, sme.RegistrationNumber, sme.Country,
		sme.ProfileCompleteness, sme.KYBStatus, sme.TotalFunded, sme.ActiveDeals,
		sme.JoinedAt, sme.LastActivity, sme.RiskTier,
	)
	if err != nil {
		return fmt.Errorf("update sme %s: %w", sme.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sme %s: %w", sme.ID, ErrNotFound)
	}
	return nil
}

// --- Payers ---

func (s *PostgresStore) UpsertPayer(ctx context.Context, p *Payer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credia_payers (id, name, tier, country, dispute_rate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, tier = EXCLUDED.tier,
			country = EXCLUDED.country, dispute_rate = EXCLUDED.dispute_rate`,
		p.ID, p.Name, p.Tier, p.Country, p.DisputeRate,
	)
	if err != nil {
		return fmt.Errorf("upsert payer %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetPayerByName(ctx context.Context, name string) (*Payer, error) {
	p := &Payer{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, tier, country, dispute_rate
		FROM credia_payers WHERE lower(name) = lower($1)`, name,
	).Scan(&p.ID, &p.Name, &p.Tier, &p.Country, &p.DisputeRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) ListPayers(ctx context.Context) ([]*Payer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, tier, country, dispute_rate
		FROM credia_payers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payers []*Payer
	for rows.Next() {
		p := &Payer{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Tier, &p.Country, &p.DisputeRate); err != nil {
			return nil, err
		}
		payers = append(payers, p)
	}
	return payers, rows.Err()
}

// --- Audit ---

func (s *PostgresStore) AppendAudit(ctx context.Context, e *AuditLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credia_audit_log (id, timestamp, user_id, user_name, user_role,
			action, resource_type, resource_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Timestamp, e.UserID, e.UserName, e.UserRole,
		e.Action, e.ResourceType, e.ResourceID, e.Details, e.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("append audit %s: %w", e.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*AuditLog, error) {
	query := `SELECT id, timestamp, user_id, user_name, user_role,
		action, resource_type, resource_id, details, ip_address
		FROM credia_audit_log WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.ResourceType != "" {
		n++
		query += fmt.Sprintf(" AND resource_type = $%d", n)
		args = append(args, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		n++
		query += fmt.Sprintf(" AND resource_id = $%d", n)
		args = append(args, filter.ResourceID)
	}
	if filter.Action != "" {
		n++
		query += fmt.Sprintf(" AND action = $%d", n)
		args = append(args, filter.Action)
	}

	query += " ORDER BY timestamp DESC, seq DESC"

	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*AuditLog
	for rows.Next() {
		e := &AuditLog{}
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.UserID, &e.UserName, &e.UserRole,
			&e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.IPAddress,
		); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// --- Stats ---

func (s *PostgresStore) GetStats(ctx context.Context) (*DealStats, error) {
	stats := &DealStats{ByStatus: make(map[DealStatus]int, len(AllDealStatuses))}
	for _, st := range AllDealStatuses {
		stats.ByStatus[st] = 0
	}

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE status IN ('approved', 'funded')), 0),
			COUNT(*) FILTER (WHERE ai_score < $1),
			COALESCE(AVG(ai_score), 0)::float8
		FROM credia_deals`, HighRiskScore,
	).Scan(&stats.TotalDeals, &stats.FundedVolume, &stats.HighRiskDeals, &stats.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("deal totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM credia_deals GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("deal status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st DealStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE kyb_status = 'verified')
		FROM credia_smes`,
	).Scan(&stats.TotalSMEs, &stats.ActiveSMEs)
	if err != nil {
		return nil, fmt.Errorf("sme totals: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE credia_audit_log, credia_deals, credia_payers, credia_smes`)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
