package deals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Credia/internal/scoring"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

func TestEnsureSeeded_ScoresLive(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		id       string
		score    int
		decision scoring.Decision
		fee      float64
		status   store.DealStatus
	}{
		{"deal-001", 93, scoring.DecisionApprove, 1.82, store.DealPendingReview},
		{"deal-002", 82, scoring.DecisionApprove, 2.31, store.DealPendingReview},
		{"deal-003", 59, scoring.DecisionRequestDocs, 3.35, store.DealPendingReview},
		{"deal-004", 87, scoring.DecisionApprove, 2.09, store.DealApproved},
		{"deal-005", 93, scoring.DecisionApprove, 1.82, store.DealFunded},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			deal, err := st.GetDeal(ctx, tt.id)
			require.NoError(t, err)
			require.NotNil(t, deal)
			assert.Equal(t, tt.score, deal.AIScore)
			assert.Equal(t, tt.score, deal.ScoreComponents.Sum())
			assert.Equal(t, tt.decision, deal.Decision)
			assert.Equal(t, tt.fee, deal.SuggestedRate)
			assert.Equal(t, tt.status, deal.Status)
			assert.Equal(t, deal.SubmittedAt, deal.UpdatedAt)
			assert.Equal(t, "EUR", deal.Currency)
		})
	}

	deal, _ := st.GetDeal(ctx, "deal-004")
	require.NotNil(t, deal.FinalRate)
	assert.Equal(t, 1.77, *deal.FinalRate)
	assert.Contains(t, deal.ScoreExplanation, "Payment timeline (68d): 8/15")

	payers, _ := st.ListPayers(ctx)
	assert.Len(t, payers, 6)
	smes, _ := st.ListSMEs(ctx)
	assert.Len(t, smes, 6)
	logs, _ := st.ListAuditLogs(ctx, store.AuditFilter{})
	require.Len(t, logs, 10)
	assert.Equal(t, "log-001", logs[0].ID)
	assert.Equal(t, "log-010", logs[9].ID)

	// A second call leaves the store untouched.
	require.NoError(t, svc.EnsureSeeded(ctx))
	logs, _ = st.ListAuditLogs(ctx, store.AuditFilter{})
	assert.Len(t, logs, 10)
}

func TestReset_RestoresDemoData(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Fund(ctx, admin, "deal-004")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, Actor{}, SubmitRequest{InvoiceAmount: 5000, DaysToDue: 20, PayerName: "Globex", SMEID: "sme-005"})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))

	deals, err := st.ListDeals(ctx, store.DealFilter{})
	require.NoError(t, err)
	assert.Len(t, deals, 5)
	deal, _ := st.GetDeal(ctx, "deal-004")
	assert.Equal(t, store.DealApproved, deal.Status)
	sme, _ := st.GetSME(ctx, "sme-001")
	assert.Equal(t, 450000.0, sme.TotalFunded)
}
