package deals

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Credia/internal/extraction"
	"github.com/MikeSquared-Agency/Credia/internal/hermes"
	"github.com/MikeSquared-Agency/Credia/internal/scoring"
	"github.com/MikeSquared-Agency/Credia/internal/store"
)

type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	args := m.Called(subject, handler)
	return args.Error(0)
}

func (m *MockHermes) Close() {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 2, 6, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *MockHermes) {
	t.Helper()
	st := store.NewMemoryStore()
	mh := &MockHermes{}
	mh.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := New(st, mh, scoring.DefaultScorer(), discardLogger(), WithClock(fixedClock))
	require.NoError(t, svc.EnsureSeeded(context.Background()))
	return svc, st, mh
}

func TestSubmit_ScoresAndPersists(t *testing.T) {
	svc, st, mh := newTestService(t)
	ctx := context.Background()

	deal, err := svc.Submit(ctx, Actor{}, SubmitRequest{
		InvoiceAmount: 45000,
		DaysToDue:     38,
		PayerName:     "Siemens AG",
		SMEID:         "sme-001",
		FileName:      "invoice.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2024-3543", deal.InvoiceNumber)
	assert.Equal(t, "2024-03-15", deal.DueDate)
	assert.Equal(t, "EUR", deal.Currency)
	assert.Equal(t, store.DealPendingReview, deal.Status)
	assert.Equal(t, "TechFlow Solutions", deal.SMEName)

	// Registered payer: tier A and 2% disputes. Completeness 85 from the
	// simulated flags, concentration defaulted.
	assert.Equal(t, 88, deal.AIScore)
	assert.Equal(t, scoring.DecisionApprove, deal.Decision)
	assert.Equal(t, 2.04, deal.SuggestedRate)
	assert.Equal(t, 19.59, deal.ImpliedAPR)
	assert.Equal(t, 17+12+14, deal.InvoiceRiskScore)
	assert.Equal(t, 28+7, deal.PayerRiskScore)
	assert.Equal(t, 100, deal.SMEReliabilityScore)
	assert.Len(t, deal.AssumptionsUsed, 2)
	assert.Equal(t, 8550.0, deal.ExtractedFields.TaxAmount)
	assert.Equal(t, "Invoice to Siemens AG", deal.ExtractedFields.LineItems[0].Description)
	require.NotNil(t, deal.SimulatedExtraction)
	assert.False(t, deal.SimulatedExtraction.Flags.DeliveryNotePresent)
	assert.Equal(t, "Payer quality (A-tier): 28/30. Document completeness (85%): 17/20. Payment timeline (38d): 12/15. "+
		"Invoice amount (€45,000): 14/15. Concentration risk (30%): 7/10. Dispute rate (2%): 10/10.", deal.AIExplanation)

	stored, err := st.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, deal.AIScore, stored.AIScore)

	sme, _ := st.GetSME(ctx, "sme-001")
	assert.Equal(t, 3, sme.ActiveDeals)

	logs, err := st.ListAuditLogs(ctx, store.AuditFilter{ResourceID: deal.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "INVOICE_SUBMITTED", logs[0].Action)
	assert.Equal(t, "sme-001", logs[0].UserID)
	assert.Equal(t, store.RoleSME, logs[0].UserRole)
	assert.Equal(t, "127.0.0.1", logs[0].IPAddress)
	assert.Equal(t, "New invoice INV-2024-3543 submitted. Amount: €45,000. Score: 88. Decision: APPROVE.", logs[0].Details)

	mh.AssertCalled(t, "Publish", hermes.SubjectDealSubmitted(deal.ID), mock.AnythingOfType("hermes.DealSubmittedEvent"))
}

func TestSubmit_UnknownPayerIsInferred(t *testing.T) {
	svc, _, _ := newTestService(t)

	deal, err := svc.Submit(context.Background(), Actor{ID: "sme-002", Name: "Green Manufacturing Ltd", Role: store.RoleSME}, SubmitRequest{
		InvoiceAmount: 1002,
		DaysToDue:     10,
		PayerName:     "  Hooli ",
		SMEID:         "sme-002",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hooli", deal.PayerName)
	assert.Equal(t, "INV-2024-3149", deal.InvoiceNumber)
	// Hooli hashes into the C bucket; all four documents present.
	assert.Equal(t, 6, deal.ScoreComponents.PayerScore)
	assert.Equal(t, 20, deal.ScoreComponents.DocScore)
	assert.Equal(t, 8, deal.ScoreComponents.AmountScore)
	assert.Contains(t, deal.AssumptionsUsed[0], `inferred as "C"`)
}

func TestSubmit_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{"zero amount", SubmitRequest{InvoiceAmount: 0, PayerName: "Siemens AG", SMEID: "sme-001"}, ErrInvalidSubmission},
		{"negative amount", SubmitRequest{InvoiceAmount: -5, PayerName: "Siemens AG", SMEID: "sme-001"}, ErrInvalidSubmission},
		{"nan amount", SubmitRequest{InvoiceAmount: math.NaN(), PayerName: "Siemens AG", SMEID: "sme-001"}, ErrInvalidSubmission},
		{"inf amount", SubmitRequest{InvoiceAmount: math.Inf(1), PayerName: "Siemens AG", SMEID: "sme-001"}, ErrInvalidSubmission},
		{"blank payer", SubmitRequest{InvoiceAmount: 100, PayerName: "   ", SMEID: "sme-001"}, ErrInvalidSubmission},
		{"missing sme", SubmitRequest{InvoiceAmount: 100, PayerName: "Siemens AG"}, ErrInvalidSubmission},
		{"unknown sme", SubmitRequest{InvoiceAmount: 100, PayerName: "Siemens AG", SMEID: "sme-999"}, ErrInvalidSubmission},
		{"suspended sme", SubmitRequest{InvoiceAmount: 100, PayerName: "Siemens AG", SMEID: "sme-006"}, ErrSMESuspended},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), Actor{}, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSubmit_WithoutHermes(t *testing.T) {
	st := store.NewMemoryStore()
	svc := New(st, nil, nil, discardLogger(), WithClock(fixedClock))
	require.NoError(t, svc.EnsureSeeded(context.Background()))

	_, err := svc.Submit(context.Background(), Actor{}, SubmitRequest{
		InvoiceAmount: 34000, DaysToDue: 33, PayerName: "Deutsche Post", SMEID: "sme-004",
	})
	assert.NoError(t, err)
}

func TestSetupSubscriptions_SubmitsInvoice(t *testing.T) {
	svc, st, mh := newTestService(t)

	var handler func(string, []byte)
	mh.On("Subscribe", hermes.SubjectInvoiceSubmit, mock.Anything).
		Run(func(args mock.Arguments) { handler = args.Get(1).(func(string, []byte)) }).
		Return(nil)

	svc.SetupSubscriptions()
	require.NotNil(t, handler)

	payload, _ := json.Marshal(hermes.InvoiceSubmitEvent{
		InvoiceAmount: 78500, DaysToDue: 53, PayerName: "BASF SE", SMEID: "sme-002", FileName: "inv-0089.pdf",
	})
	handler(hermes.SubjectInvoiceSubmit, payload)
	handler(hermes.SubjectInvoiceSubmit, []byte("not json"))

	deals, err := st.ListDeals(context.Background(), store.DealFilter{SMEID: "sme-002"})
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "INV-2024-1975", deals[0].InvoiceNumber)
}

func TestPreScore(t *testing.T) {
	svc := New(store.NewMemoryStore(), nil, nil, discardLogger())
	docs := 100.0
	r := svc.PreScore(scoring.Inputs{InvoiceAmount: 45000, DaysToDue: 38, PayerName: "Siemens AG", DocCompleteness: &docs})
	assert.Equal(t, scoring.ScoreInvoice(scoring.Inputs{InvoiceAmount: 45000, DaysToDue: 38, PayerName: "Siemens AG", DocCompleteness: &docs}), r)
}

func TestExtract(t *testing.T) {
	svc := New(store.NewMemoryStore(), nil, nil, discardLogger(), WithClock(fixedClock))
	res := svc.Extract(extraction.Request{PayerName: "Hooli", InvoiceAmount: 1096, DaysToDue: 30})
	assert.Equal(t, "INV-2024-3723", res.Fields.InvoiceNumber)
	assert.Equal(t, 40, res.DocCompleteness)
}

func TestLookupPayerTier(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.LookupPayerTier(ctx, "startupxyz")
	require.NoError(t, err)
	assert.Equal(t, &TierLookup{PayerName: "StartupXYZ", Tier: scoring.TierC, Source: TierSourceRegistry}, got)

	got, err = svc.LookupPayerTier(ctx, "Globex")
	require.NoError(t, err)
	assert.Equal(t, &TierLookup{PayerName: "Globex", Tier: scoring.TierC, Source: TierSourceInferred}, got)
}
