package scoring

import (
	"math"
	"testing"
)

func TestDefaultPolicyValid(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}
	if p.ApproveAt != ApproveThreshold || p.RequestDocsAt != RequestDocsThreshold {
		t.Errorf("unexpected thresholds %+v", p)
	}
}

func TestMaxPointsSumToHundred(t *testing.T) {
	sum := MaxPayerPoints + MaxDocPoints + MaxTimelinePoints + MaxAmountPoints + MaxConcentrationPoints + MaxDisputePoints
	if sum != 100 {
		t.Errorf("max points sum to %d, expected 100", sum)
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"inverted thresholds", func(p *Policy) { p.RequestDocsAt = 80 }},
		{"equal thresholds", func(p *Policy) { p.RequestDocsAt = p.ApproveAt }},
		{"approve above 100", func(p *Policy) { p.ApproveAt = 101 }},
		{"negative request docs", func(p *Policy) { p.RequestDocsAt = -1 }},
		{"zero min fee", func(p *Policy) { p.MinFeePercent = 0 }},
		{"inverted fee band", func(p *Policy) { p.MinFeePercent = 7 }},
		{"nan fee", func(p *Policy) { p.MaxFeePercent = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Errorf("expected validation error for %+v", p)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		score int
		want  Decision
	}{
		{100, DecisionApprove},
		{90, DecisionApprove},
		{75, DecisionApprove},
		{74, DecisionRequestDocs},
		{61, DecisionRequestDocs},
		{55, DecisionRequestDocs},
		{54, DecisionReject},
		{0, DecisionReject},
	}
	p := DefaultPolicy()
	for _, tt := range tests {
		if got := p.Decide(tt.score); got != tt.want {
			t.Errorf("Decide(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		score, days int
		fee, apr    float64
	}{
		{91, 38, 1.91, 18.35},
		{61, 22, 3.26, 54.09},
		{100, 1, 1.5, 547.50},
		{0, 0, 6, 2190.00},
		{75, 30, 2.63, 32.00},
		{93, 38, 1.82, 17.48},
		{82, 53, 2.31, 15.91},
		{57, 22, 3.44, 57.07},
		{0, -10, 6, 2190.00},
	}
	p := DefaultPolicy()
	for _, tt := range tests {
		got := p.Price(tt.score, tt.days)
		if got.FeePercent != tt.fee || got.ImpliedAPR != tt.apr {
			t.Errorf("Price(%d, %d) = %v/%v, want %v/%v", tt.score, tt.days, got.FeePercent, got.ImpliedAPR, tt.fee, tt.apr)
		}
	}
}

func TestPriceStaysInBand(t *testing.T) {
	p := DefaultPolicy()
	for score := 0; score <= 100; score++ {
		got := p.Price(score, 30)
		if got.FeePercent < p.MinFeePercent || got.FeePercent > p.MaxFeePercent {
			t.Errorf("score %d: fee %v outside [%v, %v]", score, got.FeePercent, p.MinFeePercent, p.MaxFeePercent)
		}
	}
}
