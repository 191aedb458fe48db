package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ComponentScore captures one component's contribution to the total score.
type ComponentScore struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Input     string `json:"input"`
	Points    int    `json:"points"`
	Max       int    `json:"max"`
	Defaulted bool   `json:"defaulted"`
}

// Explanation renders the component as a display line, e.g.
// "Payer quality (A-tier): 28/30".
func (c ComponentScore) Explanation() string {
	return fmt.Sprintf("%s (%s): %d/%d", c.Label, c.Input, c.Points, c.Max)
}

// --- Individual component calculators ---

// PayerComponent uses fixed calibration points per tier rather than a linear
// spread over the 30-point weight.
func PayerComponent(tier PayerTier) ComponentScore {
	var pts int
	switch tier {
	case TierA:
		pts = 28
	case TierB:
		pts = 18
	default:
		pts = 6
	}
	return ComponentScore{Name: "payer", Label: "Payer quality", Input: string(tier) + "-tier", Points: pts, Max: MaxPayerPoints}
}

// DocumentComponent scales completeness (percent) linearly onto 20 points.
func DocumentComponent(completeness float64) ComponentScore {
	pts := scaledPoints(clamp(completeness, 0, 100), MaxDocPoints)
	return ComponentScore{Name: "documents", Label: "Document completeness", Input: formatPercent(completeness), Points: pts, Max: MaxDocPoints}
}

// TimelineComponent is a step function rewarding short horizons. days must
// already be floored to 1.
func TimelineComponent(days int) ComponentScore {
	var pts int
	switch {
	case days <= 30:
		pts = 15
	case days <= 60:
		pts = 12
	case days <= 90:
		pts = 8
	default:
		pts = 4
	}
	return ComponentScore{Name: "timeline", Label: "Payment timeline", Input: strconv.Itoa(days) + "d", Points: pts, Max: MaxTimelinePoints}
}

// AmountComponent peaks for mid-sized invoices; both tails are penalized.
func AmountComponent(amount float64) ComponentScore {
	var pts int
	switch {
	case amount < 5_000:
		pts = 8
	case amount <= 50_000:
		pts = 14
	case amount <= 200_000:
		pts = 11
	default:
		pts = 7
	}
	return ComponentScore{Name: "amount", Label: "Invoice amount", Input: FormatEuro(amount), Points: pts, Max: MaxAmountPoints}
}

// ConcentrationComponent is inverse-linear in concentration risk (percent).
func ConcentrationComponent(risk float64) ComponentScore {
	pts := scaledPoints(100-clamp(risk, 0, 100), MaxConcentrationPoints)
	return ComponentScore{Name: "concentration", Label: "Concentration risk", Input: formatPercent(risk), Points: pts, Max: MaxConcentrationPoints}
}

// DisputeComponent is inverse-linear in the payer dispute rate (percent).
func DisputeComponent(rate float64) ComponentScore {
	pts := scaledPoints(100-clamp(rate, 0, 100), MaxDisputePoints)
	return ComponentScore{Name: "dispute", Label: "Dispute rate", Input: formatPercent(rate), Points: pts, Max: MaxDisputePoints}
}

// --- Arithmetic ---

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// decimalFromFloat maps non-finite values to zero; decimal.NewFromFloat
// panics on them.
func decimalFromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// roundTo rounds half away from zero on the exact decimal value. Every rounded
// quantity here is non-negative, so this is round-half-up.
func roundTo(d decimal.Decimal, places int32) float64 {
	return d.Round(places).InexactFloat64()
}

// scaledPoints returns round(pct/100 * maxPoints).
func scaledPoints(pct float64, maxPoints int) int {
	return int(decimalFromFloat(pct).Div(hundred).Mul(decimal.NewFromInt(int64(maxPoints))).Round(0).IntPart())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// --- Display formatting ---

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// FormatEuro groups thousands with commas and keeps at most three fraction
// digits: 45000 -> "€45,000", 1234.5 -> "€1,234.5".
func FormatEuro(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "€" + strconv.FormatFloat(amount, 'f', -1, 64)
	}
	s := decimal.NewFromFloat(math.Abs(amount)).Round(3).String()
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString("€")
	if amount < 0 && s != "0" {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(intPart))
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
