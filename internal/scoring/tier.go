package scoring

import (
	"strings"

	"github.com/MikeSquared-Agency/Credia/internal/prng"
)

// PayerTier is a coarse payer-creditworthiness bucket, A best.
type PayerTier string

const (
	TierA PayerTier = "A"
	TierB PayerTier = "B"
	TierC PayerTier = "C"
)

// Valid reports whether t is one of the three known tiers.
func (t PayerTier) Valid() bool {
	return t == TierA || t == TierB || t == TierC
}

// DefaultTierAPayers are large, established payers.
var DefaultTierAPayers = []string{
	"siemens", "bmw", "deutsche post", "basf", "volkswagen", "mercedes",
	"bosch", "sap", "allianz", "daimler", "henkel", "bayer",
}

// DefaultTierBPayers are known mid-market payers.
var DefaultTierBPayers = []string{
	"midcorp", "europarts", "logisticsexp", "greenmanuf",
}

// PayerDirectory infers a tier from a payer name using two substring
// allow-lists and a stable hash fallback. The zero value has empty lists and
// relies on the hash alone.
type PayerDirectory struct {
	tierA []string
	tierB []string
}

// NewPayerDirectory copies and normalizes the allow-lists. Blank entries are
// dropped since they would match every name.
func NewPayerDirectory(tierA, tierB []string) PayerDirectory {
	return PayerDirectory{tierA: normalizeNames(tierA), tierB: normalizeNames(tierB)}
}

// DefaultPayerDirectory uses the built-in allow-lists.
func DefaultPayerDirectory() PayerDirectory {
	return NewPayerDirectory(DefaultTierAPayers, DefaultTierBPayers)
}

// TierA returns a copy of the tier-A allow-list.
func (d PayerDirectory) TierA() []string { return append([]string(nil), d.tierA...) }

// TierB returns a copy of the tier-B allow-list.
func (d PayerDirectory) TierB() []string { return append([]string(nil), d.tierB...) }

// Infer returns the tier for name. Unknown names hash into
// [0,25) A, [25,60) B, [60,100) C.
func (d PayerDirectory) Infer(name string) PayerTier {
	lower := strings.ToLower(strings.TrimSpace(name))
	if containsAny(lower, d.tierA) {
		return TierA
	}
	if containsAny(lower, d.tierB) {
		return TierB
	}

	switch h := prng.HashString(lower) % 100; {
	case h < 25:
		return TierA
	case h < 60:
		return TierB
	default:
		return TierC
	}
}

var defaultDirectory = DefaultPayerDirectory()

// InferPayerTier infers a tier with the built-in allow-lists.
func InferPayerTier(name string) PayerTier {
	return defaultDirectory.Infer(name)
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func containsAny(name string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(name, n) {
			return true
		}
	}
	return false
}
