// Package prng holds the deterministic string hash and seeded generator used
// wherever the service needs reproducible pseudo-randomness: payer tier
// fallback buckets and simulated document extraction.
package prng

import "unicode/utf16"

// HashString is djb2 over the UTF-16 code units of s with 32-bit signed
// wraparound, returned as an absolute value.
func HashString(s string) uint32 {
	h := int32(5381)
	for _, cu := range utf16.Encode([]rune(s)) {
		h = (h << 5) + h + int32(cu)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// Mulberry32 is a small seeded generator. Not safe for concurrent use; create
// one per call site.
type Mulberry32 struct {
	state uint32
}

func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Float64 returns the next value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}
