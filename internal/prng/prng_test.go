package prng

import "testing"

func TestHashString(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 5381},
		{"a", 177670},
		{"hello world", 894552257},
		{"startupxyz", 1303637597},
		{"acme corp", 660133295},
	}
	for _, tt := range tests {
		if got := HashString(tt.in); got != tt.want {
			t.Errorf("HashString(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMulberry32Sequence(t *testing.T) {
	m := NewMulberry32(1)
	want := []float64{0.6270739405881613, 0.002735721180215478, 0.5274470399599522}
	for i, w := range want {
		if got := m.Float64(); got != w {
			t.Errorf("draw %d: got %v, want %v", i, got, w)
		}
	}
}

func TestMulberry32Range(t *testing.T) {
	m := NewMulberry32(HashString("range check"))
	for i := 0; i < 10000; i++ {
		v := m.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
}

func TestMulberry32Reproducible(t *testing.T) {
	a := NewMulberry32(42)
	b := NewMulberry32(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("sequences diverged at draw %d", i)
		}
	}
}
