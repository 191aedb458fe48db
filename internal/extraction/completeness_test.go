package extraction

import "testing"

func TestComputeDocCompleteness(t *testing.T) {
	tests := []struct {
		flags Flags
		want  int
	}{
		{Flags{}, 40},
		{Flags{POPresent: true}, 55},
		{Flags{IBANPresent: true, SignaturePresent: true}, 70},
		{Flags{POPresent: true, DeliveryNotePresent: true, IBANPresent: true}, 85},
		{Flags{POPresent: true, DeliveryNotePresent: true, IBANPresent: true, SignaturePresent: true}, 100},
	}
	for _, tt := range tests {
		if got := ComputeDocCompleteness(tt.flags); got != tt.want {
			t.Errorf("ComputeDocCompleteness(%+v) = %d, want %d", tt.flags, got, tt.want)
		}
	}
}

func TestComputeDocCompleteness_OnlyFiveValues(t *testing.T) {
	allowed := map[int]bool{40: true, 55: true, 70: true, 85: true, 100: true}
	for mask := 0; mask < 16; mask++ {
		f := Flags{
			POPresent:           mask&1 != 0,
			DeliveryNotePresent: mask&2 != 0,
			IBANPresent:         mask&4 != 0,
			SignaturePresent:    mask&8 != 0,
		}
		if got := ComputeDocCompleteness(f); !allowed[got] {
			t.Errorf("mask %04b produced %d", mask, got)
		}
	}
}
