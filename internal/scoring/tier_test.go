package scoring

import "testing"

func TestInferPayerTier(t *testing.T) {
	tests := []struct {
		name string
		want PayerTier
	}{
		// allow-lists
		{"Siemens AG", TierA},
		{"  BMW Group ", TierA},
		{"Deutsche Post DHL", TierA},
		{"MidCorp GmbH", TierB},
		{"EuroParts Ltd", TierB},
		// hash buckets
		{"Nordwind Handel", TierA},
		{"Initech", TierA},
		{"Soylent", TierA},
		{"Wayne Enterprises", TierB},
		{"Vandelay Industries", TierB},
		{"Hooli", TierC},
		{"Globex", TierC},
		{"StartupXYZ", TierC},
		{"Acme Corp", TierC},
		{"Umbrella Ltd", TierC},
		{"", TierC},
	}
	for _, tt := range tests {
		if got := InferPayerTier(tt.name); got != tt.want {
			t.Errorf("InferPayerTier(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestInferPayerTier_Stable(t *testing.T) {
	first := InferPayerTier("StartupXYZ")
	for i := 0; i < 50; i++ {
		if got := InferPayerTier("StartupXYZ"); got != first {
			t.Fatalf("call %d returned %s, first call returned %s", i, got, first)
		}
	}
	if InferPayerTier("STARTUPXYZ") != first {
		t.Error("expected inference to ignore case")
	}
}

func TestPayerDirectory_TierAWinsOverTierB(t *testing.T) {
	d := NewPayerDirectory([]string{"acme"}, []string{"acme corp"})
	if got := d.Infer("Acme Corp"); got != TierA {
		t.Errorf("expected tier-A match to take precedence, got %s", got)
	}
}

func TestPayerDirectory_DropsBlankEntries(t *testing.T) {
	d := NewPayerDirectory([]string{"", "   "}, []string{" MidCorp "})
	if len(d.TierA()) != 0 {
		t.Errorf("expected blank entries dropped, got %q", d.TierA())
	}
	if got := d.TierB(); len(got) != 1 || got[0] != "midcorp" {
		t.Errorf("expected normalized tier-B list, got %q", got)
	}
	if got := d.Infer("Hooli"); got != TierC {
		t.Errorf("expected hash fallback for Hooli, got %s", got)
	}
}

func TestPayerDirectory_ListsAreCopies(t *testing.T) {
	d := DefaultPayerDirectory()
	a := d.TierA()
	a[0] = "hooli"
	if d.Infer("Hooli") != TierC {
		t.Error("mutating TierA() result must not affect the directory")
	}
}

func TestPayerDirectory_ZeroValueUsesHash(t *testing.T) {
	var d PayerDirectory
	// "bmw group" is on the default A list but hashes into the B bucket.
	if got := d.Infer("BMW Group"); got != TierB {
		t.Errorf("expected hash bucket B for BMW Group, got %s", got)
	}
	if got := d.Infer("Globex"); got != TierC {
		t.Errorf("expected hash bucket C for Globex, got %s", got)
	}
	if got := d.Infer("Wayne Enterprises"); got != TierB {
		t.Errorf("expected hash bucket B, got %s", got)
	}
}
