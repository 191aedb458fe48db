package extraction

import (
	"math"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, time.February, 6, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestExtract_Golden(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		seed       uint32
		invoice    string
		flags      Flags
		completion int
	}{
		{
			name:       "siemens with file",
			req:        Request{PayerName: "Siemens AG", InvoiceAmount: 45000, DaysToDue: 38, SupplierName: "TechFlow Solutions", FileName: "invoice.pdf"},
			seed:       1811047345,
			invoice:    "INV-2024-3543",
			flags:      Flags{POPresent: true, DeliveryNotePresent: false, IBANPresent: true, SignaturePresent: true},
			completion: 85,
		},
		{
			name:       "startup default file",
			req:        Request{PayerName: "StartupXYZ", InvoiceAmount: 12000, DaysToDue: 22, SupplierName: "Digital Marketing Pro"},
			seed:       1193445853,
			invoice:    "INV-2024-8895",
			flags:      Flags{POPresent: true, DeliveryNotePresent: true, IBANPresent: true, SignaturePresent: false},
			completion: 85,
		},
		{
			name:       "basf named file",
			req:        Request{PayerName: "BASF SE", InvoiceAmount: 78500, DaysToDue: 53, SupplierName: "Green Manufacturing Ltd", FileName: "inv-0089.pdf"},
			seed:       1180560240,
			invoice:    "INV-2024-1975",
			flags:      Flags{POPresent: true, DeliveryNotePresent: true, IBANPresent: true, SignaturePresent: false},
			completion: 85,
		},
		{
			name:       "fractional amount",
			req:        Request{PayerName: "Acme Corp", InvoiceAmount: 1234.5, DaysToDue: 10, SupplierName: "X"},
			seed:       272361513,
			invoice:    "INV-2024-3086",
			flags:      Flags{POPresent: false, DeliveryNotePresent: true, IBANPresent: true, SignaturePresent: true},
			completion: 85,
		},
		{
			name:       "all flags",
			req:        Request{PayerName: "Hooli", InvoiceAmount: 1002, DaysToDue: 30, SupplierName: "X"},
			seed:       765011344,
			invoice:    "INV-2024-3149",
			flags:      Flags{POPresent: true, DeliveryNotePresent: true, IBANPresent: true, SignaturePresent: true},
			completion: 100,
		},
		{
			name:       "no flags",
			req:        Request{PayerName: "Hooli", InvoiceAmount: 1096, DaysToDue: 30, SupplierName: "X"},
			seed:       765011043,
			invoice:    "INV-2024-3723",
			flags:      Flags{},
			completion: 40,
		},
	}

	s := NewSimulator(fixedClock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Seed(tt.req.PayerName, tt.req.FileName, tt.req.InvoiceAmount); got != tt.seed {
				t.Errorf("seed = %d, want %d", got, tt.seed)
			}
			f := s.Extract(tt.req)
			if f.InvoiceNumber != tt.invoice {
				t.Errorf("invoice number = %s, want %s", f.InvoiceNumber, tt.invoice)
			}
			if f.Flags != tt.flags {
				t.Errorf("flags = %+v, want %+v", f.Flags, tt.flags)
			}
			if got := ComputeDocCompleteness(f.Flags); got != tt.completion {
				t.Errorf("completeness = %d, want %d", got, tt.completion)
			}
		})
	}
}

func TestExtract_EchoesAndDates(t *testing.T) {
	f := NewSimulator(fixedClock).Extract(Request{
		PayerName:     "Siemens AG",
		InvoiceAmount: 45000,
		DaysToDue:     38,
		SupplierName:  "TechFlow Solutions",
	})
	if f.Currency != "EUR" {
		t.Errorf("expected EUR, got %s", f.Currency)
	}
	if f.PayerName != "Siemens AG" || f.SupplierName != "TechFlow Solutions" {
		t.Errorf("names not echoed: %q %q", f.PayerName, f.SupplierName)
	}
	if f.InvoiceAmount != 45000 {
		t.Errorf("amount not echoed: %v", f.InvoiceAmount)
	}
	if f.IssueDate != "2024-01-30" {
		t.Errorf("issue date = %s, want 2024-01-30", f.IssueDate)
	}
	if f.DueDate != "2024-03-15" {
		t.Errorf("due date = %s, want 2024-03-15", f.DueDate)
	}
}

func TestExtract_EmptyFileNameMatchesDefault(t *testing.T) {
	s := NewSimulator(fixedClock)
	a := s.Extract(Request{PayerName: "Globex", InvoiceAmount: 9000, DaysToDue: 14})
	b := s.Extract(Request{PayerName: "Globex", InvoiceAmount: 9000, DaysToDue: 14, FileName: DefaultFileName})
	if a != b {
		t.Errorf("expected identical output, got %+v vs %+v", a, b)
	}
}

func TestExtract_PayerCaseInsensitiveSeed(t *testing.T) {
	if Seed("SIEMENS AG", "", 45000) != Seed("siemens ag", "", 45000) {
		t.Error("expected seed to ignore payer case")
	}
}

func TestExtract_DeterministicAcrossClocks(t *testing.T) {
	req := Request{PayerName: "Wayne Enterprises", InvoiceAmount: 31000, DaysToDue: 40, FileName: "wayne.pdf"}
	a := NewSimulator(fixedClock).Extract(req)
	b := NewSimulator(func() time.Time { return fixedNow.Add(72 * time.Hour) }).Extract(req)
	if a.Flags != b.Flags || a.InvoiceNumber != b.InvoiceNumber {
		t.Errorf("flags and invoice number must not depend on the clock: %+v vs %+v", a, b)
	}
	if a.IssueDate == b.IssueDate {
		t.Error("expected dates to follow the clock")
	}
}

func TestSimulateExtraction_UsesCurrentYear(t *testing.T) {
	f := SimulateExtraction("Siemens AG", 45000, 38, "TechFlow Solutions", "invoice.pdf")
	want := "INV-" + time.Now().UTC().Format("2006") + "-3543"
	if f.InvoiceNumber != want {
		t.Errorf("invoice number = %s, want %s", f.InvoiceNumber, want)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{45000, "45000"},
		{1234.5, "1234.5"},
		{0.1, "0.1"},
		{0, "0"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{-1.5e-7, "-1.5e-7"},
		{1.2345e300, "1.2345e+300"},
		{math.Copysign(0, -1), "0"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.in); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
