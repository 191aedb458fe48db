// Package extraction stands in for a document OCR pipeline. It fabricates
// invoice fields and verification flags deterministically from the
// submission parameters.
package extraction

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Credia/internal/prng"
)

const (
	Currency        = "EUR"
	DefaultFileName = "invoice"
	dateLayout      = "2006-01-02"
	issueLookback   = 7 * 24 * time.Hour
)

// Probability thresholds: a flag is present when its draw exceeds the value.
const (
	poThreshold           = 0.3
	deliveryNoteThreshold = 0.4
	ibanThreshold         = 0.2
	signatureThreshold    = 0.25
)

// Flags are the four document verification checks.
type Flags struct {
	POPresent           bool `json:"po_present"`
	DeliveryNotePresent bool `json:"delivery_note_present"`
	IBANPresent         bool `json:"iban_present"`
	SignaturePresent    bool `json:"signature_present"`
}

// Count returns how many checks passed.
func (f Flags) Count() int {
	n := 0
	for _, ok := range []bool{f.POPresent, f.DeliveryNotePresent, f.IBANPresent, f.SignaturePresent} {
		if ok {
			n++
		}
	}
	return n
}

// Fields is the simulated OCR output for one invoice.
type Fields struct {
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceAmount float64 `json:"invoice_amount"`
	Currency      string  `json:"currency"`
	IssueDate     string  `json:"issue_date"`
	DueDate       string  `json:"due_date"`
	PayerName     string  `json:"payer_name"`
	SupplierName  string  `json:"supplier_name"`
	Flags         Flags   `json:"flags"`
}

// Request carries the submission parameters the simulation is derived from.
type Request struct {
	PayerName     string  `json:"payer_name"`
	InvoiceAmount float64 `json:"invoice_amount"`
	DaysToDue     int     `json:"days_to_due"`
	SupplierName  string  `json:"supplier_name"`
	FileName      string  `json:"file_name,omitempty"`
}

// Simulator fabricates extraction results. The clock only affects the dates
// and the invoice number year.
type Simulator struct {
	now func() time.Time
}

// NewSimulator returns a Simulator reading time from now. A nil now uses the
// wall clock.
func NewSimulator(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{now: now}
}

// Extract runs the simulation. The clock is read once per call.
func (s *Simulator) Extract(req Request) Fields {
	rng := prng.NewMulberry32(Seed(req.PayerName, req.FileName, req.InvoiceAmount))
	now := s.now().UTC()

	invNum := int(math.Floor(rng.Float64()*9000 + 1000))

	return Fields{
		InvoiceNumber: fmt.Sprintf("INV-%d-%04d", now.Year(), invNum),
		InvoiceAmount: req.InvoiceAmount,
		Currency:      Currency,
		IssueDate:     now.Add(-issueLookback).Format(dateLayout),
		DueDate:       now.Add(time.Duration(req.DaysToDue) * 24 * time.Hour).Format(dateLayout),
		PayerName:     req.PayerName,
		SupplierName:  req.SupplierName,
		Flags: Flags{
			POPresent:           rng.Float64() > poThreshold,
			DeliveryNotePresent: rng.Float64() > deliveryNoteThreshold,
			IBANPresent:         rng.Float64() > ibanThreshold,
			SignaturePresent:    rng.Float64() > signatureThreshold,
		},
	}
}

var wallClock = NewSimulator(nil)

// SimulateExtraction runs the simulation against the wall clock. An empty
// fileName is treated as "invoice".
func SimulateExtraction(payerName string, invoiceAmount float64, daysToDue int, supplierName, fileName string) Fields {
	return wallClock.Extract(Request{
		PayerName:     payerName,
		InvoiceAmount: invoiceAmount,
		DaysToDue:     daysToDue,
		SupplierName:  supplierName,
		FileName:      fileName,
	})
}

// Seed derives the generator seed from the lower-cased payer, the file name
// and the shortest decimal rendering of the amount.
func Seed(payerName, fileName string, amount float64) uint32 {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return prng.HashString(strings.ToLower(payerName) + fileName + formatAmount(amount))
}

// formatAmount renders the amount the way number-to-string conversion does in
// the browser client, so seeds match for the same submission: plain decimal
// notation in the usual range, exponent form at the extremes with no padded
// exponent digits.
func formatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}
