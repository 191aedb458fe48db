// submit_invoices.go: standalone script to read invoices from a CSV file and
// submit them to the Credia API on behalf of one SME.
//
// Each row is payer_name,invoice_amount,days_to_due[,file_name]. A header row
// starting with "payer_name" is skipped.
//
// Usage:
//
//	go run scripts/submit_invoices.go -csv invoices.csv -api http://localhost:8700 -sme sme-001
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type submission struct {
	InvoiceAmount float64 `json:"invoice_amount"`
	DaysToDue     int     `json:"days_to_due"`
	PayerName     string  `json:"payer_name"`
	SMEID         string  `json:"sme_id"`
	FileName      string  `json:"file_name,omitempty"`
}

type submitted struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	AIScore       int    `json:"ai_score"`
	Decision      string `json:"decision"`
}

func main() {
	csvPath := flag.String("csv", "invoices.csv", "path to the invoice CSV file")
	apiURL := flag.String("api", "http://localhost:8700", "Credia API base URL")
	smeID := flag.String("sme", "sme-001", "submitting SME id, sent as X-Actor-ID")
	dryRun := flag.Bool("dry-run", false, "print submissions without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open %s: %v", *csvPath, err)
	}
	defer f.Close()

	subs, err := parseCSV(f, *smeID)
	if err != nil {
		log.Fatalf("parse %s: %v", *csvPath, err)
	}
	log.Printf("parsed %d invoices from %s", len(subs), *csvPath)

	if *dryRun {
		for i, s := range subs {
			fmt.Printf("[%d] %s €%.2f due in %dd (file=%q)\n", i+1, s.PayerName, s.InvoiceAmount, s.DaysToDue, s.FileName)
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, s := range subs {
		body, _ := json.Marshal(s)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/deals", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %s: %v", s.PayerName, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Actor-ID", *smeID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %s: %v", s.PayerName, err)
			skipped++
			continue
		}

		if resp.StatusCode == http.StatusCreated {
			var d submitted
			if err := json.NewDecoder(resp.Body).Decode(&d); err == nil {
				log.Printf("%s %s: score %d, %s", d.ID, d.InvoiceNumber, d.AIScore, d.Decision)
			}
			created++
		} else {
			log.Printf("skip %s: status %d", s.PayerName, resp.StatusCode)
			skipped++
		}
		resp.Body.Close()
	}

	log.Printf("done: %d submitted, %d skipped", created, skipped)
}

func parseCSV(r io.Reader, smeID string) ([]submission, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	var subs []submission
	for i, rec := range records {
		if len(rec) == 0 || strings.EqualFold(strings.TrimSpace(rec[0]), "payer_name") {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: want at least 3 fields, got %d", i+1, len(rec))
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invoice_amount: %w", i+1, err)
		}
		days, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: days_to_due: %w", i+1, err)
		}
		s := submission{
			InvoiceAmount: amount,
			DaysToDue:     days,
			PayerName:     strings.TrimSpace(rec[0]),
			SMEID:         smeID,
		}
		if len(rec) > 3 {
			s.FileName = strings.TrimSpace(rec[3])
		}
		subs = append(subs, s)
	}
	return subs, nil
}
