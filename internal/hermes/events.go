package hermes

import "time"

// InvoiceSubmitEvent is the inbound payload on SubjectInvoiceSubmit.
type InvoiceSubmitEvent struct {
	InvoiceAmount float64 `json:"invoice_amount"`
	DaysToDue     int     `json:"days_to_due"`
	PayerName     string  `json:"payer_name"`
	SMEID         string  `json:"sme_id"`
	FileName      string  `json:"file_name,omitempty"`
}

type DealSubmittedEvent struct {
	DealID        string    `json:"deal_id"`
	InvoiceNumber string    `json:"invoice_number"`
	SMEID         string    `json:"sme_id"`
	PayerName     string    `json:"payer_name"`
	Amount        float64   `json:"amount"`
	Score         int       `json:"score"`
	Decision      string    `json:"decision"`
	FeePercent    float64   `json:"fee_percent"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// DealTransitionEvent is published for every admin action on a deal.
type DealTransitionEvent struct {
	DealID     string    `json:"deal_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	Rate       *float64  `json:"rate,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PayerNoticeEvent struct {
	DealID        string    `json:"deal_id"`
	InvoiceNumber string    `json:"invoice_number"`
	PayerName     string    `json:"payer_name"`
	ActorID       string    `json:"actor_id"`
	SentAt        time.Time `json:"sent_at"`
}

type SMEStatusEvent struct {
	SMEID      string    `json:"sme_id"`
	KYBStatus  string    `json:"kyb_status"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
