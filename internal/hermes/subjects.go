package hermes

const (
	// SubjectInvoiceSubmit carries inbound invoice submissions.
	SubjectInvoiceSubmit = "credia.invoice.submit"

	StreamName   = "CREDIA_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// StreamSubjects are persisted to the JetStream stream.
var StreamSubjects = []string{"credia.deal.>", "credia.sme.>"}

// Deal lifecycle subjects
func SubjectDealSubmitted(dealID string) string      { return "credia.deal." + dealID + ".submitted" }
func SubjectDealApproved(dealID string) string       { return "credia.deal." + dealID + ".approved" }
func SubjectDealRejected(dealID string) string       { return "credia.deal." + dealID + ".rejected" }
func SubjectDealDocsRequested(dealID string) string  { return "credia.deal." + dealID + ".docs_requested" }
func SubjectDealRateOverridden(dealID string) string { return "credia.deal." + dealID + ".rate_overridden" }
func SubjectDealFunded(dealID string) string         { return "credia.deal." + dealID + ".funded" }
func SubjectDealPaid(dealID string) string           { return "credia.deal." + dealID + ".paid" }
func SubjectDealPayerNotice(dealID string) string    { return "credia.deal." + dealID + ".payer_notice" }

// SME subjects
func SubjectSMESuspended(smeID string) string   { return "credia.sme." + smeID + ".suspended" }
func SubjectSMEReactivated(smeID string) string { return "credia.sme." + smeID + ".reactivated" }
