package extraction

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoice-backend/internal/llm"
	"invoice-backend/internal/shared/telemetry"
)

// maxPromptRunes bounds how much document text is sent to the provider.
const maxPromptRunes = 12000

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Result is a validated invoice extraction. TotalAmount is always positive
// and SupplierEmail is always a syntactically valid address; downstream
// components do not re-validate.
type Result struct {
	SupplierEmail string
	InvoiceDate   time.Time
	TotalAmount   decimal.Decimal
}

// Extractor turns raw document text into a validated Result via an external
// text-understanding provider.
type Extractor struct {
	LLM llm.Client
}

// New constructs an Extractor.
func New(client llm.Client) *Extractor {
	return &Extractor{LLM: client}
}

// Extract requests structured invoice data for the given text. receivedAt
// is the document's upload or mailbox receipt time and becomes the invoice
// date when the document carries none.
func (e *Extractor) Extract(ctx context.Context, documentText string, receivedAt time.Time) (Result, error) {
	input := llm.ExtractInput{
		DocumentText: truncateRunes(documentText, maxPromptRunes),
	}

	raw, err := callWithRetry(ctx, e.LLM, input)
	if err != nil {
		return Result{}, &Failure{Reason: ReasonServiceUnavailable, Err: err}
	}

	cleaned := StripFences(string(raw))

	// The provider's shape is untrusted; decode loosely and coerce field
	// by field so one oddly typed value does not sink the whole payload.
	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		telemetry.Error("extraction.malformed_response", map[string]any{
			"error": err.Error(),
			"chars": len(cleaned),
		})
		return Result{}, &Failure{Reason: ReasonMalformedResponse, Err: err}
	}

	email := stringField(payload, "supplier_email")
	amount, amountOK := amountField(payload, "total_amount")

	var missing []string
	if email == "" || !emailRe.MatchString(email) {
		missing = append(missing, "supplier_email")
	}
	if !amountOK || !amount.IsPositive() {
		missing = append(missing, "total_amount")
	}
	if len(missing) > 0 {
		return Result{}, &Failure{Reason: ReasonMissingFields, MissingFields: missing}
	}

	invoiceDate := defaultDate(receivedAt)
	if rawDate := stringField(payload, "invoice_date"); rawDate != "" {
		if parsed, err := time.Parse("2006-01-02", rawDate); err == nil {
			invoiceDate = parsed
		} else {
			telemetry.Info("extraction.date_defaulted", map[string]any{"raw_date": rawDate})
		}
	}

	return Result{
		SupplierEmail: strings.ToLower(email),
		InvoiceDate:   invoiceDate,
		TotalAmount:   amount,
	}, nil
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func amountField(payload map[string]any, key string) (decimal.Decimal, bool) {
	switch v := payload[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	default:
		return decimal.Zero, false
	}
}

func defaultDate(receivedAt time.Time) time.Time {
	t := receivedAt.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
