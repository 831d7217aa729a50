package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"invoice-backend/internal/llm"
)

type staticLLM struct {
	resp  string
	err   error
	calls int
}

func (s *staticLLM) ExtractInvoice(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.resp), nil
}

var receivedAt = time.Date(2025, 12, 14, 9, 30, 0, 0, time.UTC)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestExtractValidPayload(t *testing.T) {
	e := New(&staticLLM{resp: `{"supplier_email": "Billing@ABC.com", "invoice_date": "2025-12-10", "total_amount": 115.00}`})

	got, err := e.Extract(context.Background(), "invoice text", receivedAt)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.SupplierEmail != "billing@abc.com" {
		t.Fatalf("expected lowercased email, got %q", got.SupplierEmail)
	}
	if !got.TotalAmount.Equal(mustDecimal(t, "115")) {
		t.Fatalf("unexpected amount: %s", got.TotalAmount)
	}
	if got.InvoiceDate != time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected date: %s", got.InvoiceDate)
	}
}

func TestExtractStripsFencedPayload(t *testing.T) {
	resp := "Here you go:\n```json\n{\"supplier_email\": \"a@b.co\", \"total_amount\": 42.50}\n```"
	e := New(&staticLLM{resp: resp})

	got, err := e.Extract(context.Background(), "invoice text", receivedAt)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !got.TotalAmount.Equal(mustDecimal(t, "42.5")) {
		t.Fatalf("unexpected amount: %s", got.TotalAmount)
	}
}

func TestExtractMissingSupplierEmail(t *testing.T) {
	e := New(&staticLLM{resp: `{"supplier_email": null, "total_amount": 115.00}`})

	_, err := e.Extract(context.Background(), "invoice text", receivedAt)
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected Failure, got %v", err)
	}
	if failure.Reason != ReasonMissingFields {
		t.Fatalf("expected missing_fields, got %s", failure.Reason)
	}
	if len(failure.MissingFields) != 1 || failure.MissingFields[0] != "supplier_email" {
		t.Fatalf("unexpected missing fields: %v", failure.MissingFields)
	}
}

func TestExtractRejectsNonPositiveAmount(t *testing.T) {
	e := New(&staticLLM{resp: `{"supplier_email": "a@b.co", "total_amount": 0}`})

	_, err := e.Extract(context.Background(), "invoice text", receivedAt)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != ReasonMissingFields {
		t.Fatalf("expected missing_fields failure, got %v", err)
	}
	if len(failure.MissingFields) != 1 || failure.MissingFields[0] != "total_amount" {
		t.Fatalf("unexpected missing fields: %v", failure.MissingFields)
	}
}

func TestExtractRejectsInvalidEmailSyntax(t *testing.T) {
	e := New(&staticLLM{resp: `{"supplier_email": "not-an-email", "total_amount": 10}`})

	_, err := e.Extract(context.Background(), "invoice text", receivedAt)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != ReasonMissingFields {
		t.Fatalf("expected missing_fields failure, got %v", err)
	}
}

func TestExtractAmountAsString(t *testing.T) {
	e := New(&staticLLM{resp: `{"supplier_email": "a@b.co", "total_amount": "99.95"}`})

	got, err := e.Extract(context.Background(), "invoice text", receivedAt)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !got.TotalAmount.Equal(mustDecimal(t, "99.95")) {
		t.Fatalf("unexpected amount: %s", got.TotalAmount)
	}
}

func TestExtractDefaultsDateToReceipt(t *testing.T) {
	e := New(&staticLLM{resp: `{"supplier_email": "a@b.co", "invoice_date": "last tuesday", "total_amount": 10}`})

	got, err := e.Extract(context.Background(), "invoice text", receivedAt)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC)
	if got.InvoiceDate != want {
		t.Fatalf("expected receipt date %s, got %s", want, got.InvoiceDate)
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	e := New(&staticLLM{resp: `the invoice appears to be from ABC Electric`})

	_, err := e.Extract(context.Background(), "invoice text", receivedAt)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != ReasonMalformedResponse {
		t.Fatalf("expected malformed_response failure, got %v", err)
	}
}

func TestExtractServiceUnavailableNoRetryOnPermanentError(t *testing.T) {
	client := &staticLLM{err: errors.New("anthropic error: invalid api key (authentication_error)")}
	e := New(client)

	_, err := e.Extract(context.Background(), "invoice text", receivedAt)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != ReasonServiceUnavailable {
		t.Fatalf("expected service_unavailable failure, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected no retry, got %d calls", client.calls)
	}
}

func TestExtractRetriesOnceOnTimeout(t *testing.T) {
	client := &staticLLM{err: errors.New("anthropic request timeout: context deadline exceeded")}
	e := New(client)

	_, err := e.Extract(context.Background(), "invoice text", receivedAt)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != ReasonServiceUnavailable {
		t.Fatalf("expected service_unavailable failure, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", client.calls)
	}
}

func TestStripFencesPassthrough(t *testing.T) {
	in := `{"supplier_email": "a@b.co"}`
	if got := StripFences(in); got != in {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("hello", 3); got != "hel" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateRunes("hello", 10); got != "hello" {
		t.Fatalf("expected untouched string, got %q", got)
	}
}
