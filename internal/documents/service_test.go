package documents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"invoice-backend/internal/extraction"
	"invoice-backend/internal/invoices"
	"invoice-backend/internal/shared/storage/object"
	"invoice-backend/internal/shared/storage/object/local"
	"invoice-backend/internal/suppliers"
)

type fakeText struct {
	text string
	err  error
}

func (f *fakeText) Text(ctx context.Context, store object.ObjectStore, storageKey, fileName string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeStructured struct {
	result extraction.Result
	err    error
}

func (f *fakeStructured) Extract(ctx context.Context, documentText string, receivedAt time.Time) (extraction.Result, error) {
	if f.err != nil {
		return extraction.Result{}, f.err
	}
	return f.result, nil
}

type fixture struct {
	svc         *Service
	supplierSvc *suppliers.Service
	invoiceRepo *invoices.MemoryRepo
	structured  *fakeStructured
	text        *fakeText
	workspaceID string
	supplierID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	supplierSvc := &suppliers.Service{Repo: suppliers.NewMemoryRepo()}
	supplier, err := supplierSvc.Create(context.Background(), "ws-1", suppliers.CreateInput{
		Name:       "ABC Electric",
		Email:      "billing@abc.com",
		MarkupRate: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}

	invoiceRepo := invoices.NewMemoryRepo()
	text := &fakeText{text: "INVOICE from ABC Electric, total $115.00"}
	structured := &fakeStructured{result: extraction.Result{
		SupplierEmail: "billing@abc.com",
		TotalAmount:   decimal.RequireFromString("115.00"),
		InvoiceDate:   time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
	}}

	svc := &Service{
		Store:     local.New(t.TempDir()),
		Repo:      NewMemoryRepo(),
		Text:      text,
		Extractor: structured,
		Suppliers: supplierSvc,
		Invoices:  &invoices.Service{Repo: invoiceRepo},
	}
	return &fixture{
		svc:         svc,
		supplierSvc: supplierSvc,
		invoiceRepo: invoiceRepo,
		structured:  structured,
		text:        text,
		workspaceID: "ws-1",
		supplierID:  supplier.ID,
	}
}

func (f *fixture) upload(t *testing.T) Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), f.workspaceID, "invoice.pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return doc
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), f.workspaceID, "notes.txt", strings.NewReader("hello"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessHappyPath(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	invoice, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !invoice.OriginalTotal.Equal(decimal.RequireFromString("115")) {
		t.Fatalf("unexpected original total: %s", invoice.OriginalTotal)
	}
	if !invoice.BilledTotal.Equal(decimal.RequireFromString("126.50")) {
		t.Fatalf("unexpected billed total: %s", invoice.BilledTotal)
	}
	if invoice.DocumentID != doc.ID {
		t.Fatalf("invoice not linked to document: %s", invoice.DocumentID)
	}

	got, err := f.svc.Get(context.Background(), f.workspaceID, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusProcessed {
		t.Fatalf("expected processed, got %s", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Fatal("expected processed_at to be set")
	}
}

func TestProcessKeepsDatePassedThrough(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	invoice, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	if !invoice.InvoiceDate.Equal(want) {
		t.Fatalf("expected invoice date %s, got %s", want, invoice.InvoiceDate)
	}
}

func TestProcessMissingFieldsLeavesDocumentPending(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	f.structured.err = &extraction.Failure{
		Reason:        extraction.ReasonMissingFields,
		MissingFields: []string{"supplier_email"},
	}

	_, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID)
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindStructuredFailed {
		t.Fatalf("expected structured failure, got %v", err)
	}
	if len(pe.MissingFields) != 1 || pe.MissingFields[0] != "supplier_email" {
		t.Fatalf("unexpected missing fields: %v", pe.MissingFields)
	}

	got, _ := f.svc.Get(context.Background(), f.workspaceID, doc.ID)
	if got.Status != StatusPending {
		t.Fatalf("expected document to stay pending, got %s", got.Status)
	}
	if out, _ := f.invoiceRepo.ListByWorkspace(context.Background(), f.workspaceID); len(out) != 0 {
		t.Fatalf("expected no invoices, got %d", len(out))
	}
}

func TestProcessUnknownSupplierLeavesDocumentPending(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	f.structured.result.SupplierEmail = "stranger@nowhere.com"

	_, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID)
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindSupplierNotFound {
		t.Fatalf("expected supplier_not_found, got %v", err)
	}
	if pe.Suggestion == "" {
		t.Fatal("expected an actionable suggestion")
	}

	got, _ := f.svc.Get(context.Background(), f.workspaceID, doc.ID)
	if got.Status != StatusPending {
		t.Fatalf("expected document to stay pending, got %s", got.Status)
	}
}

func TestProcessExtractionFailureLeavesDocumentPending(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)
	f.text.err = errors.New("no text could be extracted")

	_, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID)
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindExtractionFailed {
		t.Fatalf("expected extraction_failed, got %v", err)
	}
	if pe.Reason != ReasonNoTextExtracted {
		t.Fatalf("reason = %q, want %q", pe.Reason, ReasonNoTextExtracted)
	}

	got, _ := f.svc.Get(context.Background(), f.workspaceID, doc.ID)
	if got.Status != StatusPending {
		t.Fatalf("expected document to stay pending, got %s", got.Status)
	}
}

func TestProcessTwiceCreatesExactlyOneInvoice(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	if _, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID); err != nil {
		t.Fatalf("first Process: %v", err)
	}

	_, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID)
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindInvalidTransition {
		t.Fatalf("expected invalid_transition, got %v", err)
	}

	out, err := f.invoiceRepo.ListByWorkspace(context.Background(), f.workspaceID)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one invoice, got %d", len(out))
	}
}

func TestProcessManual(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	invoice, err := f.svc.ProcessManual(context.Background(), f.workspaceID, doc.ID, ManualInput{
		SupplierID:  f.supplierID,
		TotalAmount: decimal.RequireFromString("200.00"),
		InvoiceDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ProcessManual: %v", err)
	}
	if !invoice.BilledTotal.Equal(decimal.RequireFromString("220.00")) {
		t.Fatalf("unexpected billed total: %s", invoice.BilledTotal)
	}

	got, _ := f.svc.Get(context.Background(), f.workspaceID, doc.ID)
	if got.Status != StatusProcessed {
		t.Fatalf("expected processed, got %s", got.Status)
	}
}

func TestProcessManualValidation(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	_, err := f.svc.ProcessManual(context.Background(), f.workspaceID, doc.ID, ManualInput{
		TotalAmount: decimal.RequireFromString("10.00"),
	})
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindValidationError {
		t.Fatalf("expected validation_error, got %v", err)
	}

	_, err = f.svc.ProcessManual(context.Background(), f.workspaceID, doc.ID, ManualInput{
		SupplierID:  f.supplierID,
		TotalAmount: decimal.Zero,
	})
	if !errors.As(err, &pe) || pe.Kind != KindValidationError {
		t.Fatalf("expected validation_error for zero amount, got %v", err)
	}

	_, err = f.svc.ProcessManual(context.Background(), f.workspaceID, doc.ID, ManualInput{
		SupplierID:  "no-such-supplier",
		TotalAmount: decimal.RequireFromString("10.00"),
	})
	if !errors.As(err, &pe) || pe.Kind != KindSupplierNotFound {
		t.Fatalf("expected supplier_not_found, got %v", err)
	}
}

func TestAutomaticAndManualPathsBillIdentically(t *testing.T) {
	f := newFixture(t)
	autoDoc := f.upload(t)
	manualDoc := f.upload(t)

	autoInvoice, err := f.svc.Process(context.Background(), f.workspaceID, autoDoc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	manualInvoice, err := f.svc.ProcessManual(context.Background(), f.workspaceID, manualDoc.ID, ManualInput{
		SupplierID:  f.supplierID,
		TotalAmount: f.structured.result.TotalAmount,
		InvoiceDate: f.structured.result.InvoiceDate,
	})
	if err != nil {
		t.Fatalf("ProcessManual: %v", err)
	}

	if !autoInvoice.BilledTotal.Equal(manualInvoice.BilledTotal) {
		t.Fatalf("billed totals diverge: auto %s vs manual %s",
			autoInvoice.BilledTotal, manualInvoice.BilledTotal)
	}
}

func TestRejectRemovesBlobAndKeepsRecord(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	rejected, err := f.svc.Reject(context.Background(), f.workspaceID, doc.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}

	if _, err := f.svc.Store.Open(context.Background(), doc.StorageKey); err == nil {
		t.Fatal("expected blob to be removed")
	}

	got, err := f.svc.Get(context.Background(), f.workspaceID, doc.ID)
	if err != nil {
		t.Fatalf("Get after reject: %v", err)
	}
	if got.Status != StatusRejected {
		t.Fatalf("expected record kept as rejected, got %s", got.Status)
	}
}

func TestRejectProcessedDocumentConflicts(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t)

	if _, err := f.svc.Process(context.Background(), f.workspaceID, doc.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	_, err := f.svc.Reject(context.Background(), f.workspaceID, doc.ID)
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindInvalidTransition {
		t.Fatalf("expected invalid_transition, got %v", err)
	}
}
