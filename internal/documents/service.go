package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoice-backend/internal/extraction"
	"invoice-backend/internal/invoices"
	"invoice-backend/internal/shared/storage/object"
	"invoice-backend/internal/shared/telemetry"
	"invoice-backend/internal/suppliers"
)

// allowedExtensions lists the file types accepted for intake.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".docx": true,
}

// TextExtractor pulls raw text out of a stored document.
type TextExtractor interface {
	Text(ctx context.Context, store object.ObjectStore, storageKey, fileName string) (string, error)
}

// StructuredExtractor turns raw document text into invoice fields.
type StructuredExtractor interface {
	Extract(ctx context.Context, documentText string, receivedAt time.Time) (extraction.Result, error)
}

// SupplierResolver finds suppliers by extracted sender email or, for the
// manual path, by explicit ID.
type SupplierResolver interface {
	Resolve(ctx context.Context, workspaceID, email string) (suppliers.Supplier, error)
	Get(ctx context.Context, workspaceID, supplierID string) (suppliers.Supplier, error)
}

// InvoiceRecorder stores the invoice produced by processing.
type InvoiceRecorder interface {
	Record(ctx context.Context, in invoices.RecordInput) (invoices.Invoice, error)
	GetByDocument(ctx context.Context, workspaceID, documentID string) (invoices.Invoice, error)
}

// Service contains the document lifecycle logic.
type Service struct {
	Store     object.ObjectStore
	Repo      Repo
	Text      TextExtractor
	Extractor StructuredExtractor
	Suppliers SupplierResolver
	Invoices  InvoiceRecorder
}

// Upload validates the file type, saves the blob and records a pending
// document.
func (s *Service) Upload(ctx context.Context, workspaceID, fileName string, r io.Reader) (Document, error) {
	return s.create(ctx, workspaceID, fileName, "", r)
}

// CreateFromMail records a pending document downloaded from a mailbox
// message. The message ID is kept so synced documents trace back to their
// source email.
func (s *Service) CreateFromMail(ctx context.Context, workspaceID, fileName, messageID string, r io.Reader) (Document, error) {
	return s.create(ctx, workspaceID, fileName, messageID, r)
}

func (s *Service) create(ctx context.Context, workspaceID, fileName, messageID string, r io.Reader) (Document, error) {
	fileName = strings.TrimSpace(fileName)
	if workspaceID == "" || fileName == "" {
		return Document{}, fmt.Errorf("%w: workspace and file name are required", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return Document{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidInput, ext)
	}

	storageKey, size, _, err := s.Store.Save(ctx, workspaceID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:              uuid.NewString(),
		WorkspaceID:     workspaceID,
		StorageKey:      storageKey,
		FileName:        fileName,
		Status:          StatusPending,
		SourceMessageID: messageID,
		UploadedAt:      time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	telemetry.Info("documents.created", map[string]any{
		"workspace_id": workspaceID,
		"document_id":  doc.ID,
		"file_name":    fileName,
		"size_bytes":   size,
		"source":       sourceLabel(messageID),
	})
	return doc, nil
}

// Get returns a document scoped to the workspace.
func (s *Service) Get(ctx context.Context, workspaceID, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, workspaceID, documentID)
}

// List returns documents in the workspace, optionally filtered by status.
func (s *Service) List(ctx context.Context, workspaceID, status string) ([]Document, error) {
	if status != "" && status != StatusPending && status != StatusProcessed && status != StatusRejected {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.Repo.ListByWorkspace(ctx, workspaceID, status)
}

// Process extracts invoice data from a pending document, resolves the
// supplier and records the marked-up invoice. The document only moves to
// processed when the invoice is recorded; every failure before that
// leaves it pending and retryable.
func (s *Service) Process(ctx context.Context, workspaceID, documentID string) (invoices.Invoice, error) {
	doc, err := s.Repo.GetByID(ctx, workspaceID, documentID)
	if err != nil {
		return invoices.Invoice{}, err
	}
	if doc.Status != StatusPending {
		return invoices.Invoice{}, &ProcessError{
			Kind:   KindInvalidTransition,
			Reason: "document is " + doc.Status + ", expected " + StatusPending,
		}
	}

	text, err := s.Text.Text(ctx, s.Store, doc.StorageKey, doc.FileName)
	if err != nil {
		return invoices.Invoice{}, &ProcessError{
			Kind:       KindExtractionFailed,
			Reason:     ReasonNoTextExtracted,
			Suggestion: "upload a clearer copy or process the document manually",
			Err:        err,
		}
	}

	result, err := s.Extractor.Extract(ctx, text, doc.UploadedAt)
	if err != nil {
		return invoices.Invoice{}, structuredError(err)
	}

	supplier, err := s.Suppliers.Resolve(ctx, doc.WorkspaceID, result.SupplierEmail)
	if err != nil {
		if errors.Is(err, suppliers.ErrNotFound) {
			return invoices.Invoice{}, &ProcessError{
				Kind:       KindSupplierNotFound,
				Reason:     "no supplier configured for " + result.SupplierEmail,
				Suggestion: "add a supplier with email " + result.SupplierEmail + " to this workspace, then retry",
			}
		}
		return invoices.Invoice{}, err
	}

	return s.finalize(ctx, doc, supplier, result)
}

// ManualInput carries operator-entered invoice fields for documents the
// automatic pipeline could not read. The supplier is chosen explicitly,
// so no email resolution happens on this path.
type ManualInput struct {
	SupplierID  string
	TotalAmount decimal.Decimal
	InvoiceDate time.Time
}

// ProcessManual records an invoice from operator-entered fields, skipping
// extraction and supplier resolution. It shares the markup computation
// and status rules with Process, so both paths bill identically.
func (s *Service) ProcessManual(ctx context.Context, workspaceID, documentID string, in ManualInput) (invoices.Invoice, error) {
	doc, err := s.Repo.GetByID(ctx, workspaceID, documentID)
	if err != nil {
		return invoices.Invoice{}, err
	}
	if doc.Status != StatusPending {
		return invoices.Invoice{}, &ProcessError{
			Kind:   KindInvalidTransition,
			Reason: "document is " + doc.Status + ", expected " + StatusPending,
		}
	}

	if strings.TrimSpace(in.SupplierID) == "" {
		return invoices.Invoice{}, &ProcessError{
			Kind:          KindValidationError,
			Reason:        "supplier is required",
			MissingFields: []string{"supplier_id"},
		}
	}
	if !in.TotalAmount.IsPositive() {
		return invoices.Invoice{}, &ProcessError{
			Kind:          KindValidationError,
			Reason:        "total amount must be positive",
			MissingFields: []string{"total_amount"},
		}
	}

	supplier, err := s.Suppliers.Get(ctx, workspaceID, in.SupplierID)
	if err != nil {
		if errors.Is(err, suppliers.ErrNotFound) {
			return invoices.Invoice{}, &ProcessError{
				Kind:       KindSupplierNotFound,
				Reason:     "supplier " + in.SupplierID + " not found in workspace",
				Suggestion: "register the supplier in this workspace first",
			}
		}
		return invoices.Invoice{}, err
	}

	result := extraction.Result{
		SupplierEmail: supplier.Email,
		TotalAmount:   in.TotalAmount,
		InvoiceDate:   in.InvoiceDate,
	}
	if result.InvoiceDate.IsZero() {
		result.InvoiceDate = doc.UploadedAt.UTC().Truncate(24 * time.Hour)
	}
	return s.finalize(ctx, doc, supplier, result)
}

// finalize wins the pending->processed transition and records the
// invoice. The transition is the serialization point: when two requests
// process the same document, exactly one passes it.
func (s *Service) finalize(ctx context.Context, doc Document, supplier suppliers.Supplier, result extraction.Result) (invoices.Invoice, error) {
	now := time.Now().UTC()
	if err := s.Repo.Transition(ctx, doc.WorkspaceID, doc.ID, StatusPending, StatusProcessed, &now); err != nil {
		return invoices.Invoice{}, err
	}

	invoice, err := s.Invoices.Record(ctx, invoices.RecordInput{
		WorkspaceID:   doc.WorkspaceID,
		SupplierID:    supplier.ID,
		DocumentID:    doc.ID,
		SupplierEmail: result.SupplierEmail,
		OriginalTotal: result.TotalAmount,
		MarkupRate:    supplier.MarkupRate,
		InvoiceDate:   result.InvoiceDate,
	})
	if err != nil {
		// Put the document back so it stays retryable. The revert can
		// only fail if the process died between the two writes, which
		// the unique invoice-per-document constraint still covers.
		if revertErr := s.Repo.Transition(ctx, doc.WorkspaceID, doc.ID, StatusProcessed, StatusPending, nil); revertErr != nil {
			telemetry.Error("documents.revert_failed", map[string]any{
				"workspace_id": doc.WorkspaceID,
				"document_id":  doc.ID,
				"error":        revertErr.Error(),
			})
		}
		if errors.Is(err, invoices.ErrDuplicateDocument) {
			return invoices.Invoice{}, &ProcessError{
				Kind:   KindInvalidTransition,
				Reason: "an invoice already exists for this document",
			}
		}
		return invoices.Invoice{}, err
	}

	telemetry.Info("documents.processed", map[string]any{
		"workspace_id":   doc.WorkspaceID,
		"document_id":    doc.ID,
		"invoice_id":     invoice.ID,
		"supplier_id":    supplier.ID,
		"original_total": invoice.OriginalTotal.String(),
		"billed_total":   invoice.BilledTotal.String(),
	})
	return invoice, nil
}

// Reject moves a pending document to rejected and removes its stored
// blob. The record itself is kept for audit.
func (s *Service) Reject(ctx context.Context, workspaceID, documentID string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, workspaceID, documentID)
	if err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	if err := s.Repo.Transition(ctx, workspaceID, documentID, StatusPending, StatusRejected, &now); err != nil {
		return Document{}, err
	}

	if err := s.Store.Remove(ctx, doc.StorageKey); err != nil {
		telemetry.Error("documents.blob_remove_failed", map[string]any{
			"workspace_id": workspaceID,
			"document_id":  documentID,
			"storage_key":  doc.StorageKey,
			"error":        err.Error(),
		})
	}

	doc.Status = StatusRejected
	doc.ProcessedAt = &now
	return doc, nil
}

func structuredError(err error) error {
	var failure *extraction.Failure
	if !errors.As(err, &failure) {
		return err
	}
	pe := &ProcessError{
		Kind:          KindStructuredFailed,
		Reason:        failure.Reason,
		MissingFields: failure.MissingFields,
		Err:           err,
	}
	if failure.Reason == extraction.ReasonMissingFields {
		pe.Suggestion = "process the document manually with the missing fields"
	}
	return pe
}

func sourceLabel(messageID string) string {
	if messageID == "" {
		return "upload"
	}
	return "mail"
}
