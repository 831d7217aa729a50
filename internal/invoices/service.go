package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service contains business logic for invoices.
type Service struct {
	Repo Repo
}

// RecordInput carries the data needed to record a processed invoice.
type RecordInput struct {
	WorkspaceID   string
	SupplierID    string
	DocumentID    string
	SupplierEmail string
	OriginalTotal decimal.Decimal
	MarkupRate    decimal.Decimal
	InvoiceDate   time.Time
}

// Record computes the billed total and stores the invoice.
func (s *Service) Record(ctx context.Context, in RecordInput) (Invoice, error) {
	invoice := Invoice{
		ID:            uuid.NewString(),
		WorkspaceID:   in.WorkspaceID,
		SupplierID:    in.SupplierID,
		DocumentID:    in.DocumentID,
		SupplierEmail: in.SupplierEmail,
		OriginalTotal: in.OriginalTotal,
		BilledTotal:   BilledTotal(in.OriginalTotal, in.MarkupRate),
		InvoiceDate:   in.InvoiceDate,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, invoice); err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// Get returns an invoice scoped to the workspace.
func (s *Service) Get(ctx context.Context, workspaceID, invoiceID string) (Invoice, error) {
	return s.Repo.GetByID(ctx, workspaceID, invoiceID)
}

// GetByDocument returns the invoice created for a document.
func (s *Service) GetByDocument(ctx context.Context, workspaceID, documentID string) (Invoice, error) {
	return s.Repo.GetByDocument(ctx, workspaceID, documentID)
}

// List returns all invoices in the workspace.
func (s *Service) List(ctx context.Context, workspaceID string) ([]Invoice, error) {
	return s.Repo.ListByWorkspace(ctx, workspaceID)
}
