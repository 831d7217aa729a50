package invoices

import "context"

// Repo defines persistence operations for invoices.
type Repo interface {
	// Create inserts the invoice. Returns ErrDuplicateDocument when an
	// invoice already exists for the same document.
	Create(ctx context.Context, invoice Invoice) error
	GetByID(ctx context.Context, workspaceID, invoiceID string) (Invoice, error)
	GetByDocument(ctx context.Context, workspaceID, documentID string) (Invoice, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]Invoice, error)
}
