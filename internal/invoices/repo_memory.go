package invoices

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores invoices in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	byID       map[string]Invoice
	byDocument map[string]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:       make(map[string]Invoice),
		byDocument: make(map[string]string),
	}
}

// Create inserts the invoice, enforcing one invoice per document.
func (r *MemoryRepo) Create(ctx context.Context, invoice Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byDocument[invoice.DocumentID]; exists {
		return ErrDuplicateDocument
	}
	r.byID[invoice.ID] = invoice
	r.byDocument[invoice.DocumentID] = invoice.ID
	return nil
}

// GetByID returns an invoice scoped to the workspace.
func (r *MemoryRepo) GetByID(ctx context.Context, workspaceID, invoiceID string) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	invoice, ok := r.byID[invoiceID]
	if !ok || invoice.WorkspaceID != workspaceID {
		return Invoice{}, ErrNotFound
	}
	return invoice, nil
}

// GetByDocument returns the invoice created for a document.
func (r *MemoryRepo) GetByDocument(ctx context.Context, workspaceID, documentID string) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDocument[documentID]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	invoice := r.byID[id]
	if invoice.WorkspaceID != workspaceID {
		return Invoice{}, ErrNotFound
	}
	return invoice, nil
}

// ListByWorkspace returns all invoices in a workspace, newest first.
func (r *MemoryRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Invoice, 0)
	for _, invoice := range r.byID {
		if invoice.WorkspaceID == workspaceID {
			out = append(out, invoice)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
