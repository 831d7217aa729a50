package invoices

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts the invoice. The unique constraint on document_id keeps
// at most one invoice per document; a conflicting insert maps to
// ErrDuplicateDocument via ON CONFLICT DO NOTHING.
func (r *PGRepo) Create(ctx context.Context, invoice Invoice) error {
	const query = `
INSERT INTO invoices (id, workspace_id, supplier_id, document_id, supplier_email, original_total, billed_total, invoice_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (document_id) DO NOTHING`
	res, err := r.DB.ExecContext(ctx, query,
		invoice.ID,
		invoice.WorkspaceID,
		invoice.SupplierID,
		invoice.DocumentID,
		invoice.SupplierEmail,
		invoice.OriginalTotal,
		invoice.BilledTotal,
		invoice.InvoiceDate,
		invoice.CreatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicateDocument
	}
	return nil
}

// GetByID returns an invoice scoped to the workspace.
func (r *PGRepo) GetByID(ctx context.Context, workspaceID, invoiceID string) (Invoice, error) {
	const query = selectColumns + ` WHERE id = $1 AND workspace_id = $2`
	return scanOne(r.DB.QueryRowContext(ctx, query, invoiceID, workspaceID))
}

// GetByDocument returns the invoice created for a document.
func (r *PGRepo) GetByDocument(ctx context.Context, workspaceID, documentID string) (Invoice, error) {
	const query = selectColumns + ` WHERE document_id = $1 AND workspace_id = $2`
	return scanOne(r.DB.QueryRowContext(ctx, query, documentID, workspaceID))
}

// ListByWorkspace returns all invoices in a workspace, newest first.
func (r *PGRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Invoice, error) {
	const query = selectColumns + ` WHERE workspace_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Invoice, 0)
	for rows.Next() {
		var invoice Invoice
		if err := scanInto(rows.Scan, &invoice); err != nil {
			return nil, err
		}
		out = append(out, invoice)
	}
	return out, rows.Err()
}

const selectColumns = `
SELECT id, workspace_id, supplier_id, document_id, supplier_email, original_total, billed_total, invoice_date, created_at
FROM invoices`

func scanOne(row *sql.Row) (Invoice, error) {
	var invoice Invoice
	err := scanInto(row.Scan, &invoice)
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

func scanInto(scan func(...any) error, invoice *Invoice) error {
	return scan(
		&invoice.ID,
		&invoice.WorkspaceID,
		&invoice.SupplierID,
		&invoice.DocumentID,
		&invoice.SupplierEmail,
		&invoice.OriginalTotal,
		&invoice.BilledTotal,
		&invoice.InvoiceDate,
		&invoice.CreatedAt,
	)
}
