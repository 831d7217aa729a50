package suppliers

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new supplier.
func (r *PGRepo) Create(ctx context.Context, supplier Supplier) error {
	const query = `
INSERT INTO suppliers (id, workspace_id, name, email, markup_rate, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		supplier.ID,
		supplier.WorkspaceID,
		supplier.Name,
		supplier.Email,
		supplier.MarkupRate,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)
	return err
}

// GetByID returns a supplier scoped to the workspace.
func (r *PGRepo) GetByID(ctx context.Context, workspaceID, supplierID string) (Supplier, error) {
	const query = `
SELECT id, workspace_id, name, email, markup_rate, created_at, updated_at
FROM suppliers
WHERE id = $1 AND workspace_id = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, supplierID, workspaceID))
}

// ListByWorkspace returns all suppliers in a workspace, newest first.
func (r *PGRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Supplier, error) {
	const query = `
SELECT id, workspace_id, name, email, markup_rate, created_at, updated_at
FROM suppliers
WHERE workspace_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Supplier, 0)
	for rows.Next() {
		var supplier Supplier
		if err := rows.Scan(
			&supplier.ID,
			&supplier.WorkspaceID,
			&supplier.Name,
			&supplier.Email,
			&supplier.MarkupRate,
			&supplier.CreatedAt,
			&supplier.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, supplier)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of an existing supplier.
func (r *PGRepo) Update(ctx context.Context, supplier Supplier) error {
	const query = `
UPDATE suppliers
SET name = $3, email = $4, markup_rate = $5, updated_at = $6
WHERE id = $1 AND workspace_id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		supplier.ID,
		supplier.WorkspaceID,
		supplier.Name,
		supplier.Email,
		supplier.MarkupRate,
		supplier.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByEmail matches case-insensitively within the workspace.
func (r *PGRepo) FindByEmail(ctx context.Context, workspaceID, email string) (Supplier, error) {
	const query = `
SELECT id, workspace_id, name, email, markup_rate, created_at, updated_at
FROM suppliers
WHERE workspace_id = $1 AND lower(email) = lower($2)
ORDER BY created_at ASC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, workspaceID, email))
}

func (r *PGRepo) scanOne(row *sql.Row) (Supplier, error) {
	var supplier Supplier
	err := row.Scan(
		&supplier.ID,
		&supplier.WorkspaceID,
		&supplier.Name,
		&supplier.Email,
		&supplier.MarkupRate,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}
