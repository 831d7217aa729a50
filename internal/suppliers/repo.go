package suppliers

import "context"

// Repo defines persistence operations for suppliers.
type Repo interface {
	Create(ctx context.Context, supplier Supplier) error
	GetByID(ctx context.Context, workspaceID, supplierID string) (Supplier, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]Supplier, error)
	Update(ctx context.Context, supplier Supplier) error
	// FindByEmail matches case-insensitively within the workspace.
	FindByEmail(ctx context.Context, workspaceID, email string) (Supplier, error)
}
