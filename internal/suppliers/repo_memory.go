package suppliers

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo stores suppliers in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Supplier
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Supplier)}
}

// Create stores the supplier.
func (r *MemoryRepo) Create(ctx context.Context, supplier Supplier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[supplier.ID] = supplier
	return nil
}

// GetByID returns a supplier scoped to the workspace.
func (r *MemoryRepo) GetByID(ctx context.Context, workspaceID, supplierID string) (Supplier, error) {
	if err := ctx.Err(); err != nil {
		return Supplier{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	supplier, ok := r.byID[supplierID]
	if !ok || supplier.WorkspaceID != workspaceID {
		return Supplier{}, ErrNotFound
	}
	return supplier, nil
}

// ListByWorkspace returns all suppliers in a workspace, newest first.
func (r *MemoryRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Supplier, 0)
	for _, supplier := range r.byID {
		if supplier.WorkspaceID == workspaceID {
			out = append(out, supplier)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces an existing supplier.
func (r *MemoryRepo) Update(ctx context.Context, supplier Supplier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[supplier.ID]
	if !ok || existing.WorkspaceID != supplier.WorkspaceID {
		return ErrNotFound
	}
	r.byID[supplier.ID] = supplier
	return nil
}

// FindByEmail matches case-insensitively within the workspace.
func (r *MemoryRepo) FindByEmail(ctx context.Context, workspaceID, email string) (Supplier, error) {
	if err := ctx.Err(); err != nil {
		return Supplier{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, supplier := range r.byID {
		if supplier.WorkspaceID == workspaceID && strings.ToLower(supplier.Email) == needle {
			return supplier, nil
		}
	}
	return Supplier{}, ErrNotFound
}
