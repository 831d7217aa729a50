package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores documents in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Document)}
}

// Create stores the document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[doc.ID] = doc
	return nil
}

// GetByID returns a document scoped to the workspace.
func (r *MemoryRepo) GetByID(ctx context.Context, workspaceID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[documentID]
	if !ok || doc.WorkspaceID != workspaceID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByWorkspace returns documents in a workspace, newest first,
// optionally filtered by status.
func (r *MemoryRepo) ListByWorkspace(ctx context.Context, workspaceID, status string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0)
	for _, doc := range r.byID {
		if doc.WorkspaceID != workspaceID {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// Transition compare-and-swaps the document status under the lock.
func (r *MemoryRepo) Transition(ctx context.Context, workspaceID, documentID, from, to string, processedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[documentID]
	if !ok || doc.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	if doc.Status != from {
		return &ProcessError{
			Kind:   KindInvalidTransition,
			Reason: "document is " + doc.Status + ", expected " + from,
		}
	}
	doc.Status = to
	doc.ProcessedAt = processedAt
	r.byID[documentID] = doc
	return nil
}

// Delete removes the document record.
func (r *MemoryRepo) Delete(ctx context.Context, workspaceID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[documentID]
	if !ok || doc.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.byID, documentID)
	return nil
}
