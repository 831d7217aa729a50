package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for pending documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, workspaceID, documentID string) (Document, error)
	ListByWorkspace(ctx context.Context, workspaceID, status string) ([]Document, error)
	// Transition moves the document from one status to another. It only
	// succeeds when the document is currently in the from status, so
	// concurrent requests race for a single winner. Losing callers get
	// ErrNotFound when the document does not exist, or a ProcessError of
	// kind invalid_transition when it is no longer in the from status.
	Transition(ctx context.Context, workspaceID, documentID, from, to string, processedAt *time.Time) error
	Delete(ctx context.Context, workspaceID, documentID string) error
}
