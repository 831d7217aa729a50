package mailsync

import (
	"context"
	"sync"
)

// MemoryProcessed stores processed message marks in memory.
type MemoryProcessed struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewMemoryProcessed constructs a MemoryProcessed.
func NewMemoryProcessed() *MemoryProcessed {
	return &MemoryProcessed{seen: make(map[string]bool)}
}

func key(workspaceID, messageID string) string {
	return workspaceID + "\x00" + messageID
}

// Seen reports whether the message was recorded for the workspace.
func (r *MemoryProcessed) Seen(ctx context.Context, workspaceID, messageID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[key(workspaceID, messageID)], nil
}

// Record marks the message processed, failing on a duplicate.
func (r *MemoryProcessed) Record(ctx context.Context, workspaceID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(workspaceID, messageID)
	if r.seen[k] {
		return ErrDuplicate
	}
	r.seen[k] = true
	return nil
}
