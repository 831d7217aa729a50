package mailsync

import (
	"context"
	"errors"
)

// ErrDuplicate indicates the message was already recorded as processed.
var ErrDuplicate = errors.New("message already processed")

// ProcessedMessages tracks which mailbox messages a workspace has already
// turned into documents, so repeated syncs do not duplicate them.
type ProcessedMessages interface {
	Seen(ctx context.Context, workspaceID, messageID string) (bool, error)
	// Record marks the message processed. Returns ErrDuplicate when a
	// concurrent sync recorded it first.
	Record(ctx context.Context, workspaceID, messageID string) error
}
