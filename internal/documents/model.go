package documents

import "time"

// Document statuses. A document starts pending, becomes processed when an
// invoice is recorded for it, or rejected when discarded.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusRejected  = "rejected"
)

// Document is an uploaded or mail-synced file awaiting invoice processing.
type Document struct {
	ID              string     `json:"id"`
	WorkspaceID     string     `json:"workspaceId"`
	StorageKey      string     `json:"-"`
	FileName        string     `json:"fileName"`
	Status          string     `json:"status"`
	SourceMessageID string     `json:"sourceMessageId,omitempty"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
}
