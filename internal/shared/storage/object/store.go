package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving, retrieving and discarding
// binary objects. The pipeline does not care whether blobs live on local
// disk or in a remote bucket.
type ObjectStore interface {
	Save(ctx context.Context, workspaceID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, storageKey string) error
}
