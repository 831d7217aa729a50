package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts text-understanding providers for invoice extraction.
// Implementations return the provider's raw payload; parsing and validation
// happen in the extraction package.
type Client interface {
	ExtractInvoice(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ExtractInput captures the inputs needed for invoice data extraction.
type ExtractInput struct {
	DocumentText string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation used when no provider is configured.
type PlaceholderClient struct{}

// ExtractInvoice returns ErrNotImplemented.
func (PlaceholderClient) ExtractInvoice(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
