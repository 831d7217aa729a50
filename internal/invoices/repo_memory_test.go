package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMemoryRepoRejectsSecondInvoiceForDocument(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	first := Invoice{
		ID:            "inv-1",
		WorkspaceID:   "ws-1",
		SupplierID:    "sup-1",
		DocumentID:    "doc-1",
		OriginalTotal: decimal.NewFromInt(100),
		BilledTotal:   decimal.NewFromInt(110),
		CreatedAt:     now,
	}
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := first
	second.ID = "inv-2"
	if err := repo.Create(context.Background(), second); !errors.Is(err, ErrDuplicateDocument) {
		t.Fatalf("expected ErrDuplicateDocument, got %v", err)
	}

	got, err := repo.GetByDocument(context.Background(), "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("GetByDocument: %v", err)
	}
	if got.ID != "inv-1" {
		t.Fatalf("expected first invoice retained, got %s", got.ID)
	}
}
