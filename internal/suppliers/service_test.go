package suppliers

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestService() *Service {
	return &Service{Repo: NewMemoryRepo()}
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc := newTestService()

	supplier, err := svc.Create(context.Background(), "ws-1", CreateInput{
		Name:       "ABC Electric",
		Email:      "  Billing@ABC.com ",
		MarkupRate: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if supplier.Email != "billing@abc.com" {
		t.Fatalf("expected normalized email, got %q", supplier.Email)
	}
	if supplier.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing name", CreateInput{Email: "a@b.co", MarkupRate: decimal.NewFromInt(5)}},
		{"bad email", CreateInput{Name: "ABC", Email: "not-an-email", MarkupRate: decimal.NewFromInt(5)}},
		{"negative markup", CreateInput{Name: "ABC", Email: "a@b.co", MarkupRate: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), "ws-1", tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestResolveMatchesCaseInsensitively(t *testing.T) {
	svc := newTestService()
	created, err := svc.Create(context.Background(), "ws-1", CreateInput{
		Name:       "ABC Electric",
		Email:      "billing@abc.com",
		MarkupRate: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Resolve(context.Background(), "ws-1", "BILLING@ABC.COM")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("resolved wrong supplier: %s", got.ID)
	}
}

func TestResolveScopedToWorkspace(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Create(context.Background(), "ws-1", CreateInput{
		Name:       "ABC Electric",
		Email:      "billing@abc.com",
		MarkupRate: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "ws-2", "billing@abc.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound in other workspace, got %v", err)
	}
}

func TestResolveEmptyEmail(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Resolve(context.Background(), "ws-1", "  "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	svc := newTestService()
	created, err := svc.Create(context.Background(), "ws-1", CreateInput{
		Name:       "ABC Electric",
		Email:      "billing@abc.com",
		MarkupRate: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), "ws-1", created.ID, CreateInput{
		Name:       "ABC Electric LLC",
		Email:      "invoices@abc.com",
		MarkupRate: decimal.NewFromInt(15),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("expected created_at to be preserved")
	}
	if !updated.MarkupRate.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected markup rate: %s", updated.MarkupRate)
	}
}
