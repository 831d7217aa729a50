package suppliers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service contains business logic for suppliers.
type Service struct {
	Repo Repo
}

// CreateInput carries the fields accepted when registering a supplier.
type CreateInput struct {
	Name       string
	Email      string
	MarkupRate decimal.Decimal
}

// Create validates and stores a new supplier in the workspace.
func (s *Service) Create(ctx context.Context, workspaceID string, in CreateInput) (Supplier, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return Supplier{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !emailRe.MatchString(email) {
		return Supplier{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if in.MarkupRate.IsNegative() {
		return Supplier{}, fmt.Errorf("%w: markup rate must not be negative", ErrInvalidInput)
	}

	now := time.Now().UTC()
	supplier := Supplier{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Email:       email,
		MarkupRate:  in.MarkupRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, supplier); err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}

// Update applies new values to an existing supplier.
func (s *Service) Update(ctx context.Context, workspaceID, supplierID string, in CreateInput) (Supplier, error) {
	supplier, err := s.Repo.GetByID(ctx, workspaceID, supplierID)
	if err != nil {
		return Supplier{}, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return Supplier{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !emailRe.MatchString(email) {
		return Supplier{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if in.MarkupRate.IsNegative() {
		return Supplier{}, fmt.Errorf("%w: markup rate must not be negative", ErrInvalidInput)
	}

	supplier.Name = name
	supplier.Email = email
	supplier.MarkupRate = in.MarkupRate
	supplier.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, supplier); err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}

// Get returns a supplier scoped to the workspace.
func (s *Service) Get(ctx context.Context, workspaceID, supplierID string) (Supplier, error) {
	return s.Repo.GetByID(ctx, workspaceID, supplierID)
}

// List returns all suppliers in the workspace.
func (s *Service) List(ctx context.Context, workspaceID string) ([]Supplier, error) {
	return s.Repo.ListByWorkspace(ctx, workspaceID)
}

// Resolve finds the supplier whose email matches the extracted sender,
// ignoring case. Returns ErrNotFound when no supplier is configured for it.
func (s *Service) Resolve(ctx context.Context, workspaceID, email string) (Supplier, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Supplier{}, ErrNotFound
	}
	return s.Repo.FindByEmail(ctx, workspaceID, email)
}
