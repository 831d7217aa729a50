package workspaces

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("workspace not found")
	ErrInvalidInput = errors.New("invalid workspace input")
)

// Workspace is the tenant boundary: suppliers, documents and invoices
// all belong to exactly one workspace.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repo defines persistence operations for workspaces.
type Repo interface {
	Create(ctx context.Context, ws Workspace) error
	GetByID(ctx context.Context, workspaceID string) (Workspace, error)
	List(ctx context.Context) ([]Workspace, error)
}

// MemoryRepo stores workspaces in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Workspace
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Workspace)}
}

func (r *MemoryRepo) Create(ctx context.Context, ws Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ws.ID] = ws
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, workspaceID string) (Workspace, error) {
	if err := ctx.Err(); err != nil {
		return Workspace{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.byID[workspaceID]
	if !ok {
		return Workspace{}, ErrNotFound
	}
	return ws, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Workspace, 0, len(r.byID))
	for _, ws := range r.byID {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, ws Workspace) error {
	const query = `INSERT INTO workspaces (id, name, created_at) VALUES ($1, $2, $3)`
	_, err := r.DB.ExecContext(ctx, query, ws.ID, ws.Name, ws.CreatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, workspaceID string) (Workspace, error) {
	const query = `SELECT id, name, created_at FROM workspaces WHERE id = $1`
	var ws Workspace
	err := r.DB.QueryRowContext(ctx, query, workspaceID).Scan(&ws.ID, &ws.Name, &ws.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, ErrNotFound
	}
	if err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Workspace, error) {
	const query = `SELECT id, name, created_at FROM workspaces ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Workspace, 0)
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// Service contains business logic for workspaces.
type Service struct {
	Repo Repo
}

// Create validates and stores a new workspace.
func (s *Service) Create(ctx context.Context, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	ws := Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// Get returns a workspace by ID.
func (s *Service) Get(ctx context.Context, workspaceID string) (Workspace, error) {
	return s.Repo.GetByID(ctx, workspaceID)
}

// List returns all workspaces, newest first.
func (s *Service) List(ctx context.Context) ([]Workspace, error) {
	return s.Repo.List(ctx)
}
