package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new pending document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO pending_documents (id, workspace_id, storage_key, filename, status, source_message_id, uploaded_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.WorkspaceID,
		doc.StorageKey,
		doc.FileName,
		doc.Status,
		nullString(doc.SourceMessageID),
		doc.UploadedAt,
		doc.ProcessedAt,
	)
	return err
}

// GetByID returns a document scoped to the workspace.
func (r *PGRepo) GetByID(ctx context.Context, workspaceID, documentID string) (Document, error) {
	const query = selectColumns + ` WHERE id = $1 AND workspace_id = $2`
	row := r.DB.QueryRowContext(ctx, query, documentID, workspaceID)
	doc, err := scanDocument(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ListByWorkspace returns documents in a workspace, newest first,
// optionally filtered by status.
func (r *PGRepo) ListByWorkspace(ctx context.Context, workspaceID, status string) ([]Document, error) {
	query := selectColumns + ` WHERE workspace_id = $1`
	args := []any{workspaceID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Transition performs a conditional status update. The WHERE clause on the
// current status makes concurrent transitions race for one winner.
func (r *PGRepo) Transition(ctx context.Context, workspaceID, documentID, from, to string, processedAt *time.Time) error {
	const query = `
UPDATE pending_documents
SET status = $4, processed_at = $5
WHERE id = $1 AND workspace_id = $2 AND status = $3`
	res, err := r.DB.ExecContext(ctx, query, documentID, workspaceID, from, to, processedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	doc, err := r.GetByID(ctx, workspaceID, documentID)
	if err != nil {
		return err
	}
	return &ProcessError{
		Kind:   KindInvalidTransition,
		Reason: "document is " + doc.Status + ", expected " + from,
	}
}

// Delete removes the document record.
func (r *PGRepo) Delete(ctx context.Context, workspaceID, documentID string) error {
	const query = `DELETE FROM pending_documents WHERE id = $1 AND workspace_id = $2`
	res, err := r.DB.ExecContext(ctx, query, documentID, workspaceID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `
SELECT id, workspace_id, storage_key, filename, status, source_message_id, uploaded_at, processed_at
FROM pending_documents`

func scanDocument(scan func(...any) error) (Document, error) {
	var doc Document
	var sourceMessageID sql.NullString
	var processedAt sql.NullTime
	err := scan(
		&doc.ID,
		&doc.WorkspaceID,
		&doc.StorageKey,
		&doc.FileName,
		&doc.Status,
		&sourceMessageID,
		&doc.UploadedAt,
		&processedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if sourceMessageID.Valid {
		doc.SourceMessageID = sourceMessageID.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return doc, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
