package mailsync

import (
	"context"
	"database/sql"
	"errors"
)

// PGProcessed implements ProcessedMessages using Postgres.
type PGProcessed struct {
	DB *sql.DB
}

// Seen reports whether the message was recorded for the workspace.
func (r *PGProcessed) Seen(ctx context.Context, workspaceID, messageID string) (bool, error) {
	const query = `SELECT 1 FROM processed_messages WHERE workspace_id = $1 AND message_id = $2`
	var one int
	err := r.DB.QueryRowContext(ctx, query, workspaceID, messageID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record marks the message processed. The primary key makes concurrent
// inserts race for one winner; losers get ErrDuplicate.
func (r *PGProcessed) Record(ctx context.Context, workspaceID, messageID string) error {
	const query = `
INSERT INTO processed_messages (workspace_id, message_id)
VALUES ($1, $2)
ON CONFLICT (workspace_id, message_id) DO NOTHING`
	res, err := r.DB.ExecContext(ctx, query, workspaceID, messageID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicate
	}
	return nil
}
