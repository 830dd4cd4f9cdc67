package store

import (
	"context"
	"fmt"
)

// SandboxRepo stores sandbox run records. Only snapshot import writes
// them; the orphan reaper does not read them.
type SandboxRepo struct{}

// Insert records one sandbox run.
func (SandboxRepo) Insert(ctx context.Context, tx *Tx, r *SandboxRunRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sandbox_run_records
		(id, user_id, node_id, context_id, image, outcome, resource_limit_hit, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.NodeID, r.ContextID, r.Image, r.Outcome, r.ResourceLimitHit, r.ElapsedMs, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sandbox run record: %w", err)
	}
	return nil
}

// ListOutcomesByNode returns a user's sandbox run outcomes for one node,
// most recent first, for reporting dashboards.
func (SandboxRepo) ListOutcomesByNode(ctx context.Context, tx *Tx, userID, nodeID string) ([]SandboxRunRecord, error) {
	var rows []SandboxRunRecord
	err := tx.SelectContext(ctx, &rows, `SELECT id, user_id, node_id, context_id, image, outcome,
		resource_limit_hit, elapsed_ms, created_at
		FROM sandbox_run_records WHERE user_id = ? AND node_id = ? ORDER BY created_at DESC`, userID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list sandbox run records: %w", err)
	}
	return rows, nil
}
