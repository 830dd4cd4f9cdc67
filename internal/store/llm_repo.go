package store

import (
	"context"
	"fmt"
)

// LLMRepo logs judge calls for quota accounting and cost observability.
type LLMRepo struct{}

// Insert records one completed (or failed) judge call.
func (LLMRepo) Insert(ctx context.Context, tx *Tx, r *LLMCallRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO llm_call_records
		(id, user_id, call_date, provider, model, purpose, input_tokens, output_tokens,
		 cost_cents, latency_ms, success, error_message, cache_hit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.CallDate, r.Provider, r.Model, r.Purpose, r.InputTokens, r.OutputTokens,
		r.CostCents, r.LatencyMs, r.Success, r.ErrorMessage, r.CacheHit, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert llm call record: %w", err)
	}
	return nil
}

// CountForUserOnDate returns how many non-cached judge calls a user has
// made on a given local calendar date, for daily-quota enforcement.
func (LLMRepo) CountForUserOnDate(ctx context.Context, tx *Tx, userID, date string) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM llm_call_records
		WHERE user_id = ? AND call_date = ? AND cache_hit = 0`, userID, date)
	if err != nil {
		return 0, fmt.Errorf("count llm calls: %w", err)
	}
	return n, nil
}
