package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GradeCacheRepo persists judge verdicts keyed by content digest and
// artifact kind, letting a resubmission of identical content skip the
// judge call entirely per spec.md section 4.7.
type GradeCacheRepo struct{}

// Get fetches a cached verdict, or nil on a cache miss.
func (GradeCacheRepo) Get(ctx context.Context, tx *Tx, digest, kind string) (*GradeCacheEntry, error) {
	var g GradeCacheEntry
	err := tx.GetContext(ctx, &g, `SELECT content_digest, kind, grade, rationale_json, cached_at, hit_count
		FROM grade_cache_entries WHERE content_digest = ? AND kind = ?`, digest, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grade cache entry: %w", err)
	}
	return &g, nil
}

// Put inserts a new cache entry after a fresh judge call.
func (GradeCacheRepo) Put(ctx context.Context, tx *Tx, g *GradeCacheEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO grade_cache_entries
		(content_digest, kind, grade, rationale_json, cached_at, hit_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_digest, kind) DO UPDATE SET
			grade = excluded.grade,
			rationale_json = excluded.rationale_json,
			cached_at = excluded.cached_at`,
		g.ContentDigest, g.Kind, g.Grade, g.RationaleJSON, g.CachedAt, g.HitCount)
	if err != nil {
		return fmt.Errorf("put grade cache entry: %w", err)
	}
	return nil
}

// IncrementHit bumps the hit counter on a cache hit, for observability.
func (GradeCacheRepo) IncrementHit(ctx context.Context, tx *Tx, digest, kind string) error {
	_, err := tx.ExecContext(ctx, `UPDATE grade_cache_entries SET hit_count = hit_count + 1
		WHERE content_digest = ? AND kind = ?`, digest, kind)
	if err != nil {
		return fmt.Errorf("increment grade cache hit: %w", err)
	}
	return nil
}
