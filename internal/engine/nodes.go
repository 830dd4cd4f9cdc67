package engine

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/kernel"
	"github.com/coursekit/engine/internal/store"
)

// completedSet builds the prerequisite-lookup map loadProgress-style
// callers need: node id -> true iff that user has completed it.
func completedSet(rows []store.NodeProgress) map[string]bool {
	m := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Status == "Completed" {
			m[r.NodeID] = true
		}
	}
	return m
}

// StartNode sets a node's status to InProgress if it is Available
// (prerequisites completed, not itself already completed); otherwise it
// returns NotUnlocked. Starting an already-InProgress node is a no-op.
func (e *Engine) StartNode(ctx context.Context, userID, nodeID string) error {
	start := time.Now()
	err := e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		cat := e.catalog.Current()
		if cat == nil || cat.NodeByID(nodeID) == nil {
			return ErrNotFound("node", nodeID)
		}
		node := cat.NodeByID(nodeID)

		var repos store.Repos
		rows, err := repos.Progress.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		completed := completedSet(rows)
		if completed[nodeID] {
			return ErrNotUnlocked(nodeID)
		}
		if !kernel.IsAvailable(node.Prerequisites, completed) {
			return ErrNotUnlocked(nodeID)
		}

		existing, err := repos.Progress.Get(ctx, tx, userID, nodeID)
		if err != nil {
			return err
		}
		now := time.Now()
		if existing != nil && existing.Status == "InProgress" {
			return nil
		}
		p := &store.NodeProgress{
			UserID: userID, NodeID: nodeID, Status: "InProgress",
			LastUpdatedAt: now,
		}
		if existing != nil {
			p.Attempts = existing.Attempts
			p.TimeSpentMinutes = existing.TimeSpentMinutes
			p.FirstStartedAt = existing.FirstStartedAt
		}
		if p.FirstStartedAt == nil {
			p.FirstStartedAt = &now
		}
		return repos.Progress.Upsert(ctx, tx, p)
	})
	e.commandEvent("start_node", start, err)
	return err
}

// CompleteLecture marks a Lecture node Completed and applies its XP and
// mastery award. A lecture has no graded performance dimension, so it
// always counts as a full-credit (performance=1.0) event.
func (e *Engine) CompleteLecture(ctx context.Context, userID, nodeID string, timeSpentMs int64) (*Award, error) {
	start := time.Now()
	var award *Award
	err := e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		cat := e.catalog.Current()
		node := cat.NodeByID(nodeID)
		if node == nil {
			return ErrNotFound("node", nodeID)
		}
		if node.Kind != "Lecture" {
			return ErrInvalidInput("node is not a Lecture")
		}

		var repos store.Repos
		rows, err := repos.Progress.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		completed := completedSet(rows)
		if completed[nodeID] {
			return ErrConflict("lecture already completed")
		}
		if !kernel.IsAvailable(node.Prerequisites, completed) {
			return ErrNotUnlocked(nodeID)
		}

		now := time.Now()
		existing, err := repos.Progress.Get(ctx, tx, userID, nodeID)
		p := &store.NodeProgress{UserID: userID, NodeID: nodeID, Status: "Completed", CompletedAt: &now, LastUpdatedAt: now}
		if err != nil {
			return err
		}
		if existing != nil {
			p.Attempts = existing.Attempts
			p.FirstStartedAt = existing.FirstStartedAt
			p.TimeSpentMinutes = existing.TimeSpentMinutes
		}
		p.Attempts++
		p.TimeSpentMinutes += int(timeSpentMs / 60000)
		if p.FirstStartedAt == nil {
			p.FirstStartedAt = &now
		}
		if err := repos.Progress.Upsert(ctx, tx, p); err != nil {
			return err
		}

		a, err := e.applyAward(ctx, tx, userID, kernel.KindLecture, kernel.Difficulty(node.Difficulty), 1.0, node.Skills, now)
		if err != nil {
			return err
		}
		award = a
		return nil
	})
	e.commandEvent("complete_lecture", start, err)
	if err != nil {
		return nil, err
	}
	return award, nil
}
