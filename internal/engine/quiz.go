package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coursekit/engine/internal/kernel"
	"github.com/coursekit/engine/internal/review"
	"github.com/coursekit/engine/internal/store"
	"github.com/google/uuid"
)

// SubmitQuiz grades a quiz node's answers against its body file, awards
// XP/mastery for the scored performance, marks the node Completed, and
// upserts its spaced-repetition review item. Quiz grading has no
// external I/O, so this runs as one transaction rather than the
// two-phase pattern submit_challenge/submit_checkpoint need.
func (e *Engine) SubmitQuiz(ctx context.Context, userID, nodeID string, answers map[string]string) (*QuizResult, error) {
	start := time.Now()
	var result *QuizResult
	err := e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		cat := e.catalog.Current()
		node := cat.NodeByID(nodeID)
		if node == nil {
			return ErrNotFound("node", nodeID)
		}
		if node.Kind != "Quiz" {
			return ErrInvalidInput("node is not a Quiz")
		}

		var repos store.Repos
		rows, err := repos.Progress.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		completed := completedSet(rows)
		if completed[nodeID] {
			return ErrConflict("quiz already completed")
		}
		if !kernel.IsAvailable(node.Prerequisites, completed) {
			return ErrNotUnlocked(nodeID)
		}

		body, err := e.loadQuizBody(node.BodyPath)
		if err != nil {
			return wrapErr(KindInvalidInput, err)
		}
		scorePct := scoreQuiz(body, answers)
		now := time.Now()

		existing, err := repos.Progress.Get(ctx, tx, userID, nodeID)
		if err != nil {
			return err
		}
		p := &store.NodeProgress{UserID: userID, NodeID: nodeID, Status: "Completed", CompletedAt: &now, LastUpdatedAt: now}
		if existing != nil {
			p.Attempts = existing.Attempts
			p.FirstStartedAt = existing.FirstStartedAt
			p.TimeSpentMinutes = existing.TimeSpentMinutes
		}
		p.Attempts++
		if p.FirstStartedAt == nil {
			p.FirstStartedAt = &now
		}
		if err := repos.Progress.Upsert(ctx, tx, p); err != nil {
			return err
		}

		award, err := e.applyAward(ctx, tx, userID, kernel.KindQuiz, kernel.Difficulty(node.Difficulty), scorePct/100, node.Skills, now)
		if err != nil {
			return err
		}

		answersJSON, err := json.Marshal(answers)
		if err != nil {
			return err
		}
		attempt := &store.QuizAttempt{
			ID: uuid.NewString(), UserID: userID, NodeID: nodeID,
			AnswersJSON: string(answersJSON), ScorePct: scorePct,
			XPEarned: award.XPEarned, SubmittedAt: now,
		}
		if err := repos.Attempts.InsertQuiz(ctx, tx, attempt); err != nil {
			return err
		}

		sched := review.New(e.store)
		item, err := sched.Record(ctx, tx, userID, nodeID, scorePct, now)
		if err != nil {
			return err
		}

		result = &QuizResult{ScorePct: scorePct, Award: *award, ReviewItem: *item}
		return nil
	})
	e.commandEvent("submit_quiz", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}
