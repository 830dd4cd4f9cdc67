package engine

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/kernel"
	"github.com/coursekit/engine/internal/store"
	"github.com/google/uuid"
)

// SubmitCheckpoint grades every declared artifact kind against its
// rubric in parallel outside the DB lock (C7), then re-verifies the
// checkpoint's precondition and applies the aggregate award in one
// final transaction. Checkpoints always award at VeryHard difficulty
// per their fixed 200 base XP.
func (e *Engine) SubmitCheckpoint(ctx context.Context, userID, checkpointID string, artifacts map[string]string) (*CheckpointResult, error) {
	start := time.Now()
	result, err := e.submitCheckpoint(ctx, userID, checkpointID, artifacts)
	e.commandEvent("submit_checkpoint", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) submitCheckpoint(ctx context.Context, userID, checkpointID string, artifacts map[string]string) (*CheckpointResult, error) {
	var checkpoint *checkpointNode
	if err := e.withReadTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		c, err := e.checkCheckpointPrecondition(ctx, tx, userID, checkpointID)
		if err != nil {
			return err
		}
		checkpoint = c
		return nil
	}); err != nil {
		return nil, err
	}

	if len(checkpoint.artifacts) == 0 {
		return nil, ErrInvalidInput("checkpoint has no declared artifact kinds")
	}

	submissions := make([]judge.ArtifactSubmission, 0, len(checkpoint.artifacts))
	for _, kind := range checkpoint.artifacts {
		text, ok := artifacts[kind]
		if !ok {
			return nil, ErrInvalidInput("missing artifact for kind " + kind)
		}
		rubricPath, ok := checkpoint.rubricPathPerKind[kind]
		if !ok {
			return nil, ErrInvalidInput("no rubric configured for kind " + kind)
		}
		rf, err := e.loadRubricFile(rubricPath)
		if err != nil {
			return nil, wrapErr(KindInvalidInput, err)
		}
		categories := make([]judge.Category, 0, len(rf.Categories))
		for _, c := range rf.Categories {
			categories = append(categories, judge.Category{Name: c.Name, MaxPoints: c.MaxPoints, Descriptors: c.Descriptors})
		}
		submissions = append(submissions, judge.ArtifactSubmission{
			Kind:     kind,
			Rubric:   judge.Rubric{Kind: kind, Categories: categories},
			Artifact: text,
		})
	}

	now := time.Now()
	gradeResult, err := withJudgeRetry(ctx, func() (*judge.CheckpointResult, error) {
		return e.judge.GradeCheckpoint(ctx, userID, submissions, now)
	})
	if err != nil {
		return nil, classify(err)
	}

	var result *CheckpointResult
	err = e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if _, err := e.checkCheckpointPrecondition(ctx, tx, userID, checkpointID); err != nil {
			return err
		}

		var repos store.Repos
		existing, err := repos.Progress.Get(ctx, tx, userID, checkpointID)
		if err != nil {
			return err
		}
		p := &store.NodeProgress{UserID: userID, NodeID: checkpointID, LastUpdatedAt: now}
		if existing != nil {
			p.Attempts = existing.Attempts
			p.FirstStartedAt = existing.FirstStartedAt
			p.TimeSpentMinutes = existing.TimeSpentMinutes
		}
		p.Attempts++
		if p.FirstStartedAt == nil {
			p.FirstStartedAt = &now
		}
		if gradeResult.Passing {
			p.Status = "Completed"
			p.CompletedAt = &now
		} else {
			p.Status = "InProgress"
		}
		if err := repos.Progress.Upsert(ctx, tx, p); err != nil {
			return err
		}

		award := &Award{}
		if gradeResult.Passing {
			a, err := e.applyAward(ctx, tx, userID, kernel.KindCheckpoint, kernel.DifficultyVeryHard, float64(gradeResult.OverallScore)/100, nil, now)
			if err != nil {
				return err
			}
			award = a
		}

		perArtifactXP := award.XPEarned
		if n := len(submissions); n > 0 {
			perArtifactXP = award.XPEarned / int64(n)
		}
		for _, sub := range submissions {
			verdict := gradeResult.PerKind[sub.Kind]
			grade := float64(verdict.TotalScore)
			rationaleJSON := verdict.Feedback
			gradedAt := now
			submission := &store.ArtifactSubmission{
				ID: uuid.NewString(), UserID: userID, NodeID: checkpointID,
				Kind: sub.Kind, ContentDigest: judge.Digest(sub.Kind, judge.Normalize(sub.Artifact)),
				Grade: &grade, RationaleJSON: &rationaleJSON,
				XPEarned: perArtifactXP, SubmittedAt: now, GradedAt: &gradedAt,
			}
			if err := repos.Attempts.InsertArtifact(ctx, tx, submission); err != nil {
				return err
			}
		}

		perKindView := make(map[string]judge.Verdict, len(gradeResult.PerKind))
		for k, v := range gradeResult.PerKind {
			perKindView[k] = v
		}
		result = &CheckpointResult{
			CheckpointResult: judge.CheckpointResult{
				OverallScore: gradeResult.OverallScore, Passing: gradeResult.Passing, PerKind: perKindView,
			},
			Award: *award,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type checkpointNode struct {
	artifacts         []string
	rubricPathPerKind map[string]string
}

// checkCheckpointPrecondition verifies a checkpoint exists, is
// unlocked, and is not already completed.
func (e *Engine) checkCheckpointPrecondition(ctx context.Context, tx *store.Tx, userID, checkpointID string) (*checkpointNode, error) {
	cat := e.catalog.Current()
	cp := cat.CheckpointByID(checkpointID)
	if cp == nil {
		return nil, ErrNotFound("checkpoint", checkpointID)
	}

	var repos store.Repos
	rows, err := repos.Progress.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	completed := completedSet(rows)
	if completed[checkpointID] {
		return nil, ErrConflict("checkpoint already completed")
	}
	if !kernel.IsAvailable(cp.Prerequisites, completed) {
		return nil, ErrNotUnlocked(checkpointID)
	}

	return &checkpointNode{artifacts: cp.Artifacts, rubricPathPerKind: cp.RubricPathPerKind}, nil
}
