package engine

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/kernel"
	"github.com/coursekit/engine/internal/sandbox"
	"github.com/coursekit/engine/internal/store"
	"github.com/google/uuid"
)

// SubmitChallenge runs a MiniChallenge node's code in the sandbox
// outside the store lock, then applies the resulting award in its own
// transaction, per the two-phase pattern: read the precondition, run
// the sandbox, recheck the precondition still holds, then commit.
func (e *Engine) SubmitChallenge(ctx context.Context, userID, nodeID, code string) (*ChallengeResult, error) {
	start := time.Now()
	result, err := e.submitChallenge(ctx, userID, nodeID, code)
	e.commandEvent("submit_challenge", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) submitChallenge(ctx context.Context, userID, nodeID, code string) (*ChallengeResult, error) {
	var node *challengeNode
	if err := e.withReadTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		n, err := e.checkChallengePrecondition(ctx, tx, userID, nodeID)
		if err != nil {
			return err
		}
		node = n
		return nil
	}); err != nil {
		return nil, err
	}

	body, err := e.loadChallengeBody(node.bodyPath)
	if err != nil {
		return nil, wrapErr(KindInvalidInput, err)
	}

	verification, err := e.sandbox.Run(ctx, sandbox.Submission{
		UserID: userID, NodeID: nodeID,
		Image: body.Image, BuildManifest: body.BuildManifest,
		TestCode: body.TestCode, StudentCode: code,
	})
	if err != nil {
		return nil, classify(err)
	}

	var result *ChallengeResult
	err = e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if _, err := e.checkChallengePrecondition(ctx, tx, userID, nodeID); err != nil {
			return err
		}

		var repos store.Repos
		now := time.Now()
		existing, err := repos.Progress.Get(ctx, tx, userID, nodeID)
		if err != nil {
			return err
		}
		p := &store.NodeProgress{UserID: userID, NodeID: nodeID, LastUpdatedAt: now}
		if existing != nil {
			p.Attempts = existing.Attempts
			p.FirstStartedAt = existing.FirstStartedAt
			p.TimeSpentMinutes = existing.TimeSpentMinutes
		}
		p.Attempts++
		if p.FirstStartedAt == nil {
			p.FirstStartedAt = &now
		}
		if verification.Success {
			p.Status = "Completed"
			p.CompletedAt = &now
		} else {
			p.Status = "InProgress"
		}
		if err := repos.Progress.Upsert(ctx, tx, p); err != nil {
			return err
		}

		performance := 0.0
		if verification.Success {
			performance = 1.0
		} else if verification.TestsPassed+verification.TestsFailed > 0 {
			performance = float64(verification.TestsPassed) / float64(verification.TestsPassed+verification.TestsFailed)
		}

		award := &Award{}
		if verification.Success {
			a, err := e.applyAward(ctx, tx, userID, kernel.KindMiniChallenge, kernel.Difficulty(node.difficulty), performance, node.skills, now)
			if err != nil {
				return err
			}
			award = a
		}

		attempt := &store.ChallengeAttempt{
			ID: uuid.NewString(), UserID: userID, NodeID: nodeID,
			CodeDigest:  judge.Digest("challenge", code),
			TestsPassed: verification.TestsPassed, TestsFailed: verification.TestsFailed,
			Stdout: verification.Stdout, Stderr: verification.Stderr,
			XPEarned: award.XPEarned, SubmittedAt: now,
		}
		if err := repos.Attempts.InsertChallenge(ctx, tx, attempt); err != nil {
			return err
		}

		result = &ChallengeResult{
			Verification: sandboxVerificationView{
				Success: verification.Success, TestsPassed: verification.TestsPassed,
				TestsFailed: verification.TestsFailed, RuntimeError: string(verification.RuntimeError),
				ElapsedMs: verification.ElapsedMs,
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

type challengeNode struct {
	bodyPath   string
	difficulty string
	skills     []string
}

// checkChallengePrecondition verifies a challenge node exists, is
// unlocked, and is not already completed. Shared by both phases of
// SubmitChallenge so the second check re-validates exactly what the
// first one did.
func (e *Engine) checkChallengePrecondition(ctx context.Context, tx *store.Tx, userID, nodeID string) (*challengeNode, error) {
	cat := e.catalog.Current()
	node := cat.NodeByID(nodeID)
	if node == nil {
		return nil, ErrNotFound("node", nodeID)
	}
	if node.Kind != "MiniChallenge" {
		return nil, ErrInvalidInput("node is not a MiniChallenge")
	}

	var repos store.Repos
	rows, err := repos.Progress.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	completed := completedSet(rows)
	if completed[nodeID] {
		return nil, ErrConflict("challenge already completed")
	}
	if !kernel.IsAvailable(node.Prerequisites, completed) {
		return nil, ErrNotUnlocked(nodeID)
	}

	return &challengeNode{bodyPath: node.BodyPath, difficulty: node.Difficulty, skills: node.Skills}, nil
}
