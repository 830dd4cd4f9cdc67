package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AttemptRepo persists quiz, challenge, and artifact submissions. All
// three are append-only logs keyed by a generated id, mirroring the
// event-record shape the teacher uses for answer/gem events.
type AttemptRepo struct{}

// InsertQuiz records one quiz submission.
func (AttemptRepo) InsertQuiz(ctx context.Context, tx *Tx, a *QuizAttempt) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO quiz_attempts
		(id, user_id, node_id, answers_json, score_pct, xp_earned, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.NodeID, a.AnswersJSON, a.ScorePct, a.XPEarned, a.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

// ListQuizByNode returns a user's quiz attempts for one node, most
// recent first.
func (AttemptRepo) ListQuizByNode(ctx context.Context, tx *Tx, userID, nodeID string) ([]QuizAttempt, error) {
	var rows []QuizAttempt
	err := tx.SelectContext(ctx, &rows, `SELECT id, user_id, node_id, answers_json, score_pct, xp_earned, submitted_at
		FROM quiz_attempts WHERE user_id = ? AND node_id = ? ORDER BY submitted_at DESC`, userID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return rows, nil
}

// InsertChallenge records one sandboxed challenge submission.
func (AttemptRepo) InsertChallenge(ctx context.Context, tx *Tx, a *ChallengeAttempt) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO challenge_attempts
		(id, user_id, node_id, code_digest, tests_passed, tests_failed, stdout, stderr, xp_earned, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.NodeID, a.CodeDigest, a.TestsPassed, a.TestsFailed,
		a.Stdout, a.Stderr, a.XPEarned, a.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert challenge attempt: %w", err)
	}
	return nil
}

// ListChallengeByNode returns a user's challenge attempts for one node,
// most recent first.
func (AttemptRepo) ListChallengeByNode(ctx context.Context, tx *Tx, userID, nodeID string) ([]ChallengeAttempt, error) {
	var rows []ChallengeAttempt
	err := tx.SelectContext(ctx, &rows, `SELECT id, user_id, node_id, code_digest, tests_passed, tests_failed,
		stdout, stderr, xp_earned, submitted_at
		FROM challenge_attempts WHERE user_id = ? AND node_id = ? ORDER BY submitted_at DESC`, userID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list challenge attempts: %w", err)
	}
	return rows, nil
}

// InsertArtifact records a new artifact submission awaiting grading.
func (AttemptRepo) InsertArtifact(ctx context.Context, tx *Tx, a *ArtifactSubmission) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO artifact_submissions
		(id, user_id, node_id, kind, content_digest, grade, rationale_json, xp_earned, submitted_at, graded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.NodeID, a.Kind, a.ContentDigest, a.Grade, a.RationaleJSON,
		a.XPEarned, a.SubmittedAt, a.GradedAt)
	if err != nil {
		return fmt.Errorf("insert artifact submission: %w", err)
	}
	return nil
}

// UpdateArtifactGrade stamps a submission with its judge verdict.
func (AttemptRepo) UpdateArtifactGrade(ctx context.Context, tx *Tx, a *ArtifactSubmission) error {
	res, err := tx.ExecContext(ctx, `UPDATE artifact_submissions SET
		grade = ?, rationale_json = ?, xp_earned = ?, graded_at = ?
		WHERE id = ?`,
		a.Grade, a.RationaleJSON, a.XPEarned, a.GradedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update artifact grade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update artifact grade rows affected: %w", err)
	}
	if n == 0 {
		return &ErrNotFound{Entity: "artifact_submission", ID: a.ID}
	}
	return nil
}

// GetArtifact fetches one artifact submission by id.
func (AttemptRepo) GetArtifact(ctx context.Context, tx *Tx, id string) (*ArtifactSubmission, error) {
	var a ArtifactSubmission
	err := tx.GetContext(ctx, &a, `SELECT id, user_id, node_id, kind, content_digest, grade,
		rationale_json, xp_earned, submitted_at, graded_at
		FROM artifact_submissions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "artifact_submission", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact submission: %w", err)
	}
	return &a, nil
}
