package store

import (
	"context"
	"fmt"
)

// Snapshot is the single UTF-8 JSON document described in spec.md
// section 6: a schema_version plus sections mirroring the data model in
// section 3. time.Time fields round-trip through encoding/json's
// RFC3339 marshaling, matching the teacher's export convention.
type Snapshot struct {
	SchemaVersion int `json:"schema_version"`

	Users             []User               `json:"users"`
	NodeProgress      []NodeProgress       `json:"node_progress"`
	MasteryScores     []MasteryScore       `json:"mastery_scores"`
	QuizAttempts      []QuizAttempt        `json:"quiz_attempts"`
	ChallengeAttempts []ChallengeAttempt   `json:"challenge_attempts"`
	Artifacts         []ArtifactSubmission `json:"artifact_submissions"`
	ReviewItems       []ReviewItem         `json:"review_items"`
	BadgeProgress     []BadgeProgress      `json:"badge_progress"`
	GradeCache        []GradeCacheEntry    `json:"grade_cache_entries"`
	Sessions          []Session            `json:"sessions"`
	SessionActivities []SessionActivity    `json:"session_activities"`
	LLMCallRecords    []LLMCallRecord      `json:"llm_call_records"`
	SandboxRunRecords []SandboxRunRecord   `json:"sandbox_run_records"`
}

// Export reads the entire persisted state into a Snapshot inside one
// read-only transaction, giving callers a consistent point-in-time copy.
func (s *Store) Export(ctx context.Context) (*Snapshot, error) {
	version, err := CurrentSchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("resolve schema version: %w", err)
	}
	snap := &Snapshot{SchemaVersion: version}

	err = s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		tables := []struct {
			name string
			dest interface{}
			sql  string
		}{
			{"users", &snap.Users, `SELECT id, display_name, created_at, last_activity_at,
				cumulative_xp, level, streak_length, last_streak_date FROM users`},
			{"node_progress", &snap.NodeProgress, `SELECT user_id, node_id, status, attempts,
				time_spent_minutes, first_started_at, completed_at, last_updated_at FROM node_progress`},
			{"mastery_scores", &snap.MasteryScores, `SELECT user_id, skill_id, score, last_updated_at FROM mastery_scores`},
			{"quiz_attempts", &snap.QuizAttempts, `SELECT id, user_id, node_id, answers_json, score_pct,
				xp_earned, submitted_at FROM quiz_attempts`},
			{"challenge_attempts", &snap.ChallengeAttempts, `SELECT id, user_id, node_id, code_digest,
				tests_passed, tests_failed, stdout, stderr, xp_earned, submitted_at FROM challenge_attempts`},
			{"artifact_submissions", &snap.Artifacts, `SELECT id, user_id, node_id, kind, content_digest,
				grade, rationale_json, xp_earned, submitted_at, graded_at FROM artifact_submissions`},
			{"review_items", &snap.ReviewItems, `SELECT user_id, quiz_node_id, next_due_date, ease_factor,
				interval_days, repetitions, last_reviewed_at FROM review_items`},
			{"badge_progress", &snap.BadgeProgress, `SELECT user_id, badge_id, progress, earned_at FROM badge_progress`},
			{"grade_cache_entries", &snap.GradeCache, `SELECT content_digest, kind, grade, rationale_json,
				cached_at, hit_count FROM grade_cache_entries`},
			{"sessions", &snap.Sessions, `SELECT id, user_id, started_at, ended_at, xp_accumulated FROM sessions`},
			{"session_activities", &snap.SessionActivities, `SELECT session_id, seq, node_id, kind FROM session_activities`},
			{"llm_call_records", &snap.LLMCallRecords, `SELECT id, user_id, call_date, provider, model,
				purpose, input_tokens, output_tokens, cost_cents, latency_ms, success, error_message,
				cache_hit, created_at FROM llm_call_records`},
			{"sandbox_run_records", &snap.SandboxRunRecords, `SELECT id, user_id, node_id, context_id,
				image, outcome, resource_limit_hit, elapsed_ms, created_at FROM sandbox_run_records`},
		}
		for _, t := range tables {
			if err := tx.SelectContext(ctx, t.dest, t.sql); err != nil {
				return fmt.Errorf("export %s: %w", t.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Import replaces the entire database contents with snap inside one
// write transaction. A snapshot stamped with a schema version newer
// than this build supports is rejected with ErrStorageCorrupt, per
// spec.md section 6.
func (s *Store) Import(ctx context.Context, snap *Snapshot) error {
	current, err := CurrentSchemaVersion()
	if err != nil {
		return fmt.Errorf("resolve schema version: %w", err)
	}
	if snap.SchemaVersion > current {
		return &ErrStorageCorrupt{Err: fmt.Errorf(
			"snapshot schema version %d newer than supported version %d", snap.SchemaVersion, current)}
	}

	return s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		clearTables := []string{
			"users", "node_progress", "mastery_scores", "quiz_attempts", "challenge_attempts",
			"artifact_submissions", "review_items", "badge_progress", "grade_cache_entries",
			"sessions", "session_activities", "llm_call_records", "sandbox_run_records",
		}
		for _, t := range clearTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("clear %s: %w", t, err)
			}
		}

		var repos Repos
		for i := range snap.Users {
			if err := repos.Users.Create(ctx, tx, &snap.Users[i]); err != nil {
				return fmt.Errorf("import user: %w", err)
			}
		}
		for i := range snap.NodeProgress {
			if err := repos.Progress.Upsert(ctx, tx, &snap.NodeProgress[i]); err != nil {
				return fmt.Errorf("import node progress: %w", err)
			}
		}
		for i := range snap.MasteryScores {
			if err := repos.Mastery.Upsert(ctx, tx, &snap.MasteryScores[i]); err != nil {
				return fmt.Errorf("import mastery score: %w", err)
			}
		}
		for i := range snap.QuizAttempts {
			if err := repos.Attempts.InsertQuiz(ctx, tx, &snap.QuizAttempts[i]); err != nil {
				return fmt.Errorf("import quiz attempt: %w", err)
			}
		}
		for i := range snap.ChallengeAttempts {
			if err := repos.Attempts.InsertChallenge(ctx, tx, &snap.ChallengeAttempts[i]); err != nil {
				return fmt.Errorf("import challenge attempt: %w", err)
			}
		}
		for i := range snap.Artifacts {
			if err := repos.Attempts.InsertArtifact(ctx, tx, &snap.Artifacts[i]); err != nil {
				return fmt.Errorf("import artifact submission: %w", err)
			}
		}
		for i := range snap.ReviewItems {
			if err := repos.Review.Upsert(ctx, tx, &snap.ReviewItems[i]); err != nil {
				return fmt.Errorf("import review item: %w", err)
			}
		}
		for i := range snap.BadgeProgress {
			if err := repos.Badges.Upsert(ctx, tx, &snap.BadgeProgress[i]); err != nil {
				return fmt.Errorf("import badge progress: %w", err)
			}
		}
		for i := range snap.GradeCache {
			if err := repos.GradeCache.Put(ctx, tx, &snap.GradeCache[i]); err != nil {
				return fmt.Errorf("import grade cache entry: %w", err)
			}
		}
		for i := range snap.Sessions {
			if err := repos.Sessions.Create(ctx, tx, &snap.Sessions[i]); err != nil {
				return fmt.Errorf("import session: %w", err)
			}
		}
		for i := range snap.SessionActivities {
			if err := repos.Sessions.InsertActivity(ctx, tx, &snap.SessionActivities[i]); err != nil {
				return fmt.Errorf("import session activity: %w", err)
			}
		}
		for i := range snap.LLMCallRecords {
			if err := repos.LLM.Insert(ctx, tx, &snap.LLMCallRecords[i]); err != nil {
				return fmt.Errorf("import llm call record: %w", err)
			}
		}
		for i := range snap.SandboxRunRecords {
			if err := repos.Sandbox.Insert(ctx, tx, &snap.SandboxRunRecords[i]); err != nil {
				return fmt.Errorf("import sandbox run record: %w", err)
			}
		}
		return nil
	})
}
