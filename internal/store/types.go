package store

import "time"

// User is the single learner profile row. coursekit is single-user per
// database, but the row is keyed by id the same way the teacher keys
// its profile row, so multi-profile support is a schema no-op later.
type User struct {
	ID             string    `db:"id"`
	DisplayName    string    `db:"display_name"`
	CreatedAt      time.Time `db:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at"`
	CumulativeXP   int64     `db:"cumulative_xp"`
	Level          int       `db:"level"`
	StreakLength   int       `db:"streak_length"`
	LastStreakDate *string   `db:"last_streak_date"`
}

// NodeProgress tracks a user's completion state for one curriculum node.
type NodeProgress struct {
	UserID            string     `db:"user_id"`
	NodeID            string     `db:"node_id"`
	Status            string     `db:"status"`
	Attempts          int        `db:"attempts"`
	TimeSpentMinutes  int        `db:"time_spent_minutes"`
	FirstStartedAt    *time.Time `db:"first_started_at"`
	CompletedAt       *time.Time `db:"completed_at"`
	LastUpdatedAt     time.Time  `db:"last_updated_at"`
}

// MasteryScore is the continuous [0,1] EMA mastery estimate for one
// skill.
type MasteryScore struct {
	UserID        string    `db:"user_id"`
	SkillID       string    `db:"skill_id"`
	Score         float64   `db:"score"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// QuizAttempt records one quiz submission and its outcome.
type QuizAttempt struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	NodeID      string    `db:"node_id"`
	AnswersJSON string    `db:"answers_json"`
	ScorePct    float64   `db:"score_pct"`
	XPEarned    int64     `db:"xp_earned"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// ChallengeAttempt records one sandboxed code-challenge submission.
type ChallengeAttempt struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	NodeID       string    `db:"node_id"`
	CodeDigest   string    `db:"code_digest"`
	TestsPassed  int       `db:"tests_passed"`
	TestsFailed  int       `db:"tests_failed"`
	Stdout       string    `db:"stdout"`
	Stderr       string    `db:"stderr"`
	XPEarned     int64     `db:"xp_earned"`
	SubmittedAt  time.Time `db:"submitted_at"`
}

// ArtifactSubmission records one free-form artifact graded by the judge.
type ArtifactSubmission struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	NodeID        string     `db:"node_id"`
	Kind          string     `db:"kind"`
	ContentDigest string     `db:"content_digest"`
	Grade         *float64   `db:"grade"`
	RationaleJSON *string    `db:"rationale_json"`
	XPEarned      int64      `db:"xp_earned"`
	SubmittedAt   time.Time  `db:"submitted_at"`
	GradedAt      *time.Time `db:"graded_at"`
}

// ReviewItem is the SM-2 scheduling state for one due quiz.
type ReviewItem struct {
	UserID         string     `db:"user_id"`
	QuizNodeID     string     `db:"quiz_node_id"`
	NextDueDate    string     `db:"next_due_date"`
	EaseFactor     float64    `db:"ease_factor"`
	IntervalDays   int        `db:"interval_days"`
	Repetitions    int        `db:"repetitions"`
	LastReviewedAt *time.Time `db:"last_reviewed_at"`
}

// BadgeProgress tracks a user's earned/in-progress state for one badge.
type BadgeProgress struct {
	UserID   string     `db:"user_id"`
	BadgeID  string     `db:"badge_id"`
	Progress float64    `db:"progress"`
	EarnedAt *time.Time `db:"earned_at"`
}

// GradeCacheEntry is a cached judge verdict keyed by content digest and
// artifact kind, per spec.md section 4.7's cache-by-digest contract.
type GradeCacheEntry struct {
	ContentDigest string    `db:"content_digest"`
	Kind          string    `db:"kind"`
	Grade         float64   `db:"grade"`
	RationaleJSON string    `db:"rationale_json"`
	CachedAt      time.Time `db:"cached_at"`
	HitCount      int64     `db:"hit_count"`
}

// Session is one planned-and-worked study session.
type Session struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	XPAccumulated int64      `db:"xp_accumulated"`
}

// SessionActivity is one planned step within a Session, in order.
type SessionActivity struct {
	SessionID string `db:"session_id"`
	Seq       int    `db:"seq"`
	NodeID    string `db:"node_id"`
	Kind      string `db:"kind"`
}

// LLMCallRecord logs one judge call for quota accounting and cost
// observability, mirroring the teacher's llm usage-logging shape.
type LLMCallRecord struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	CallDate     string    `db:"call_date"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int64     `db:"input_tokens"`
	OutputTokens int64     `db:"output_tokens"`
	CostCents    float64   `db:"cost_cents"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	CacheHit     bool      `db:"cache_hit"`
	CreatedAt    time.Time `db:"created_at"`
}

// SandboxRunRecord describes one sandboxed execution: context, image,
// outcome, resource limit hit, and elapsed time.
type SandboxRunRecord struct {
	ID                string    `db:"id"`
	UserID            string    `db:"user_id"`
	NodeID            string    `db:"node_id"`
	ContextID         string    `db:"context_id"`
	Image             string    `db:"image"`
	Outcome           string    `db:"outcome"`
	ResourceLimitHit  string    `db:"resource_limit_hit"`
	ElapsedMs         int64     `db:"elapsed_ms"`
	CreatedAt         time.Time `db:"created_at"`
}
