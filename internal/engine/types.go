package engine

import (
	"time"

	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/planner"
	"github.com/coursekit/engine/internal/store"
)

// CatalogSummary is the result of load_catalog: a head-count of what
// was published, for a caller to display without holding the full
// *catalog.Catalog.
type CatalogSummary struct {
	EngineVersion string
	Title         string
	WeekCount     int
	NodeCount     int
	CheckpointCount int
	SkillCount    int
}

// Award is the XP/mastery/streak delta produced by any graded event
// (lecture completion, quiz, challenge, checkpoint).
type Award struct {
	XPEarned        int64
	TotalXP         int64
	Level           int
	LeveledUp       bool
	StreakLength    int
	MasteryDeltas   map[string]float64 // skill id -> new score
	NewlyEarnedBadges []string
}

// QuizResult is submit_quiz's return value.
type QuizResult struct {
	ScorePct   float64
	Award      Award
	ReviewItem store.ReviewItem
}

// ChallengeResult is submit_challenge's return value.
type ChallengeResult struct {
	Verification sandboxVerificationView
	Award        Award
}

// sandboxVerificationView mirrors sandbox.VerificationResult; redefined
// here (rather than re-exporting the sandbox type) so the command
// surface's public result shapes don't leak an orchestrator-internal
// package into callers that only need the outcome.
type sandboxVerificationView struct {
	Success      bool
	TestsPassed  int
	TestsFailed  int
	RuntimeError string
	ElapsedMs    int64
}

// CheckpointResult is submit_checkpoint's return value.
type CheckpointResult struct {
	judge.CheckpointResult
	Award Award
}

// Plan is get_plan's return value.
type Plan = []planner.Activity

// SkillMastery is one entry in a dashboard's top-skills list.
type SkillMastery struct {
	SkillID       string
	SkillName     string
	RawScore      float64
	DecayedScore  float64
}

// RecentActivity is one entry in a dashboard's activity feed.
type RecentActivity struct {
	Kind string
	NodeID string
	At   time.Time
}

// Dashboard is get_dashboard's return value, per spec.md section 4.9:
// XP, level, progress to next level, streak and grace flag, top skills
// with decayed mastery, recent activity.
type Dashboard struct {
	CumulativeXP     int64
	Level            int
	XPIntoLevel      int64
	XPForNextLevel   int64
	StreakLength     int
	StreakInGrace    bool
	TopSkills        []SkillMastery
	RecentActivity   []RecentActivity
}
