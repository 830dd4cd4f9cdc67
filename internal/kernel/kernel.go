// Package kernel implements the Progression Kernel (C3): pure,
// deterministic functions for XP award, level threshold, mastery update
// and decay, streak transitions, and unlock evaluation. Nothing here
// touches a clock or the store — callers inject "now" and prior state,
// the same discipline the teacher applies to its fluency/rarity math in
// internal/gems and internal/mastery.
package kernel

import "math"

// NodeKind identifies the four curriculum node shapes.
type NodeKind string

const (
	KindLecture       NodeKind = "Lecture"
	KindQuiz          NodeKind = "Quiz"
	KindMiniChallenge NodeKind = "MiniChallenge"
	KindCheckpoint    NodeKind = "Checkpoint"
)

// Difficulty is the node difficulty band.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "Easy"
	DifficultyMedium   Difficulty = "Medium"
	DifficultyHard     Difficulty = "Hard"
	DifficultyVeryHard Difficulty = "VeryHard"
)

// BaseXP returns the undifficulty-adjusted XP for a node kind.
func BaseXP(kind NodeKind) int {
	switch kind {
	case KindLecture:
		return 25
	case KindQuiz:
		return 50
	case KindMiniChallenge:
		return 100
	case KindCheckpoint:
		return 200
	default:
		return 0
	}
}

// DifficultyMultiplier returns the XP multiplier for a difficulty band.
func DifficultyMultiplier(d Difficulty) float64 {
	switch d {
	case DifficultyEasy:
		return 1.0
	case DifficultyMedium:
		return 1.5
	case DifficultyHard:
		return 2.0
	case DifficultyVeryHard:
		return 3.0
	default:
		return 1.0
	}
}

// StreakMultiplier returns the XP multiplier for a streak length at
// award time.
func StreakMultiplier(streakLength int) float64 {
	switch {
	case streakLength <= 3:
		return 1.0
	case streakLength <= 7:
		return 1.1
	case streakLength <= 14:
		return 1.2
	case streakLength <= 30:
		return 1.3
	default:
		return 1.5
	}
}

// AccuracyMultiplier returns the XP multiplier for a performance
// fraction p in [0,1]. Lectures pass p=1.0.
func AccuracyMultiplier(p float64) float64 {
	switch {
	case p >= 1.0:
		return 1.5
	case p >= 0.9:
		return 1.3
	case p >= 0.8:
		return 1.1
	case p >= 0.7:
		return 1.0
	case p >= 0.6:
		return 0.8
	default:
		return 0.5
	}
}

// RoundHalfUp rounds x to the nearest integer, ties away from zero. The
// spec permits either half-up or banker's rounding as long as the choice
// is documented and deterministic; coursekit uses half-up throughout.
func RoundHalfUp(x float64) int64 {
	if x >= 0 {
		return int64(math.Floor(x + 0.5))
	}
	return -int64(math.Floor(-x + 0.5))
}

// AwardXP computes the XP earned for a single graded event.
func AwardXP(kind NodeKind, difficulty Difficulty, streakLength int, performance float64) int64 {
	xp := float64(BaseXP(kind)) *
		DifficultyMultiplier(difficulty) *
		StreakMultiplier(streakLength) *
		AccuracyMultiplier(performance)
	return RoundHalfUp(xp)
}

// LevelThreshold returns the total cumulative XP required to reach
// level n.
func LevelThreshold(n int) int64 {
	return int64(math.Floor(100 * math.Pow(float64(n), 1.5)))
}

// LevelForXP returns the largest level n such that LevelThreshold(n) <=
// cumulativeXP. Level 1 requires 0 XP (everyone starts there), so this
// never returns below 1.
func LevelForXP(cumulativeXP int64) int {
	level := 1
	for n := 2; ; n++ {
		if LevelThreshold(n) > cumulativeXP {
			break
		}
		level = n
	}
	return level
}

// UpdateMastery applies the EMA update toward a single graded
// performance observation, clamped to [0,1].
func UpdateMastery(old, performance float64) float64 {
	next := old + 0.25*(performance-old)
	return clamp01(next)
}

// MasteryDecayParams are the tunables read from configuration.
type MasteryDecayParams struct {
	GraceDays float64
	Rate      float64
	Floor     float64
}

// DefaultMasteryDecayParams matches spec.md's documented defaults.
func DefaultMasteryDecayParams() MasteryDecayParams {
	return MasteryDecayParams{GraceDays: 3, Rate: 0.05, Floor: 0.30}
}

// DecayMastery applies exponential decay for daysSinceUpdate days
// elapsed since the skill's last update, per spec.md section 4.3. No
// decay is applied within the grace window.
func DecayMastery(score float64, daysSinceUpdate float64, params MasteryDecayParams) float64 {
	if daysSinceUpdate <= params.GraceDays {
		return score
	}
	decayed := score * math.Exp(-params.Rate*(daysSinceUpdate-params.GraceDays))
	if decayed < params.Floor {
		return params.Floor
	}
	return decayed
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// StreakState is the persisted half of the streak state machine.
type StreakState struct {
	Length       int
	LastDate     string // YYYY-MM-DD, empty means never credited
	HasLastDate  bool
}

// UpdateStreak advances the streak state machine for a graded event on
// local calendar date d (YYYY-MM-DD), given the previous state.
// daysSince is the number of calendar days between d and prev.LastDate
// (only meaningful when prev.HasLastDate is true); callers compute it
// from their own calendar/timezone logic since the kernel has no time
// source.
func UpdateStreak(prev StreakState, d string, daysSince int) StreakState {
	if !prev.HasLastDate || daysSince >= 2 {
		return StreakState{Length: 1, LastDate: d, HasLastDate: true}
	}
	if daysSince == 1 {
		return StreakState{Length: prev.Length + 1, LastDate: d, HasLastDate: true}
	}
	// daysSince == 0: same day, no-op but LastDate stays d (it already is).
	return StreakState{Length: prev.Length, LastDate: d, HasLastDate: true}
}

// IsAvailable reports whether a node is Available given the completion
// status of its prerequisites. completed maps prerequisite node id ->
// completed.
func IsAvailable(prerequisites []string, completed map[string]bool) bool {
	for _, p := range prerequisites {
		if !completed[p] {
			return false
		}
	}
	return true
}
