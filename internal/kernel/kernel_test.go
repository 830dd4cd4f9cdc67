package kernel

import (
	"math"
	"testing"
)

const epsilon = 0.0001

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestAwardXP_ScenarioA(t *testing.T) {
	// Scenario A from the testable properties: total_xp=95, streak=5,
	// level=1, quiz 80% -> award 91.
	xp := AwardXP(KindQuiz, DifficultyMedium, 5, 0.8)
	if xp != 91 {
		t.Errorf("AwardXP = %d, want 91", xp)
	}
}

func TestAwardXP_LectureAlwaysFullAccuracy(t *testing.T) {
	xp := AwardXP(KindLecture, DifficultyEasy, 0, 1.0)
	// 25 * 1.0 * 1.0 * 1.5 = 37.5 -> 38 (half-up)
	if xp != 38 {
		t.Errorf("AwardXP = %d, want 38", xp)
	}
}

func TestStreakMultiplier(t *testing.T) {
	tests := []struct {
		length int
		want   float64
	}{
		{0, 1.0}, {3, 1.0}, {4, 1.1}, {7, 1.1}, {8, 1.2}, {14, 1.2},
		{15, 1.3}, {30, 1.3}, {31, 1.5}, {100, 1.5},
	}
	for _, tt := range tests {
		got := StreakMultiplier(tt.length)
		if !almostEqual(got, tt.want) {
			t.Errorf("StreakMultiplier(%d) = %v, want %v", tt.length, got, tt.want)
		}
	}
}

func TestAccuracyMultiplier(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
	}{
		{1.0, 1.5}, {0.95, 1.3}, {0.9, 1.3}, {0.85, 1.1}, {0.8, 1.1},
		{0.75, 1.0}, {0.7, 1.0}, {0.65, 0.8}, {0.6, 0.8}, {0.59, 0.5}, {0.0, 0.5},
	}
	for _, tt := range tests {
		got := AccuracyMultiplier(tt.p)
		if !almostEqual(got, tt.want) {
			t.Errorf("AccuracyMultiplier(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0.4, 0}, {0.5, 1}, {1.5, 2}, {2.5, 3}, {-0.5, -1}, {-1.5, -2}, {91.0, 91},
	}
	for _, tt := range tests {
		got := RoundHalfUp(tt.in)
		if got != tt.want {
			t.Errorf("RoundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLevelThresholdAndLevelForXP(t *testing.T) {
	// Scenario A: threshold for level 2 is floor(100*2^1.5) = 282.
	if got := LevelThreshold(2); got != 282 {
		t.Errorf("LevelThreshold(2) = %d, want 282", got)
	}
	if got := LevelForXP(186); got != 1 {
		t.Errorf("LevelForXP(186) = %d, want 1", got)
	}
	if got := LevelForXP(282); got != 2 {
		t.Errorf("LevelForXP(282) = %d, want 2", got)
	}
	if got := LevelForXP(0); got != 1 {
		t.Errorf("LevelForXP(0) = %d, want 1", got)
	}
}

func TestUpdateMastery(t *testing.T) {
	got := UpdateMastery(0.5, 0.8)
	if !almostEqual(got, 0.575) {
		t.Errorf("UpdateMastery(0.5, 0.8) = %v, want 0.575", got)
	}
}

func TestUpdateMasteryClamps(t *testing.T) {
	if got := UpdateMastery(0.95, 1.0); got > 1.0 {
		t.Errorf("UpdateMastery should clamp to 1.0, got %v", got)
	}
	if got := UpdateMastery(0.05, 0.0); got < 0.0 {
		t.Errorf("UpdateMastery should clamp to 0.0, got %v", got)
	}
}

func TestDecayMastery_WithinGrace(t *testing.T) {
	params := DefaultMasteryDecayParams()
	got := DecayMastery(0.8, 3, params)
	if got != 0.8 {
		t.Errorf("DecayMastery within grace = %v, want unchanged 0.8", got)
	}
}

func TestDecayMastery_PastGraceNeverExceedsPrior(t *testing.T) {
	params := DefaultMasteryDecayParams()
	got := DecayMastery(0.8, 10, params)
	if got > 0.8 {
		t.Errorf("decayed score %v must not exceed prior 0.8", got)
	}
	if got < params.Floor {
		t.Errorf("decayed score %v must not fall below floor %v", got, params.Floor)
	}
}

func TestDecayMastery_FloorIsRespected(t *testing.T) {
	params := DefaultMasteryDecayParams()
	got := DecayMastery(0.31, 1000, params)
	if got != params.Floor {
		t.Errorf("DecayMastery long elapsed = %v, want floor %v", got, params.Floor)
	}
}

func TestUpdateStreak(t *testing.T) {
	tests := []struct {
		name       string
		prev       StreakState
		date       string
		daysSince  int
		wantLength int
	}{
		{"first ever", StreakState{}, "2026-07-31", 0, 1},
		{"consecutive day", StreakState{Length: 5, LastDate: "2026-07-30", HasLastDate: true}, "2026-07-31", 1, 6},
		{"same day noop", StreakState{Length: 5, LastDate: "2026-07-31", HasLastDate: true}, "2026-07-31", 0, 5},
		{"gap resets", StreakState{Length: 5, LastDate: "2026-07-20", HasLastDate: true}, "2026-07-31", 11, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateStreak(tt.prev, tt.date, tt.daysSince)
			if got.Length != tt.wantLength {
				t.Errorf("streak length = %d, want %d", got.Length, tt.wantLength)
			}
			if got.LastDate != tt.date {
				t.Errorf("last date = %q, want %q", got.LastDate, tt.date)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	completed := map[string]bool{"a": true, "b": false}
	if !IsAvailable(nil, completed) {
		t.Error("node with no prerequisites should be available")
	}
	if !IsAvailable([]string{"a"}, completed) {
		t.Error("node with completed prerequisite should be available")
	}
	if IsAvailable([]string{"a", "b"}, completed) {
		t.Error("node with an incomplete prerequisite should not be available")
	}
}
