package engine

import (
	"context"
	"testing"
	"time"
)

func createTestUser(t *testing.T, h *testHarness) string {
	t.Helper()
	u, err := h.engine.CreateUser(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestCreateUser_RejectsEmptyName(t *testing.T) {
	h := newTestHarness(t)
	if _, err := h.engine.CreateUser(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestStartNode_RejectsLockedNode(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	if err := h.engine.StartNode(context.Background(), userID, "quiz1"); err == nil {
		t.Fatal("expected NotUnlocked error for a quiz behind an incomplete lecture")
	}
}

func TestCompleteLecture_AwardsXPAndUnlocksQuiz(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()

	if err := h.engine.StartNode(ctx, userID, "lecture1"); err != nil {
		t.Fatalf("start lecture: %v", err)
	}
	award, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 60000)
	if err != nil {
		t.Fatalf("complete lecture: %v", err)
	}
	if award.XPEarned <= 0 {
		t.Errorf("expected positive XP, got %d", award.XPEarned)
	}

	if err := h.engine.StartNode(ctx, userID, "quiz1"); err != nil {
		t.Fatalf("quiz should now be unlocked: %v", err)
	}
}

func TestCompleteLecture_RejectsSecondCompletion(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()

	if _, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 1000); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 1000); err == nil {
		t.Fatal("expected Conflict on second completion")
	}
}

func TestSubmitQuiz_ScoresAndSchedulesReview(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()

	if _, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 1000); err != nil {
		t.Fatalf("complete lecture: %v", err)
	}
	result, err := h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"})
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if result.ScorePct != 100 {
		t.Errorf("score = %v, want 100", result.ScorePct)
	}
	if result.Award.XPEarned <= 0 {
		t.Errorf("expected positive XP, got %d", result.Award.XPEarned)
	}
	if result.ReviewItem.QuizNodeID != "quiz1" {
		t.Errorf("review item not scheduled for quiz1: %+v", result.ReviewItem)
	}

	due, err := h.engine.ListDueReviews(ctx, userID, time.Now().AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("list due reviews: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due review, got %d", len(due))
	}
}

func TestSubmitQuiz_RejectsAlreadyCompleted(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	h.engine.CompleteLecture(ctx, userID, "lecture1", 1000)
	if _, err := h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"}); err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if _, err := h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"}); err == nil {
		t.Fatal("expected Conflict resubmitting a completed quiz")
	}
}

func TestSubmitChallenge_SuccessAwardsXP(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	h.engine.CompleteLecture(ctx, userID, "lecture1", 1000)
	h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"})

	result, err := h.engine.SubmitChallenge(ctx, userID, "challenge1", "print('hi')")
	if err != nil {
		t.Fatalf("submit challenge: %v", err)
	}
	if !result.Verification.Success {
		t.Fatalf("expected success, got %+v", result.Verification)
	}
	if result.Award.XPEarned <= 0 {
		t.Errorf("expected positive XP, got %d", result.Award.XPEarned)
	}
}

func TestSubmitChallenge_FailingTestsDoNotAward(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	h.engine.CompleteLecture(ctx, userID, "lecture1", 1000)
	h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"})

	h.sandbox.stdout = `{"event":"test","name":"a","pass":false}`
	result, err := h.engine.SubmitChallenge(ctx, userID, "challenge1", "print('hi')")
	if err != nil {
		t.Fatalf("submit challenge: %v", err)
	}
	if result.Verification.Success {
		t.Fatal("expected failing verification")
	}
	if result.Award.XPEarned != 0 {
		t.Errorf("expected no XP on failure, got %d", result.Award.XPEarned)
	}

	// The node stays unlocked-but-incomplete, so a second submission with
	// passing tests should still succeed and award XP.
	h.sandbox.stdout = `{"event":"test","name":"a","pass":true}`
	result2, err := h.engine.SubmitChallenge(ctx, userID, "challenge1", "print('hi')")
	if err != nil {
		t.Fatalf("resubmit challenge: %v", err)
	}
	if !result2.Verification.Success || result2.Award.XPEarned <= 0 {
		t.Errorf("expected second attempt to succeed and award XP, got %+v", result2)
	}
}

func TestSubmitCheckpoint_PassingGradeAwardsXPAtVeryHard(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	h.engine.CompleteLecture(ctx, userID, "lecture1", 1000)
	h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"})
	h.engine.SubmitChallenge(ctx, userID, "challenge1", "print('hi')")

	result, err := h.engine.SubmitCheckpoint(ctx, userID, "checkpoint1", map[string]string{"DESIGN": "my essay text"})
	if err != nil {
		t.Fatalf("submit checkpoint: %v", err)
	}
	if !result.Passing {
		t.Fatalf("expected passing checkpoint, got %+v", result.CheckpointResult)
	}
	if result.OverallScore != 85 {
		t.Errorf("overall score = %d, want 85", result.OverallScore)
	}
	if result.Award.XPEarned <= 0 {
		t.Errorf("expected positive XP, got %d", result.Award.XPEarned)
	}
}

func TestSubmitCheckpoint_RejectsMissingArtifact(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	h.engine.CompleteLecture(ctx, userID, "lecture1", 1000)
	h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"})
	h.engine.SubmitChallenge(ctx, userID, "challenge1", "print('hi')")

	if _, err := h.engine.SubmitCheckpoint(ctx, userID, "checkpoint1", map[string]string{}); err == nil {
		t.Fatal("expected InvalidInput for missing artifact")
	}
}

func TestGetPlan_SuggestsNextAvailableLecture(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	plan, err := h.engine.GetPlan(context.Background(), userID, time.Now())
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if len(plan) == 0 {
		t.Fatal("expected at least one suggested activity")
	}
	if plan[0].NodeID != "lecture1" {
		t.Errorf("expected lecture1 first, got %+v", plan[0])
	}
}

func TestGetDashboard_ReflectsProgress(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	if _, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 1000); err != nil {
		t.Fatalf("complete lecture: %v", err)
	}

	dash, err := h.engine.GetDashboard(ctx, userID)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if dash.CumulativeXP <= 0 {
		t.Errorf("expected positive XP, got %d", dash.CumulativeXP)
	}
	if dash.Level != 1 {
		t.Errorf("expected level 1 still, got %d", dash.Level)
	}
	if len(dash.TopSkills) != 1 {
		t.Fatalf("expected one mastered skill, got %d", len(dash.TopSkills))
	}
	if len(dash.RecentActivity) != 1 || dash.RecentActivity[0].NodeID != "lecture1" {
		t.Errorf("expected lecture1 in recent activity, got %+v", dash.RecentActivity)
	}
}

func TestSubmitReview_RejectsUnknownQuiz(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	if _, err := h.engine.SubmitReview(context.Background(), userID, "quiz1", 80); err == nil {
		t.Fatal("expected NotFound before any quiz was ever submitted")
	}
}

func TestSubmitReview_RejectsOutOfRangeScore(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	if _, err := h.engine.SubmitReview(context.Background(), userID, "quiz1", 150); err == nil {
		t.Fatal("expected InvalidInput for score_pct > 100")
	}
}

func TestSubmitReview_AdvancesSchedule(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	h.engine.CompleteLecture(ctx, userID, "lecture1", 1000)
	first, err := h.engine.SubmitQuiz(ctx, userID, "quiz1", map[string]string{"q1": "4"})
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}

	item, err := h.engine.SubmitReview(ctx, userID, "quiz1", 90)
	if err != nil {
		t.Fatalf("submit review: %v", err)
	}
	if item.Repetitions != first.ReviewItem.Repetitions+1 {
		t.Errorf("expected repetitions to advance, got %d -> %d", first.ReviewItem.Repetitions, item.Repetitions)
	}
}

func TestResetProgress_ClearsStateButKeepsUser(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	if _, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 1000); err != nil {
		t.Fatalf("complete lecture: %v", err)
	}

	if err := h.engine.ResetProgress(ctx, userID); err != nil {
		t.Fatalf("reset progress: %v", err)
	}

	dash, err := h.engine.GetDashboard(ctx, userID)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if dash.CumulativeXP != 0 || dash.Level != 1 {
		t.Errorf("expected fresh state, got %+v", dash)
	}
	if len(dash.RecentActivity) != 0 {
		t.Errorf("expected no recent activity after reset, got %+v", dash.RecentActivity)
	}

	// Starting the lecture again should work, i.e. progress was actually wiped.
	if err := h.engine.StartNode(ctx, userID, "lecture1"); err != nil {
		t.Fatalf("lecture should be restartable after reset: %v", err)
	}
}

func TestExportImportSnapshot_RoundTrips(t *testing.T) {
	h := newTestHarness(t)
	userID := createTestUser(t, h)
	ctx := context.Background()
	if _, err := h.engine.CompleteLecture(ctx, userID, "lecture1", 1000); err != nil {
		t.Fatalf("complete lecture: %v", err)
	}

	path := t.TempDir() + "/snapshot.json"
	if err := h.engine.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("export: %v", err)
	}

	if err := h.engine.ResetProgress(ctx, userID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := h.engine.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("import: %v", err)
	}

	dash, err := h.engine.GetDashboard(ctx, userID)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if dash.CumulativeXP <= 0 {
		t.Errorf("expected imported snapshot to restore XP, got %d", dash.CumulativeXP)
	}
}
