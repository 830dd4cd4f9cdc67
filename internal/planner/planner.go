// Package planner implements the Session Planner (C8): a pure read
// model that proposes an ordered activity list for a user's next study
// session, generalizing the teacher's internal/session.Planner's
// priority-ordered slot selection from a fixed 60/30/10 skill mix to
// this engine's lecture/quiz/challenge/review ordering.
package planner

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/catalog"
	"github.com/coursekit/engine/internal/review"
	"github.com/coursekit/engine/internal/store"
)

// ActivityKind distinguishes the four slot categories spec.md section
// 4.8 names.
type ActivityKind string

const (
	ActivityLecture       ActivityKind = "Lecture"
	ActivityQuiz          ActivityKind = "Quiz"
	ActivityMiniChallenge ActivityKind = "MiniChallenge"
	ActivityReview        ActivityKind = "Review"
)

// Activity is one suggested session slot.
type Activity struct {
	Kind   ActivityKind
	NodeID string
	Title  string
}

// MaxReviewSlots caps how many due review items one plan proposes.
const MaxReviewSlots = 3

// Planner builds session plans from a catalog snapshot and a user's
// stored progress; it performs no writes.
type Planner struct {
	store *store.Store
}

// New builds a Planner bound to the persistence store.
func New(s *store.Store) *Planner {
	return &Planner{store: s}
}

// BuildPlan returns, in spec.md section 4.8's fixed priority order: the
// next Available lecture, the next Available quiz, the next Available
// mini-challenge, then up to MaxReviewSlots due review items in
// due-order. Any step with nothing to offer is simply omitted.
func (p *Planner) BuildPlan(ctx context.Context, tx *store.Tx, cat *catalog.Catalog, userID string, today time.Time) ([]Activity, error) {
	var repos store.Repos

	completed, inProgress, err := loadProgress(ctx, tx, repos, userID)
	if err != nil {
		return nil, err
	}

	var plan []Activity
	if a := nextAvailableOfKind(cat, "Lecture", completed, inProgress); a != nil {
		plan = append(plan, *a)
	}
	if a := nextAvailableOfKind(cat, "Quiz", completed, inProgress); a != nil {
		plan = append(plan, *a)
	}
	if a := nextAvailableOfKind(cat, "MiniChallenge", completed, inProgress); a != nil {
		plan = append(plan, *a)
	}

	sched := review.New(p.store)
	due, err := sched.DueToday(ctx, tx, userID, today)
	if err != nil {
		return nil, err
	}
	for i, item := range due {
		if i >= MaxReviewSlots {
			break
		}
		node := cat.NodeByID(item.QuizNodeID)
		title := item.QuizNodeID
		if node != nil {
			title = node.Title
		}
		plan = append(plan, Activity{Kind: ActivityReview, NodeID: item.QuizNodeID, Title: title})
	}

	return plan, nil
}

func loadProgress(ctx context.Context, tx *store.Tx, repos store.Repos, userID string) (completed map[string]bool, inProgress map[string]bool, err error) {
	rows, err := repos.Progress.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}
	completed = make(map[string]bool, len(rows))
	inProgress = make(map[string]bool, len(rows))
	for _, r := range rows {
		switch r.Status {
		case "Completed":
			completed[r.NodeID] = true
		case "InProgress":
			inProgress[r.NodeID] = true
		}
	}
	return completed, inProgress, nil
}

// nextAvailableOfKind scans the catalog's topological order for the
// first not-yet-completed node of the given kind whose prerequisites
// are all completed, preferring one already InProgress.
func nextAvailableOfKind(cat *catalog.Catalog, kind string, completed, inProgress map[string]bool) *Activity {
	order := cat.TopologicalOrder()

	var candidate *catalog.Node
	for _, id := range order {
		node := cat.NodeByID(id)
		if node == nil || node.Kind != kind || completed[id] {
			continue
		}
		if !allCompleted(node.Prerequisites, completed) {
			continue
		}
		if inProgress[id] {
			candidate = node
			break
		}
		if candidate == nil {
			candidate = node
		}
	}
	if candidate == nil {
		return nil
	}
	return &Activity{Kind: ActivityKind(kind), NodeID: candidate.ID, Title: candidate.Title}
}

func allCompleted(prereqs []string, completed map[string]bool) bool {
	for _, p := range prereqs {
		if !completed[p] {
			return false
		}
	}
	return true
}
