package judge

import (
	"context"
	"fmt"
	"time"

	"github.com/coursekit/engine/internal/store"
	"golang.org/x/sync/errgroup"
)

// ArtifactSubmission is one artifact kind submitted for a checkpoint.
type ArtifactSubmission struct {
	Kind     string
	Rubric   Rubric
	Artifact string
}

// CheckpointResult aggregates every artifact's verdict into one overall
// score.
type CheckpointResult struct {
	OverallScore int
	Passing      bool
	PerKind      map[string]Verdict
}

// GradeCheckpoint grades every declared artifact kind in parallel, each
// under its own store transaction (grading is I/O-bound and each call
// needs an independent cache lookup/insert), then aggregates the overall
// score as the rounded mean per spec.md section 4.7.
func (j *Judge) GradeCheckpoint(ctx context.Context, userID string, submissions []ArtifactSubmission, now time.Time) (*CheckpointResult, error) {
	if len(submissions) == 0 {
		return nil, fmt.Errorf("checkpoint has no declared artifact kinds")
	}

	verdicts := make([]Verdict, len(submissions))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range submissions {
		i, sub := i, sub
		g.Go(func() error {
			var v *Verdict
			err := j.store.WithTx(gctx, func(ctx context.Context, tx *store.Tx) error {
				var gradeErr error
				v, gradeErr = j.Grade(ctx, tx, userID, sub.Rubric, sub.Artifact, now)
				return gradeErr
			})
			if err != nil {
				return fmt.Errorf("grade %s: %w", sub.Kind, err)
			}
			verdicts[i] = *v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	perKind := make(map[string]Verdict, len(submissions))
	sum := 0
	for i, sub := range submissions {
		perKind[sub.Kind] = verdicts[i]
		sum += verdicts[i].TotalScore
	}
	overall := roundHalfUp(float64(sum) / float64(len(submissions)))

	return &CheckpointResult{
		OverallScore: overall,
		Passing:      overall >= PassingThreshold,
		PerKind:      perKind,
	}, nil
}

func roundHalfUp(x float64) int {
	if x < 0 {
		return -roundHalfUp(-x)
	}
	return int(x + 0.5)
}
