package engine

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/store"
)

// GetPlan returns the session planner's suggested activity list for
// date, read-only over the currently published catalog and the user's
// stored progress.
func (e *Engine) GetPlan(ctx context.Context, userID string, date time.Time) (Plan, error) {
	start := time.Now()
	var plan Plan
	err := e.withReadTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		cat := e.catalog.Current()
		if cat == nil {
			return ErrInvalidInput("no catalog loaded")
		}
		p, err := e.planner.BuildPlan(ctx, tx, cat, userID, date)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	e.commandEvent("get_plan", start, err)
	if err != nil {
		return nil, err
	}
	return plan, nil
}
