// Package engine implements the Command Surface (C9): the single,
// transactional façade a presentation layer uses to drive coursekit.
// Every exported method opens its own transaction(s), never holds the
// store's write lock across a call into the Sandbox or Judge
// orchestrators, and returns either a result value or a Command Surface
// Error carrying one of spec.md section 7's stable kinds.
//
// The two-phase shape (open tx -> read -> release -> compute/invoke
// externally -> open tx -> verify precondition -> apply -> commit) is
// grounded in the teacher's internal/lessons.Service: an async
// generation step bridged by plain Go state between two lock-free
// windows, generalized here to a transaction boundary instead of a
// mutex-guarded pending slot, since the command surface's "external
// step" (sandbox run, judge call) is itself request/response rather
// than background-polled.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/coursekit/engine/internal/badges"
	"github.com/coursekit/engine/internal/catalog"
	"github.com/coursekit/engine/internal/config"
	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/observability"
	"github.com/coursekit/engine/internal/planner"
	"github.com/coursekit/engine/internal/review"
	"github.com/coursekit/engine/internal/sandbox"
	"github.com/coursekit/engine/internal/store"
	"github.com/rs/zerolog"
)

// Engine wires every lower component behind the Command Surface.
type Engine struct {
	store   *store.Store
	catalog *catalog.Arena
	sandbox *sandbox.Orchestrator
	judge   *judge.Judge
	planner *planner.Planner
	review  *review.Scheduler
	badges  *badges.Engine
	cfg     *config.Config

	obs *observability.Registry
	log zerolog.Logger

	contentRoot string
}

// New wires an Engine from an already-open store and loaded
// configuration. The caller owns the store's lifetime.
func New(s *store.Store, cfg *config.Config, sandboxOrch *sandbox.Orchestrator, judgeSvc *judge.Judge, contentRoot string, obs *observability.Registry, log zerolog.Logger) *Engine {
	return &Engine{
		store:       s,
		catalog:     &catalog.Arena{},
		sandbox:     sandboxOrch,
		judge:       judgeSvc,
		planner:     planner.New(s),
		review:      review.New(s),
		badges:      badges.New(s),
		cfg:         cfg,
		obs:         obs,
		log:         log,
		contentRoot: contentRoot,
	}
}

// withWriteTx runs fn in a write transaction, retrying once on a
// StorageBusy lock timeout per spec.md section 7's documented policy
// before surfacing the classified error.
func (e *Engine) withWriteTx(ctx context.Context, fn func(ctx context.Context, tx *store.Tx) error) error {
	err := e.store.WithTx(ctx, fn)
	if err == nil {
		return nil
	}
	ce := classify(err)
	if ce.Kind == KindStorageBusy {
		err = e.store.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		return classify(err)
	}
	return ce
}

func (e *Engine) withReadTx(ctx context.Context, fn func(ctx context.Context, tx *store.Tx) error) error {
	if err := e.store.WithReadTx(ctx, fn); err != nil {
		return classify(err)
	}
	return nil
}

// commandEvent records the observability boundary event for one command
// call, matching C10's "one event per command boundary" contract.
func (e *Engine) commandEvent(kind string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if e.obs != nil {
		e.obs.CommandEvent(e.log, kind, start, outcome, err)
	}
}

// judgeBackoff sleeps an exponentially growing, jittered delay before a
// judge retry attempt, the same shape as internal/llm.RetryClient's
// backoff but scoped to the command surface's transient-kind retry
// policy (JudgeRateLimited/JudgeTimeout, up to 3 attempts) rather than
// the provider's own request-level retries.
func judgeBackoff(ctx context.Context, attempt int) error {
	base := 200 * time.Millisecond * time.Duration(1<<uint(attempt))
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	select {
	case <-time.After(base + jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withJudgeRetry calls fn, retrying up to 3 total attempts when the
// classified error is a transient judge kind (RateLimited/Timeout), per
// spec.md section 7.
func withJudgeRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			if err := judgeBackoff(ctx, attempt-1); err != nil {
				return zero, classify(err)
			}
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		ce := classify(err)
		lastErr = ce
		if !ce.Kind.transient() {
			return zero, ce
		}
	}
	return zero, lastErr
}

// localDate formats t as the YYYY-MM-DD calendar date used throughout
// streak/review bookkeeping.
func localDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// daysBetween returns the number of calendar days between two
// YYYY-MM-DD dates (to - from), or 0 if either fails to parse.
func daysBetween(from, to string) int {
	f, err1 := time.Parse("2006-01-02", from)
	t, err2 := time.Parse("2006-01-02", to)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(t.Sub(f).Hours() / 24)
}
