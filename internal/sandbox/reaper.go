package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Reaper removes orphaned containers left behind by crashed or killed
// runs: anything bearing the orchestrator's label and older than one
// hour. It runs once at startup and then on an hourly cron schedule, the
// same "@hourly" idiom the teacher's internal/selfupdate checker uses
// for its own periodic background job.
type Reaper struct {
	cfg Config
	cron *cron.Cron
}

// NewReaper builds a Reaper bound to the orchestrator's runtime and label.
func NewReaper(cfg Config) *Reaper {
	return &Reaper{cfg: cfg, cron: cron.New()}
}

// Start runs an immediate reap pass, then schedules hourly passes. The
// returned stop function cancels the schedule.
func (r *Reaper) Start(ctx context.Context) (stop func(), err error) {
	r.reapOnce(ctx)

	id, err := r.cron.AddFunc("@hourly", func() { r.reapOnce(ctx) })
	if err != nil {
		return nil, fmt.Errorf("schedule reaper: %w", err)
	}
	r.cron.Start()
	return func() {
		r.cron.Remove(id)
		stopCtx := r.cron.Stop()
		<-stopCtx.Done()
	}, nil
}

// reapOnce lists and forcibly removes every labeled container older than
// one hour. Errors are swallowed per-container: a reap pass should never
// abort partway because one container disappeared concurrently.
func (r *Reaper) reapOnce(ctx context.Context) {
	ids := r.listOrphans(ctx)
	for _, id := range ids {
		killCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_ = exec.CommandContext(killCtx, r.cfg.Runtime, "rm", "-f", id).Run()
		cancel()
	}
}

func (r *Reaper) listOrphans(ctx context.Context) []string {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-1 * time.Hour).Format(time.RFC3339)
	cmd := exec.CommandContext(listCtx, r.cfg.Runtime, "ps", "-a",
		"--filter", "label="+r.cfg.Label,
		"--filter", "until="+cutoff,
		"--format", "{{.ID}}")

	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}
