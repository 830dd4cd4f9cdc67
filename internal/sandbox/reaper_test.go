package sandbox

import (
	"context"
	"testing"
	"time"
)

// TestReaper_StartStopDoesNotHang exercises the schedule/stop lifecycle.
// listOrphans tolerates a missing or non-functional container CLI by
// returning no ids, so this never requires a real docker/podman install.
func TestReaper_StartStopDoesNotHang(t *testing.T) {
	cfg := DefaultConfig()
	r := NewReaper(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stop, err := r.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stop()
}

func TestReaper_ListOrphansToleratesMissingRuntime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runtime = "coursekit-nonexistent-binary-xyz"
	r := NewReaper(cfg)
	if ids := r.listOrphans(context.Background()); ids != nil {
		t.Errorf("expected nil ids when runtime binary is missing, got %v", ids)
	}
}
