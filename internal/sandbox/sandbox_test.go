package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRuntime struct {
	stdout string
	stderr string
	delay  time.Duration
	err    error
	calls  int32
}

func (f *fakeRuntime) Run(ctx context.Context, image, workDir string) (string, string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}
	return f.stdout, f.stderr, f.err
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WorkRoot = t.TempDir()
	cfg.TimeoutMs = 1000
	return cfg
}

func TestRun_SuccessWithStructuredEvents(t *testing.T) {
	rt := &fakeRuntime{stdout: `{"event":"test","name":"a","pass":true}` + "\n" + `{"event":"test","name":"b","pass":true}`}
	o := NewWithRuntime(testConfig(t), rt)
	res, err := o.Run(context.Background(), Submission{Image: "img:1", TestCode: "t", StudentCode: "s"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Success || res.TestsPassed != 2 || res.TestsFailed != 0 {
		t.Errorf("got %+v", res)
	}
}

func TestRun_FailingTestsAreNotOrchestrationErrors(t *testing.T) {
	rt := &fakeRuntime{stdout: `{"event":"test","name":"a","pass":false}`}
	o := NewWithRuntime(testConfig(t), rt)
	res, err := o.Run(context.Background(), Submission{Image: "img:1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Success || res.TestsFailed != 1 {
		t.Errorf("got %+v", res)
	}
}

func TestRun_TimeoutIsSuccessfulVerificationNotError(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeoutMs = 20
	rt := &fakeRuntime{delay: 500 * time.Millisecond}
	o := NewWithRuntime(cfg, rt)
	res, err := o.Run(context.Background(), Submission{Image: "img:1"})
	if err != nil {
		t.Fatalf("timeout must not be an orchestration error, got: %v", err)
	}
	if res.RuntimeError != RuntimeErrorTimeout {
		t.Errorf("runtime error = %q, want Timeout", res.RuntimeError)
	}
	if res.Success {
		t.Error("timed-out run should not report success")
	}
}

func TestRun_ExecFailureIsOrchestrationError(t *testing.T) {
	rt := &fakeRuntime{err: errors.New("boom")}
	o := NewWithRuntime(testConfig(t), rt)
	_, err := o.Run(context.Background(), Submission{Image: "img:1"})
	var execErr *ErrExecFailed
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ErrExecFailed, got %v", err)
	}
}

func TestRun_DisabledReturnsErrDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enabled = false
	o := NewWithRuntime(cfg, &fakeRuntime{})
	_, err := o.Run(context.Background(), Submission{Image: "img:1"})
	if !errors.Is(err, ErrDisabled{}) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestTruncate_RespectsOutputCap(t *testing.T) {
	big := strings.Repeat("x", maxCapturedOutput+1000)
	out := truncate(big)
	if len(out) > maxCapturedOutput+len("\n...[truncated]") {
		t.Errorf("truncated output too long: %d bytes", len(out))
	}
	if !strings.HasSuffix(out, "[truncated]") {
		t.Error("expected truncation marker")
	}
}

func TestTruncate_LeavesShortOutputUntouched(t *testing.T) {
	short := "all good"
	if got := truncate(short); got != short {
		t.Errorf("got %q, want unchanged %q", got, short)
	}
}

func TestTaintedContextIsNotReturnedToPool(t *testing.T) {
	cfg := testConfig(t)
	cfg.PoolSize = 1
	rt := &fakeRuntime{err: errors.New("boom")}
	o := NewWithRuntime(cfg, rt)

	if _, err := o.Run(context.Background(), Submission{Image: "img:1"}); err == nil {
		t.Fatal("expected exec error")
	}
	if len(o.pool) != 0 {
		t.Errorf("tainted context should not return to pool, pool len = %d", len(o.pool))
	}

	rt.err = nil
	if _, err := o.Run(context.Background(), Submission{Image: "img:1"}); err != nil {
		t.Fatalf("overflow context should still service a request: %v", err)
	}
}

func TestPool_ConcurrentRunsBoundedByPoolSize(t *testing.T) {
	cfg := testConfig(t)
	cfg.PoolSize = 2
	rt := &fakeRuntime{stdout: "ok", delay: 30 * time.Millisecond}
	o := NewWithRuntime(cfg, rt)

	var g errgroup.Group
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			_, err := o.Run(context.Background(), Submission{Image: "img:1"})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent runs: %v", err)
	}
	if atomic.LoadInt32(&rt.calls) != 6 {
		t.Errorf("expected 6 runtime invocations, got %d", rt.calls)
	}
}

func TestParseTextFallback_PassFailLines(t *testing.T) {
	passed, failed := parseTextFallback("ok  pkg  0.01s\nPASS\nFAIL\nFAIL")
	if passed != 2 || failed != 2 {
		t.Errorf("passed=%d failed=%d", passed, failed)
	}
}

// exitErrorWithCode runs a real subprocess so the test exercises a genuine
// *exec.ExitError, not a hand-built stand-in for one.
func exitErrorWithCode(t *testing.T, code int) error {
	t.Helper()
	err := exec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
	if err == nil {
		t.Fatalf("expected sh to exit %d, got nil error", code)
	}
	return err
}

func TestRun_OOMKillExitCodeClassifiesAsOutOfMemory(t *testing.T) {
	rt := &fakeRuntime{err: exitErrorWithCode(t, oomKilledExitCode)}
	o := NewWithRuntime(testConfig(t), rt)
	res, err := o.Run(context.Background(), Submission{Image: "img:1"})
	if err != nil {
		t.Fatalf("an OOM-killed run must be a VerificationResult, not an orchestration error: %v", err)
	}
	if res.Success {
		t.Error("OOM-killed run should not report success")
	}
	if res.RuntimeError != RuntimeErrorOutOfMemory {
		t.Errorf("runtime error = %q, want OutOfMemory", res.RuntimeError)
	}
	if res.ResourceLimitHit != ResourceLimitMemory {
		t.Errorf("resource limit = %q, want Memory", res.ResourceLimitHit)
	}
}

func TestRun_NonOOMExitCodeStillOrchestrationError(t *testing.T) {
	rt := &fakeRuntime{err: exitErrorWithCode(t, 1)}
	o := NewWithRuntime(testConfig(t), rt)
	_, err := o.Run(context.Background(), Submission{Image: "img:1"})
	var execErr *ErrExecFailed
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ErrExecFailed for a non-OOM exit code, got %v", err)
	}
}

func TestParseOutput_PanicEventClassifiesRuntimeError(t *testing.T) {
	stdout := `{"event":"test","name":"a","pass":true}` + "\n" +
		`{"event":"test","name":"b","pass":false,"panic":"runtime error: index out of range"}`
	res := parseOutput(stdout, "", 10*time.Millisecond)
	if res.Success {
		t.Error("a panicking run should not report success")
	}
	if res.RuntimeError != RuntimeErrorPanic {
		t.Errorf("runtime error = %q, want Panic", res.RuntimeError)
	}
	if res.RuntimeErrorMsg != "runtime error: index out of range" {
		t.Errorf("runtime error message = %q", res.RuntimeErrorMsg)
	}
}

func TestParseOutput_OOMEventClassifiesResourceLimit(t *testing.T) {
	stdout := `{"event":"test","name":"a","pass":false,"oom":true}`
	res := parseOutput(stdout, "", 10*time.Millisecond)
	if res.Success {
		t.Error("an OOM-killed run should not report success")
	}
	if res.RuntimeError != RuntimeErrorOutOfMemory {
		t.Errorf("runtime error = %q, want OutOfMemory", res.RuntimeError)
	}
	if res.ResourceLimitHit != ResourceLimitMemory {
		t.Errorf("resource limit = %q, want Memory", res.ResourceLimitHit)
	}
}

func TestParseOutput_DiskStderrClassifiesResourceLimit(t *testing.T) {
	res := parseOutput("", "write /work/out: no space left on device", 10*time.Millisecond)
	if res.ResourceLimitHit != ResourceLimitDisk {
		t.Errorf("resource limit = %q, want Disk", res.ResourceLimitHit)
	}
}

func TestParseStructuredEvents_PanicAndOOMDetectedRegardlessOfDiscriminator(t *testing.T) {
	tally, ok := parseStructuredEvents(`{"event":"crash","panic":"nil pointer dereference","oom":false}`)
	if !ok {
		t.Fatal("expected a crash line with a panic field to count as a recognized event")
	}
	if tally.panicMsg != "nil pointer dereference" {
		t.Errorf("panicMsg = %q", tally.panicMsg)
	}
	if tally.oom {
		t.Error("oom should be false")
	}
}
