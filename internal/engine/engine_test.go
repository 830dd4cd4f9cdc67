package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursekit/engine/internal/config"
	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/llm"
	"github.com/coursekit/engine/internal/observability"
	"github.com/coursekit/engine/internal/sandbox"
	"github.com/coursekit/engine/internal/store"
)

// testManifest is a small, valid curriculum manifest exercising a
// lecture -> quiz -> mini-challenge chain plus one checkpoint, shared by
// every engine test that needs a published catalog.
const testManifest = `{
	"engine_version": "1.0",
	"title": "Test Curriculum",
	"skills": [{"id": "s1", "name": "Arithmetic"}],
	"weeks": [
		{
			"id": "w1", "title": "Week 1",
			"days": [
				{
					"id": "d1", "title": "Day 1",
					"nodes": [
						{
							"id": "lecture1", "kind": "Lecture", "title": "Intro",
							"difficulty": "Easy", "estimated_minutes": 10, "xp_reward": 25,
							"body_path": "lecture1.md", "skills": ["s1"], "prerequisites": []
						},
						{
							"id": "quiz1", "kind": "Quiz", "title": "Quiz 1",
							"difficulty": "Medium", "estimated_minutes": 15, "xp_reward": 50,
							"body_path": "quiz1.json", "skills": ["s1"], "prerequisites": ["lecture1"]
						},
						{
							"id": "challenge1", "kind": "MiniChallenge", "title": "Challenge 1",
							"difficulty": "Hard", "estimated_minutes": 20, "xp_reward": 75,
							"body_path": "challenge1.json", "skills": ["s1"], "prerequisites": ["quiz1"]
						}
					]
				}
			]
		}
	],
	"checkpoints": [
		{
			"id": "checkpoint1", "week": "w1", "day": "d1",
			"artifacts": ["DESIGN"],
			"rubric_path_per_kind": {"DESIGN": "rubric1.json"},
			"prerequisites": ["challenge1"]
		}
	]
}`

const testQuizBody = `{"questions":[{"id":"q1","prompt":"2+2?","choices":["3","4"],"correct_answer":"4"}]}`

const testChallengeBody = `{"image":"img:1","build_manifest":"","test_code":"t"}`

const testRubricFile = `{"categories":[{"name":"correctness","max_points":60,"descriptors":"works"},{"name":"style","max_points":40,"descriptors":"clean"}]}`

// testHarness bundles an Engine wired against an in-memory store and a
// content root populated with the fixture bodies above.
type testHarness struct {
	engine  *Engine
	store   *store.Store
	sandbox *fakeSandboxRuntime
	llm     *llm.MockClient
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared", store.Options{})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	contentRoot := t.TempDir()
	writeFixture(t, contentRoot, "lecture1.md", "# lecture")
	writeFixture(t, contentRoot, "quiz1.json", testQuizBody)
	writeFixture(t, contentRoot, "challenge1.json", testChallengeBody)
	writeFixture(t, contentRoot, "rubric1.json", testRubricFile)

	cfg := config.Default()
	rt := &fakeSandboxRuntime{stdout: `{"event":"test","name":"a","pass":true}`}
	sbCfg := sandbox.DefaultConfig()
	sbCfg.WorkRoot = t.TempDir()
	sb := sandbox.NewWithRuntime(sbCfg, rt)

	mock := llm.NewMockClient(llm.MockResponse{
		Content: []byte(`{"total_score":85,"category_scores":{"correctness":50,"style":35},"feedback":"solid"}`),
	})
	j := judge.New(s, mock, judge.DefaultConfig())

	obs := observability.NewRegistry()
	log := observability.NewLogger()
	e := New(s, cfg, sb, j, contentRoot, obs, log)

	if _, err := e.LoadCatalog(context.Background(), writeFixture(t, contentRoot, "manifest.json", testManifest)); err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	return &testHarness{engine: e, store: s, sandbox: rt, llm: mock}
}

func writeFixture(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

type fakeSandboxRuntime struct {
	stdout string
	err    error
}

func (f *fakeSandboxRuntime) Run(ctx context.Context, image, workDir string) (string, string, error) {
	return f.stdout, "", f.err
}
