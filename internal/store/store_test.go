package store

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared", Options{})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db handle")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode falls back to "memory" for in-memory databases,
		// so WAL is only meaningfully tested against a file-based DB.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{"users", "node_progress", "review_items", "grade_cache_entries"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestUserRepoCreateGetUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var repos Repos

	now := time.Now().UTC().Truncate(time.Second)
	u := &User{
		ID:             "u1",
		DisplayName:    "Ada",
		CreatedAt:      now,
		LastActivityAt: now,
		CumulativeXP:   0,
		Level:          1,
		StreakLength:   0,
	}

	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		return repos.Users.Create(ctx, tx, u)
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	var got *User
	err = s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		got, err = repos.Users.Get(ctx, tx, "u1")
		return err
	})
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.DisplayName != "Ada" {
		t.Errorf("display name = %q, want Ada", got.DisplayName)
	}

	got.CumulativeXP = 91
	got.LastActivityAt = now.Add(time.Hour)
	err = s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		return repos.Users.Update(ctx, tx, got)
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}

	err = s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		got, err = repos.Users.Get(ctx, tx, "u1")
		return err
	})
	if err != nil {
		t.Fatalf("get user after update: %v", err)
	}
	if got.CumulativeXP != 91 {
		t.Errorf("cumulative xp = %d, want 91", got.CumulativeXP)
	}
}

func TestUserRepoGetMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var repos Repos

	err := s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		_, err := repos.Users.Get(ctx, tx, "nope")
		return err
	})
	var nf *ErrNotFound
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if !asNotFound(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func asNotFound(err error, target **ErrNotFound) bool {
	nf, ok := err.(*ErrNotFound)
	if ok {
		*target = nf
	}
	return ok
}

func TestReviewRepoDueBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var repos Repos

	items := []ReviewItem{
		{UserID: "u1", QuizNodeID: "q1", NextDueDate: "2026-07-20", EaseFactor: 2.5, IntervalDays: 1, Repetitions: 1},
		{UserID: "u1", QuizNodeID: "q2", NextDueDate: "2026-08-01", EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2},
	}
	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		for i := range items {
			if err := repos.Review.Upsert(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed review items: %v", err)
	}

	var due []ReviewItem
	err = s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		due, err = repos.Review.DueBefore(ctx, tx, "u1", "2026-07-31")
		return err
	})
	if err != nil {
		t.Fatalf("due before: %v", err)
	}
	if len(due) != 1 || due[0].QuizNodeID != "q1" {
		t.Errorf("due = %+v, want only q1", due)
	}
}

func TestGradeCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var repos Repos

	entry := &GradeCacheEntry{
		ContentDigest: "abc123",
		Kind:          "essay",
		Grade:         0.85,
		RationaleJSON: `{"notes":"solid"}`,
		CachedAt:      time.Now().UTC().Truncate(time.Second),
	}
	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		return repos.GradeCache.Put(ctx, tx, entry)
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	var got *GradeCacheEntry
	err = s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		got, err = repos.GradeCache.Get(ctx, tx, "abc123", "essay")
		return err
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Grade != 0.85 {
		t.Errorf("got = %+v, want grade 0.85", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var repos Repos

	now := time.Now().UTC().Truncate(time.Second)
	u := &User{ID: "u1", DisplayName: "Ada", CreatedAt: now, LastActivityAt: now, Level: 1}
	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		return repos.Users.Create(ctx, tx, u)
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	snap, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Users) != 1 {
		t.Fatalf("exported %d users, want 1", len(snap.Users))
	}

	if err := s.Import(ctx, snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	roundTripped, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if len(roundTripped.Users) != 1 || roundTripped.Users[0].ID != "u1" {
		t.Errorf("round-tripped users = %+v", roundTripped.Users)
	}
}

func TestImportRejectsNewerSchemaVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	current, err := CurrentSchemaVersion()
	if err != nil {
		t.Fatalf("current schema version: %v", err)
	}

	err = s.Import(ctx, &Snapshot{SchemaVersion: current + 1})
	if err == nil {
		t.Fatal("expected rejection of newer schema version")
	}
	var corrupt *ErrStorageCorrupt
	if !asCorrupt(err, &corrupt) {
		t.Errorf("expected ErrStorageCorrupt, got %v", err)
	}
}

func asCorrupt(err error, target **ErrStorageCorrupt) bool {
	c, ok := err.(*ErrStorageCorrupt)
	if ok {
		*target = c
	}
	return ok
}
