package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coursekit/engine/internal/store"
)

// ExportSnapshot writes the entire persisted state to path as the UTF-8
// JSON document described in spec.md section 6.
func (e *Engine) ExportSnapshot(ctx context.Context, path string) error {
	start := time.Now()
	err := e.exportSnapshot(ctx, path)
	e.commandEvent("export_snapshot", start, err)
	return err
}

func (e *Engine) exportSnapshot(ctx context.Context, path string) error {
	snap, err := e.store.Export(ctx)
	if err != nil {
		return classify(err)
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return wrapErr(KindInvalidInput, fmt.Errorf("marshal snapshot: %w", err))
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return wrapErr(KindInvalidInput, fmt.Errorf("write snapshot %s: %w", path, err))
	}
	return nil
}

// ImportSnapshot replaces the entire persisted state with the document
// at path. A snapshot stamped with a newer schema_version than this
// build supports is rejected.
func (e *Engine) ImportSnapshot(ctx context.Context, path string) error {
	start := time.Now()
	err := e.importSnapshot(ctx, path)
	e.commandEvent("import_snapshot", start, err)
	return err
}

func (e *Engine) importSnapshot(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return wrapErr(KindInvalidInput, fmt.Errorf("read snapshot %s: %w", path, err))
	}
	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return wrapErr(KindInvalidInput, fmt.Errorf("parse snapshot %s: %w", path, err))
	}
	if err := e.store.Import(ctx, &snap); err != nil {
		return classify(err)
	}
	return nil
}

// ResetProgress clears a user's node progress, mastery scores, review
// items, and badge progress, returning them to a freshly created
// user's state while preserving the user's identity and creation
// instant.
func (e *Engine) ResetProgress(ctx context.Context, userID string) error {
	start := time.Now()
	err := e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var repos store.Repos
		user, err := repos.Users.Get(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := repos.Progress.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := repos.Mastery.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := repos.Review.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := repos.Badges.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		user.CumulativeXP = 0
		user.Level = 1
		user.StreakLength = 0
		user.LastStreakDate = nil
		user.LastActivityAt = time.Now()
		return repos.Users.Update(ctx, tx, user)
	})
	e.commandEvent("reset_progress", start, err)
	return err
}
