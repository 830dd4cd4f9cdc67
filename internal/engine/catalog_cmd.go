package engine

import (
	"context"
	"fmt"
	"os"
	"time"
)

// LoadCatalog validates a curriculum manifest at source and, on
// success, atomically swaps it in as the published catalog (C2). The
// previous catalog, if any, remains published on validation failure.
func (e *Engine) LoadCatalog(ctx context.Context, source string) (*CatalogSummary, error) {
	start := time.Now()
	raw, err := os.ReadFile(source)
	if err != nil {
		wrapped := wrapErr(KindInvalidInput, fmt.Errorf("read manifest %s: %w", source, err))
		e.commandEvent("load_catalog", start, wrapped)
		return nil, wrapped
	}

	if err := e.catalog.LoadCatalog(raw, e.contentRoot); err != nil {
		wrapped := wrapErr(KindInvalidInput, err)
		e.commandEvent("load_catalog", start, wrapped)
		return nil, wrapped
	}

	cat := e.catalog.Current()
	nodeCount, checkpointCount := 0, 0
	for _, id := range cat.TopologicalOrder() {
		if cat.NodeByID(id) != nil {
			nodeCount++
		} else if cat.CheckpointByID(id) != nil {
			checkpointCount++
		}
	}
	summary := &CatalogSummary{
		EngineVersion:   cat.EngineVersion,
		Title:           cat.Title,
		WeekCount:       len(cat.Weeks()),
		NodeCount:       nodeCount,
		CheckpointCount: checkpointCount,
		SkillCount:      cat.SkillCount(),
	}

	e.commandEvent("load_catalog", start, nil)
	return summary, nil
}
