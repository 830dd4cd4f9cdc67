package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
)

// Node is the resolved, immutable in-memory form of a curriculum node.
type Node struct {
	ID               string
	Kind             string
	Title            string
	Difficulty       string
	BaseXP           int
	EstimatedMinutes int
	BodyPath         string
	Skills           []string
	Prerequisites    []string
	WeekID           string
	DayID            string
}

// Skill is a resolved skill tag.
type Skill struct {
	ID   string
	Name string
}

// Checkpoint is a resolved multi-artifact checkpoint.
type Checkpoint struct {
	ID                string
	Week              string
	Day               string
	Artifacts         []string
	RubricPathPerKind map[string]string
	Prerequisites     []string
}

// Catalog is the immutable, validated index built from a manifest.
// Queries never mutate it; a reimport builds a brand new Catalog and
// swaps the published pointer atomically.
type Catalog struct {
	EngineVersion string
	Title         string

	nodesByID       map[string]*Node
	skillsByID      map[string]*Skill
	checkpointsByID map[string]*Checkpoint
	dependents      map[string][]string
	topoOrder       []string
	weekOrder       []string
	daysByWeek      map[string][]string
}

// NodeByID returns a node, or nil if unknown.
func (c *Catalog) NodeByID(id string) *Node { return c.nodesByID[id] }

// SkillByID returns a skill, or nil if unknown.
func (c *Catalog) SkillByID(id string) *Skill { return c.skillsByID[id] }

// SkillCount returns the number of skills declared in the manifest.
func (c *Catalog) SkillCount() int { return len(c.skillsByID) }

// CheckpointByID returns a checkpoint, or nil if unknown.
func (c *Catalog) CheckpointByID(id string) *Checkpoint { return c.checkpointsByID[id] }

// Weeks returns week ids in manifest-declared order.
func (c *Catalog) Weeks() []string { return append([]string(nil), c.weekOrder...) }

// DaysOf returns day ids for a week in manifest-declared order.
func (c *Catalog) DaysOf(weekID string) []string { return append([]string(nil), c.daysByWeek[weekID]...) }

// Successors returns the node/checkpoint ids that directly depend on id.
func (c *Catalog) Successors(id string) []string { return append([]string(nil), c.dependents[id]...) }

// TopologicalOrder returns every node/checkpoint id in a deterministic
// topological order (Kahn's algorithm, ties broken lexically), mirroring
// internal/skillgraph/graph.go's topoOrder.
func (c *Catalog) TopologicalOrder() []string { return append([]string(nil), c.topoOrder...) }

// fsBodies implements bodyExister against a real content root directory.
type fsBodies struct{ root string }

func (f fsBodies) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(f.root, path))
	return err == nil
}

// Load validates and builds a Catalog from raw manifest bytes. contentRoot
// is the directory body_path/rubric_path_per_kind entries are resolved
// against; pass "" to skip body-existence checks (useful for tests).
func Load(raw []byte, contentRoot string) (*Catalog, error) {
	m, diags := ParseManifest(raw)
	if len(diags) > 0 {
		return nil, &DiagnosticsError{Diagnostics: diags}
	}

	var bodies bodyExister
	if contentRoot != "" {
		bodies = fsBodies{root: contentRoot}
	}

	if diags := validateStructure(m, bodies); len(diags) > 0 {
		return nil, &DiagnosticsError{Diagnostics: diags}
	}

	return build(m), nil
}

func build(m *Manifest) *Catalog {
	c := &Catalog{
		EngineVersion:   m.EngineVersion,
		Title:           m.Title,
		nodesByID:       make(map[string]*Node),
		skillsByID:      make(map[string]*Skill),
		checkpointsByID: make(map[string]*Checkpoint),
		dependents:      make(map[string][]string),
		daysByWeek:      make(map[string][]string),
	}

	for i := range m.Skills {
		s := m.Skills[i]
		c.skillsByID[s.ID] = &Skill{ID: s.ID, Name: s.Name}
	}

	inDegree := make(map[string]int)

	for _, w := range m.Weeks {
		c.weekOrder = append(c.weekOrder, w.ID)
		for _, d := range w.Days {
			c.daysByWeek[w.ID] = append(c.daysByWeek[w.ID], d.ID)
			for _, n := range d.Nodes {
				node := &Node{
					ID: n.ID, Kind: n.Kind, Title: n.Title, Difficulty: n.Difficulty,
					BaseXP: n.XPReward, EstimatedMinutes: n.EstimatedMinutes, BodyPath: n.BodyPath,
					Skills: append([]string(nil), n.Skills...), Prerequisites: append([]string(nil), n.Prerequisites...),
					WeekID: w.ID, DayID: d.ID,
				}
				c.nodesByID[n.ID] = node
				inDegree[n.ID] = len(n.Prerequisites)
				for _, p := range n.Prerequisites {
					c.dependents[p] = append(c.dependents[p], n.ID)
				}
			}
		}
	}

	for _, cp := range m.Checkpoints {
		checkpoint := &Checkpoint{
			ID: cp.ID, Week: cp.Week, Day: cp.Day,
			Artifacts: append([]string(nil), cp.Artifacts...),
			RubricPathPerKind: cp.RubricPathPerKind,
			Prerequisites:     append([]string(nil), cp.Prerequisites...),
		}
		c.checkpointsByID[cp.ID] = checkpoint
		inDegree[cp.ID] = len(cp.Prerequisites)
		for _, p := range cp.Prerequisites {
			c.dependents[p] = append(c.dependents[p], cp.ID)
		}
	}

	c.topoOrder = kahnOrder(inDegree, c.dependents)
	return c
}

// kahnOrder runs Kahn's algorithm with lexical tie-breaking for
// deterministic output, matching the teacher's buildGraph.
func kahnOrder(inDegree map[string]int, adj map[string][]string) []string {
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	degree := make(map[string]int, len(inDegree))
	for k, v := range inDegree {
		degree[k] = v
	}

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		deps := append([]string(nil), adj[id]...)
		sort.Strings(deps)
		for _, dep := range deps {
			degree[dep]--
			if degree[dep] == 0 {
				queue = append(queue, dep)
				sort.Strings(queue)
			}
		}
	}
	return order
}

// Arena holds the single published Catalog, swapped atomically by
// LoadCatalog. Each Engine owns its own Arena.
type Arena struct {
	ptr atomic.Pointer[Catalog]
}

// Current returns the currently published catalog, or nil if none has
// been loaded yet.
func (a *Arena) Current() *Catalog { return a.ptr.Load() }

// LoadCatalog validates and publishes a new catalog built from raw
// manifest bytes. On validation failure the previously published
// catalog (if any) remains in effect.
func (a *Arena) LoadCatalog(raw []byte, contentRoot string) error {
	c, err := Load(raw, contentRoot)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.ptr.Store(c)
	return nil
}
