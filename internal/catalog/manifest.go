// Package catalog implements the Content Catalog (C2): loading a
// curriculum manifest into an immutable, validated in-memory index of
// weeks, days, nodes, skills, and checkpoints. Modeled directly on the
// teacher's internal/skillgraph package — buildGraph's Kahn's-algorithm
// topological sort and validate.go's aggregated structural diagnostics —
// generalized from a fixed skill ladder to an author-supplied manifest.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed manifest.schema.json
var schemaFS embed.FS

// Manifest is the raw, unvalidated shape of a curriculum manifest file,
// per spec.md section 6.
type Manifest struct {
	EngineVersion string          `json:"engine_version"`
	Title         string          `json:"title"`
	Weeks         []ManifestWeek  `json:"weeks"`
	Checkpoints   []ManifestCheck `json:"checkpoints"`
	Skills        []ManifestSkill `json:"skills"`
}

type ManifestWeek struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Days  []ManifestDay `json:"days"`
}

type ManifestDay struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Nodes []ManifestNode `json:"nodes"`
}

type ManifestNode struct {
	ID               string   `json:"id"`
	Kind             string   `json:"kind"`
	Title            string   `json:"title"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	XPReward         int      `json:"xp_reward"`
	BodyPath         string   `json:"body_path"`
	Skills           []string `json:"skills"`
	Prerequisites    []string `json:"prerequisites"`
}

type ManifestCheck struct {
	ID                  string            `json:"id"`
	Week                string            `json:"week"`
	Day                 string            `json:"day"`
	Artifacts           []string          `json:"artifacts"`
	RubricPathPerKind   map[string]string `json:"rubric_path_per_kind"`
	Prerequisites       []string          `json:"prerequisites"`
}

type ManifestSkill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var enumeratedKinds = map[string]bool{
	"Lecture": true, "Quiz": true, "MiniChallenge": true, "Checkpoint": true,
}

var enumeratedDifficulties = map[string]bool{
	"Easy": true, "Medium": true, "Hard": true, "VeryHard": true,
}

var enumeratedArtifactKinds = map[string]bool{
	"DESIGN": true, "README": true, "BENCH": true, "RUNBOOK": true, "INVARIANTS": true,
}

// Diagnostic is one precise, reportable problem with a manifest, per
// spec.md section 6's "list of diagnostics with file path, line where
// applicable, and message" contract.
type Diagnostic struct {
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// DiagnosticsError aggregates every diagnostic found while loading a
// manifest, mirroring validate.go's single combined error.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	msg := fmt.Sprintf("manifest validation failed with %d issue(s):", len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		msg += "\n  " + d.String()
	}
	return msg
}

// bodyExister abstracts filesystem access so tests can stub body
// reference resolution without a real content tree on disk.
type bodyExister interface {
	Exists(path string) bool
}

var compiledSchema *jsonschema.Schema

func loadSchema() (*jsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	raw, err := schemaFS.ReadFile("manifest.schema.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}
	var schemaDoc interface{}
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		return nil, fmt.Errorf("parse embedded schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("manifest.schema.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("manifest.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiledSchema = sch
	return sch, nil
}

// ParseManifest decodes and jsonschema-validates raw manifest bytes. A
// schema failure is reported as a single diagnostic naming the failing
// path/keyword; it does not attempt to continue into graph-level
// validation since the shape itself is untrustworthy.
func ParseManifest(raw []byte) (*Manifest, []Diagnostic) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, []Diagnostic{{Path: "$", Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}

	sch, err := loadSchema()
	if err != nil {
		return nil, []Diagnostic{{Path: "$", Message: fmt.Sprintf("internal schema error: %v", err)}}
	}
	if err := sch.Validate(generic); err != nil {
		return nil, []Diagnostic{{Path: "$", Message: fmt.Sprintf("schema validation: %v", err)}}
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, []Diagnostic{{Path: "$", Message: fmt.Sprintf("decode: %v", err)}}
	}
	return &m, nil
}
