package catalog

import "fmt"

// validateStructure performs the aggregated structural checks the
// teacher's internal/skillgraph/validate.go runs over its static skill
// set, generalized to an author-supplied manifest: duplicate IDs,
// dangling prerequisites, cycles (via detectCycle),
// enumerated kind/difficulty/artifact values, and resolvable body paths.
func validateStructure(m *Manifest, bodies bodyExister) []Diagnostic {
	var diags []Diagnostic

	nodeIDs := make(map[string]*ManifestNode)
	skillIDs := make(map[string]bool)
	checkpointIDs := make(map[string]bool)

	for i := range m.Skills {
		s := &m.Skills[i]
		if skillIDs[s.ID] {
			diags = append(diags, Diagnostic{Path: "$.skills[" + s.ID + "]", Message: "duplicate skill id"})
		}
		skillIDs[s.ID] = true
	}

	for wi := range m.Weeks {
		w := &m.Weeks[wi]
		for di := range w.Days {
			d := &w.Days[di]
			for ni := range d.Nodes {
				n := &d.Nodes[ni]
				path := fmt.Sprintf("$.weeks[%s].days[%s].nodes[%s]", w.ID, d.ID, n.ID)
				if _, dup := nodeIDs[n.ID]; dup {
					diags = append(diags, Diagnostic{Path: path, Message: "duplicate node id"})
					continue
				}
				nodeIDs[n.ID] = n

				if !enumeratedKinds[n.Kind] {
					diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("unknown kind %q", n.Kind)})
				}
				if !enumeratedDifficulties[n.Difficulty] {
					diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("unknown difficulty %q", n.Difficulty)})
				}
				for _, skillID := range n.Skills {
					if !skillIDs[skillID] {
						diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("references nonexistent skill %q", skillID)})
					}
				}
				if bodies != nil && n.BodyPath != "" && !bodies.Exists(n.BodyPath) {
					diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("body path %q does not exist", n.BodyPath)})
				}
			}
		}
	}

	for i := range m.Checkpoints {
		c := &m.Checkpoints[i]
		path := "$.checkpoints[" + c.ID + "]"
		if checkpointIDs[c.ID] {
			diags = append(diags, Diagnostic{Path: path, Message: "duplicate checkpoint id"})
		}
		checkpointIDs[c.ID] = true
		for _, kind := range c.Artifacts {
			if !enumeratedArtifactKinds[kind] {
				diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("unknown artifact kind %q", kind)})
			}
		}
		for kind, rubricPath := range c.RubricPathPerKind {
			if !enumeratedArtifactKinds[kind] {
				diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("rubric declared for unknown artifact kind %q", kind)})
			}
			if bodies != nil && rubricPath != "" && !bodies.Exists(rubricPath) {
				diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("rubric path %q does not exist", rubricPath)})
			}
		}
	}

	// Dangling prerequisites: nodes may depend on other nodes or
	// checkpoints may depend on nodes/checkpoints.
	idExists := func(id string) bool { return nodeIDs[id] != nil || checkpointIDs[id] }

	for wi := range m.Weeks {
		w := &m.Weeks[wi]
		for di := range w.Days {
			d := &w.Days[di]
			for ni := range d.Nodes {
				n := &d.Nodes[ni]
				path := fmt.Sprintf("$.weeks[%s].days[%s].nodes[%s]", w.ID, d.ID, n.ID)
				for _, prereq := range n.Prerequisites {
					if !idExists(prereq) {
						diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("references nonexistent prerequisite %q", prereq)})
					}
				}
			}
		}
	}
	for i := range m.Checkpoints {
		c := &m.Checkpoints[i]
		path := "$.checkpoints[" + c.ID + "]"
		for _, prereq := range c.Prerequisites {
			if !idExists(prereq) {
				diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf("references nonexistent prerequisite %q", prereq)})
			}
		}
	}

	if cycle := detectCycle(m, nodeIDs, checkpointIDs); cycle != "" {
		diags = append(diags, Diagnostic{Path: "$", Message: cycle})
	}

	return diags
}

// detectCycle runs Kahn's algorithm over the full node+checkpoint
// prerequisite graph; a nonempty string names the nodes left unvisited
// (i.e. part of a cycle) when the topological sort cannot consume every
// vertex.
func detectCycle(m *Manifest, nodeIDs map[string]*ManifestNode, checkpointIDs map[string]bool) string {
	inDegree := make(map[string]int)
	adj := make(map[string][]string)
	var allIDs []string

	addEdges := func(id string, prereqs []string) {
		inDegree[id] += len(prereqs)
		allIDs = append(allIDs, id)
		for _, p := range prereqs {
			adj[p] = append(adj[p], id)
		}
	}

	for wi := range m.Weeks {
		for di := range m.Weeks[wi].Days {
			for ni := range m.Weeks[wi].Days[di].Nodes {
				n := &m.Weeks[wi].Days[di].Nodes[ni]
				addEdges(n.ID, n.Prerequisites)
			}
		}
	}
	for i := range m.Checkpoints {
		c := &m.Checkpoints[i]
		addEdges(c.ID, c.Prerequisites)
	}

	var queue []string
	for _, id := range allIDs {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range adj[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited < len(allIDs) {
		var stuck []string
		for _, id := range allIDs {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return fmt.Sprintf("prerequisite cycle detected involving: %v", stuck)
	}
	return ""
}
