package engine

import (
	"fmt"
	"sort"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// Node represents a vertex in the execution DAG.
type Node struct {
	ID         string
	Stage      Stage
	DependsOn  []*Node
	Dependents []*Node
}

// Graph encapsulates the DAG structure and topological levels. Stages in
// the same level share no dependency path and may run concurrently.
type Graph struct {
	Nodes  map[string]*Node
	Levels [][]string
}

// BuildGraph wires the declared stage dependencies into a validated DAG.
// A duplicate name, an unresolvable requirement, or a cycle is a
// configuration error raised before any stage runs.
func BuildGraph(stages []Stage) (*Graph, error) {
	g := &Graph{Nodes: make(map[string]*Node, len(stages))}

	for _, stage := range stages {
		if stage == nil {
			return nil, briefingerrors.NewValidationError("stages", "stage cannot be nil", nil)
		}
		if _, exists := g.Nodes[stage.Name()]; exists {
			return nil, briefingerrors.NewValidationError("stages", fmt.Sprintf("duplicate stage name %q", stage.Name()), nil)
		}
		g.Nodes[stage.Name()] = &Node{ID: stage.Name(), Stage: stage}
	}

	for _, node := range g.Nodes {
		deps := append(append([]string(nil), node.Stage.Requires()...), node.Stage.Uses()...)
		for _, dep := range deps {
			source, ok := g.Nodes[dep]
			if !ok {
				return nil, briefingerrors.NewValidationError(
					node.ID, fmt.Sprintf("declares unknown input %q", dep), nil)
			}
			source.Dependents = append(source.Dependents, node)
			node.DependsOn = append(node.DependsOn, source)
		}
	}

	if err := g.topologicalSort(); err != nil {
		return nil, err
	}
	return g, nil
}

// topologicalSort computes the DAG levels using Kahn's algorithm.
func (g *Graph) topologicalSort() error {
	indegree := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		indegree[id] = 0
	}

	for _, node := range g.Nodes {
		for _, dep := range node.Dependents {
			indegree[dep.ID]++
		}
	}

	var queue []string
	for id, degree := range indegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	processed := 0
	var levels [][]string

	for len(queue) > 0 {
		currentLevel := queue
		sort.Strings(currentLevel)
		levels = append(levels, append([]string(nil), currentLevel...))

		var nextLevel []string
		for _, id := range currentLevel {
			processed++
			node := g.Nodes[id]
			for _, dependent := range node.Dependents {
				indegree[dependent.ID]--
				if indegree[dependent.ID] == 0 {
					nextLevel = append(nextLevel, dependent.ID)
				}
			}
		}

		sort.Strings(nextLevel)
		queue = nextLevel
	}

	if processed != len(g.Nodes) {
		return briefingerrors.NewValidationError("stages", "cycle detected while sorting graph", nil)
	}

	g.Levels = levels
	return nil
}
