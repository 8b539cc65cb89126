// Package graph builds and validates the operation dependency graph: nodes
// keyed by operation type, edges from dependency to dependent, and a
// Kahn's-algorithm topological leveling that doubles as cycle detection.
package graph

import (
	"context"
	"sort"

	"github.com/tcmigrate/core/internal/domain/migration"
)

// Node is one vertex in the graph, keyed by its operation type.
type Node struct {
	Type       string
	Definition migration.OperationDefinition
	DependsOn  []string
	Dependents []string
}

// Level is one batch of operation types that can run without waiting on one
// another, in the order the topological sort discovered them.
type Level struct {
	Index int
	Types []string
}

// Graph is the dependency graph over a run's operation set. Nodes is built
// incrementally by AddNode; Build fills in each node's Dependents and
// populates Levels, which is nil until then.
type Graph struct {
	Nodes  map[string]*Node
	Levels []Level
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode inserts one operation definition as a vertex. It is an error to
// add the same type twice.
func (g *Graph) AddNode(def migration.OperationDefinition) error {
	if def.Type == "" {
		return migration.NewGraphInvalidError("operation type must not be empty", nil)
	}
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	if _, exists := g.Nodes[def.Type]; exists {
		return migration.NewGraphInvalidError("duplicate operation type", map[string]interface{}{"type": def.Type})
	}
	g.Nodes[def.Type] = &Node{Type: def.Type, Definition: def, DependsOn: append([]string(nil), def.DependsOn...)}
	return nil
}

// adjacency validates every dependsOn target exists and no node depends on
// itself, returning a fresh dependent-edges map without mutating g.Nodes.
func (g *Graph) adjacency() (map[string][]string, error) {
	edges := make(map[string][]string, len(g.Nodes))
	for id, node := range g.Nodes {
		for _, dep := range node.DependsOn {
			if dep == id {
				return nil, migration.NewGraphInvalidError("operation cannot depend on itself", map[string]interface{}{"type": id})
			}
			if _, ok := g.Nodes[dep]; !ok {
				return nil, migration.NewMissingDependencyError(id, dep)
			}
			edges[dep] = append(edges[dep], id)
		}
	}
	return edges, nil
}

// Roots returns the operation types with no dependencies, the entry points
// of any valid traversal.
func (g *Graph) Roots() []string {
	var roots []string
	for id, node := range g.Nodes {
		if len(node.DependsOn) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns the operation types nothing depends on, the exit points of
// any valid traversal. Unlike Dependents, this does not require Build to
// have run first.
func (g *Graph) Leaves() []string {
	hasDependents := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		for _, dep := range node.DependsOn {
			hasDependents[dep] = true
		}
	}
	var leaves []string
	for id := range g.Nodes {
		if !hasDependents[id] {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Build computes the topological levels via Kahn's algorithm. A non-empty
// result implies the graph is acyclic and every node is reachable from a
// root; Build itself is the authoritative hasCycle() check — callers must
// not trust Levels from a graph that returned an error.
func (g *Graph) Build(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return migration.StopErrorFromContext(err)
	}
	edges, err := g.adjacency()
	if err != nil {
		return err
	}
	for id, dependents := range edges {
		g.Nodes[id].Dependents = dependents
	}

	indegree := make(map[string]int, len(g.Nodes))
	for id, node := range g.Nodes {
		indegree[id] = len(node.DependsOn)
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	processed := 0
	var levels []Level

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return migration.StopErrorFromContext(err)
		}
		current := append([]string(nil), queue...)
		sort.Strings(current)
		levels = append(levels, Level{Index: len(levels), Types: current})

		var next []string
		for _, id := range current {
			processed++
			for _, dependent := range edges[id] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if processed != len(g.Nodes) {
		return migration.NewGraphInvalidError("cycle detected in operation graph", nil)
	}

	g.Levels = levels
	return nil
}

// HasCycle reports whether the graph as currently defined contains a
// cycle or an unresolved dependency, without mutating g.
func (g *Graph) HasCycle(ctx context.Context) bool {
	probe := &Graph{Nodes: make(map[string]*Node, len(g.Nodes))}
	for id, node := range g.Nodes {
		clone := *node
		clone.Dependents = nil
		probe.Nodes[id] = &clone
	}
	return probe.Build(ctx) != nil
}
