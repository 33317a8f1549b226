package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/criteria/internal/criteria"
)

// CycleWarning reports a cycle in the relation graph of a registry.
//
// Cycles are expected (a relation and its inverse form one), so they are
// reported, never rejected. They matter to tooling that expands joins
// automatically, which must stop at a depth limit.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["users", "posts", "users"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeRelationCycles finds cycles among schemas linked by relations.
//
// The algorithm:
//  1. Build schema → target schema edges from every relation
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-relation
//
// A two-schema cycle is the usual relation/inverse pair and is reported at
// info level; self-relations and longer cycles are warnings.
func AnalyzeRelationCycles(reg *criteria.Registry) []CycleWarning {
	graph, order := buildRelationGraph(reg)
	if len(order) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// relationGraph maps schema name → target schema names in relation order.
type relationGraph map[string][]string

func buildRelationGraph(reg *criteria.Registry) (relationGraph, []string) {
	graph := make(relationGraph)
	order := reg.Names()
	for _, s := range reg.Schemas() {
		graph[s.Name] = []string{}
		for _, rel := range s.Relations {
			graph[s.Name] = append(graph[s.Name], rel.Target)
		}
	}
	return graph, order
}

func hasSelfLoop(node string, graph relationGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in order so
// results are deterministic.
func tarjanSCC(graph relationGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph relationGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referencing relation on schema %s", name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	level := "warning"
	if len(scc) == 2 {
		level = "info"
	}
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relation cycle: %s", strings.Join(path, " -> ")),
		Level:   level,
	}
}

// reconstructCyclePath walks edges inside the SCC from its last-popped node
// (the SCC root, i.e. the first schema visited) back to itself.
func reconstructCyclePath(scc []string, graph relationGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
