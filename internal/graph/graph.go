// Package graph builds the dependency DAG of one config's checks
// (spec.md §3, §4.3). Identity lives entirely in the name->index map;
// edges hold indices only, never pointers between nodes, so cyclic
// reference structures never arise (spec.md §9).
package graph

import (
	"fmt"

	"github.com/verify-ci/verify/internal/config"
)

// Graph is a directed graph over a single config's checks (and any
// subprojects a check depends on). Edges point from a dependency to its
// dependent, matching spec.md §4.3.
type Graph struct {
	names   []string       // index -> name, in declaration order
	index   map[string]int // name -> index
	deps    [][]int        // index -> indices of its dependencies
	dependents [][]int     // index -> indices of things depending on it
}

// New builds the graph for cfg and detects cycles. Nodes are every check
// plus every subproject that at least one check names in depends_on.
func New(cfg *config.Config) (*Graph, error) {
	g := &Graph{index: make(map[string]int)}

	add := func(name string) int {
		if i, ok := g.index[name]; ok {
			return i
		}
		i := len(g.names)
		g.index[name] = i
		g.names = append(g.names, name)
		g.deps = append(g.deps, nil)
		g.dependents = append(g.dependents, nil)
		return i
	}

	referenced := make(map[string]bool)
	for _, check := range cfg.Checks() {
		for _, dep := range check.DependsOn {
			referenced[dep] = true
		}
	}
	for _, name := range cfg.Order {
		if !cfg.IsSubproject(name) || referenced[name] {
			add(name)
		}
	}
	for _, check := range cfg.Checks() {
		ci := add(check.Name)
		for _, dep := range check.DependsOn {
			di := add(dep)
			g.deps[ci] = append(g.deps[ci], di)
			g.dependents[di] = append(g.dependents[di], ci)
		}
	}

	if cycleNode := g.findCycle(); cycleNode != "" {
		return nil, fmt.Errorf("dependency cycle detected at %q", cycleNode)
	}

	return g, nil
}

// findCycle returns the name of one node on a cycle, or "" if acyclic.
func (g *Graph) findCycle() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.names))

	var visit func(i int) string
	visit = func(i int) string {
		color[i] = gray
		for _, d := range g.deps[i] {
			switch color[d] {
			case gray:
				return g.names[d]
			case white:
				if found := visit(d); found != "" {
					return found
				}
			}
		}
		color[i] = black
		return ""
	}

	for i := range g.names {
		if color[i] == white {
			if found := visit(i); found != "" {
				return found
			}
		}
	}
	return ""
}

// ExecutionWaves returns the topological layering: wave i contains every
// node whose dependencies are all satisfied by waves < i. Nodes within a
// wave are independent of one another; ties are broken by declaration
// order so human output (spec.md §9) stays deterministic.
func (g *Graph) ExecutionWaves() [][]string {
	waveOf := make([]int, len(g.names))
	for i := range waveOf {
		waveOf[i] = -1
	}

	remaining := make([]int, len(g.names))
	for i := range g.names {
		remaining[i] = len(g.deps[i])
	}

	var waves [][]string
	placed := 0
	for placed < len(g.names) {
		var current []int
		for i := range g.names {
			if waveOf[i] == -1 && remaining[i] == 0 {
				current = append(current, i)
			}
		}
		if len(current) == 0 {
			// Unreachable if New() rejected cycles, but guard anyway.
			break
		}

		names := make([]string, len(current))
		for j, i := range current {
			names[j] = g.names[i]
			waveOf[i] = len(waves)
		}
		waves = append(waves, names)
		placed += len(current)

		for _, i := range current {
			for _, dep := range g.dependents[i] {
				remaining[dep]--
			}
		}
	}

	return waves
}

// TransitiveDependencies returns the closure of name's dependencies,
// including name itself.
func (g *Graph) TransitiveDependencies(name string) []string {
	start, ok := g.index[name]
	if !ok {
		return nil
	}

	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, d := range g.deps[i] {
			if !visited[d] {
				visited[d] = true
				queue = append(queue, d)
			}
		}
	}

	out := make([]string, 0, len(visited))
	for i := range g.names {
		if visited[i] {
			out = append(out, g.names[i])
		}
	}
	return out
}

// Names returns every node name in declaration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.names...)
}

// DirectDependencies returns name's immediate dependencies in declaration order.
func (g *Graph) DirectDependencies(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	out := make([]string, len(g.deps[i]))
	for j, d := range g.deps[i] {
		out[j] = g.names[d]
	}
	return out
}
