// Package graph builds the rule-reference graph of a grammar and
// answers the two structural questions the Validator needs for strict
// checking (spec.md §4.3 items 4-5): which rules are unreachable from
// the start symbol, and which strongly-connected components are "trap
// loops" that can never escape to a terminal.
//
// No teacher file implements a reference graph or Tarjan SCC directly;
// the adjacency-list/worklist traversal style here follows
// shadowCow-cow-lang-go's NFA-closure idiom
// (lang/automata/nfa_to_dfa.go's explicit queue over string-keyed
// state sets), adapted from NFA-closure computation to graph
// reachability and strongly-connected-component analysis. Escape
// analysis per SCC is grounded on the original Rust source's
// is_trap_loop fixpoint
// (original_source/crates/bnfgen-core/src/grammar/graph.rs).
package graph

import "github.com/bnfgen/bnfgen/core/ast"

// Graph is the rule-reference graph: one node per distinct Rule key,
// one edge per NonTerminal symbol appearing in that rule's production.
type Graph struct {
	nodes []ast.Key
	index map[ast.Key]int
	edges [][]int // edges[i] = indices this node references
}

// Build constructs the reference graph of g. Edges point from a rule
// to every rule key referenced anywhere in its alternatives. An edge to
// a NonTerminal with no matching rule is skipped; that is an
// undefined-reference error the Validator reports separately.
func Build(g *ast.Grammar) *Graph {
	gr := &Graph{index: make(map[ast.Key]int)}
	for _, r := range g.Rules {
		k := r.Key()
		if _, ok := gr.index[k]; ok {
			continue // duplicate rule; Validator reports it
		}
		gr.index[k] = len(gr.nodes)
		gr.nodes = append(gr.nodes, k)
	}
	gr.edges = make([][]int, len(gr.nodes))

	// untypedTargets maps a bare name to every node key sharing that
	// name, for edges from untyped NonTerminal references (spec.md §3's
	// uniform-random-among-candidates lookup means an untyped reference
	// can reach any rule sharing its name).
	untypedTargets := make(map[string][]int)
	for i, k := range gr.nodes {
		untypedTargets[k.Name] = append(untypedTargets[k.Name], i)
	}

	for _, r := range g.Rules {
		from, ok := gr.index[r.Key()]
		if !ok {
			continue
		}
		seen := make(map[int]bool)
		for _, alt := range r.Production.Alternatives {
			for _, sym := range alt.Symbols {
				nt, ok := sym.(ast.NonTerminal)
				if !ok {
					continue
				}
				var targets []int
				if nt.Tag.Typed {
					if idx, ok := gr.index[ast.Key{Name: nt.Name, Tag: nt.Tag}]; ok {
						targets = []int{idx}
					}
				} else {
					targets = untypedTargets[nt.Name]
				}
				for _, t := range targets {
					if !seen[t] {
						seen[t] = true
						gr.edges[from] = append(gr.edges[from], t)
					}
				}
			}
		}
	}
	return gr
}

// CheckUnused returns the Keys of every node not reachable from start
// by any path of NonTerminal references, via a DFS over the reference
// graph (spec.md §4.3 item 4).
func (g *Graph) CheckUnused(start ast.Key) []ast.Key {
	startIdx, ok := g.index[start]
	if !ok {
		// start itself is undefined; the Validator reports that
		// separately and nothing is reachable.
		var all []ast.Key
		all = append(all, g.nodes...)
		return all
	}

	visited := make([]bool, len(g.nodes))
	var dfs func(i int)
	dfs = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, j := range g.edges[i] {
			dfs(j)
		}
	}
	dfs(startIdx)

	var unreached []ast.Key
	for i, v := range visited {
		if !v {
			unreached = append(unreached, g.nodes[i])
		}
	}
	return unreached
}
