package graph

import "github.com/bnfgen/bnfgen/core/ast"

// sccState carries Tarjan's algorithm bookkeeping across the recursive
// strongconnect calls.
type sccState struct {
	index, low []int
	onStack    []bool
	stack      []int
	counter    int
	components [][]int
}

// components returns the graph's strongly-connected components via
// Tarjan's algorithm, in no particular order.
func (g *Graph) components() [][]int {
	n := len(g.nodes)
	st := &sccState{
		index: make([]int, n),
		low:   make([]int, n),
	}
	for i := range st.index {
		st.index[i] = -1
	}
	st.onStack = make([]bool, n)

	var strongconnect func(v int)
	strongconnect = func(v int) {
		st.index[v] = st.counter
		st.low[v] = st.counter
		st.counter++
		st.stack = append(st.stack, v)
		st.onStack[v] = true

		for _, w := range g.edges[v] {
			if st.index[w] == -1 {
				strongconnect(w)
				if st.low[w] < st.low[v] {
					st.low[v] = st.low[w]
				}
			} else if st.onStack[w] {
				if st.index[w] < st.low[v] {
					st.low[v] = st.index[w]
				}
			}
		}

		if st.low[v] == st.index[v] {
			var comp []int
			for {
				w := st.stack[len(st.stack)-1]
				st.stack = st.stack[:len(st.stack)-1]
				st.onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			st.components = append(st.components, comp)
		}
	}

	for v := 0; v < n; v++ {
		if st.index[v] == -1 {
			strongconnect(v)
		}
	}
	return st.components
}

// hasSelfLoop reports whether node i has an edge to itself.
func (g *Graph) hasSelfLoop(i int) bool {
	for _, j := range g.edges[i] {
		if j == i {
			return true
		}
	}
	return false
}

// TrapLoop names a group of mutually-recursive rules none of which can
// ever terminate a derivation without recursing back into the group
// (spec.md §4.3 item 5).
type TrapLoop struct {
	Members []ast.Key
}

// canEscapeInSCC computes, for every node in one strongly-connected
// component, whether some finite-length derivation exists starting
// from it, counting a reference to another member of the same
// component as escaping only once that member has itself been marked
// escaping by an earlier pass. The fixed point runs only over scc: a
// reference to a node outside scc escapes unconditionally, regardless
// of whether that external node can itself reach a terminal (it is not
// part of the loop being tested and is analyzed as its own component
// when its turn comes). This mirrors is_trap_loop's scc_names-scoped
// fixpoint in the original Rust source, generalized from by-name nodes
// to by-(name,tag) nodes.
func canEscapeInSCC(grammar *ast.Grammar, g *Graph, byName map[string][]int, scc []int) map[int]bool {
	inSCC := make(map[int]bool, len(scc))
	for _, i := range scc {
		inSCC[i] = true
	}

	alternativesByNode := make(map[int][]ast.Alternative, len(scc))
	for _, r := range grammar.Rules {
		if idx, ok := g.index[r.Key()]; ok && inSCC[idx] {
			alternativesByNode[idx] = r.Production.Alternatives
		}
	}

	escapes := make(map[int]bool, len(scc))
	for changed := true; changed; {
		changed = false
		for _, i := range scc {
			if escapes[i] {
				continue
			}
			for _, alt := range alternativesByNode[i] {
				if altEscapesSCC(alt, g, byName, inSCC, escapes) {
					escapes[i] = true
					changed = true
					break
				}
			}
		}
	}
	return escapes
}

func altEscapesSCC(alt ast.Alternative, g *Graph, byName map[string][]int, inSCC map[int]bool, escapes map[int]bool) bool {
	for _, sym := range alt.Symbols {
		nt, ok := sym.(ast.NonTerminal)
		if !ok {
			continue
		}
		var targets []int
		if nt.Tag.Typed {
			if idx, ok := g.index[ast.Key{Name: nt.Name, Tag: nt.Tag}]; ok {
				targets = []int{idx}
			} else {
				return false // undefined reference; Validator reports separately
			}
		} else {
			targets = byName[nt.Name]
		}
		if len(targets) == 0 {
			return false
		}
		// an untyped reference escapes only if every candidate it could
		// resolve to at runtime escapes, since the resolution is chosen
		// uniformly at random and any candidate might be picked. A
		// candidate outside this SCC escapes unconditionally.
		for _, t := range targets {
			if inSCC[t] && !escapes[t] {
				return false
			}
		}
	}
	return true
}

func (g *Graph) nodesByName() map[string][]int {
	m := make(map[string][]int, len(g.nodes))
	for i, k := range g.nodes {
		m[k.Name] = append(m[k.Name], i)
	}
	return m
}

// CheckTrapLoop reports every non-trivial strongly-connected component
// (size > 1, or a single self-referencing node) in which no member can
// escape to a finite derivation. These are grammars that would cause
// the engine to recurse without bound regardless of RNG outcome.
func (g *Graph) CheckTrapLoop(grammar *ast.Grammar) []TrapLoop {
	byName := g.nodesByName()
	var traps []TrapLoop
	for _, comp := range g.components() {
		nontrivial := len(comp) > 1 || g.hasSelfLoop(comp[0])
		if !nontrivial {
			continue
		}
		escapes := canEscapeInSCC(grammar, g, byName, comp)
		allStuck := true
		for _, i := range comp {
			if escapes[i] {
				allStuck = false
				break
			}
		}
		if allStuck {
			members := make([]ast.Key, len(comp))
			for i, idx := range comp {
				members[i] = g.nodes[idx]
			}
			traps = append(traps, TrapLoop{Members: members})
		}
	}
	return traps
}
