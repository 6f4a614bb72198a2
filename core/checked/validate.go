package checked

import (
	"fmt"

	"github.com/bnfgen/bnfgen/core/ast"
	"github.com/bnfgen/bnfgen/core/diag"
	"github.com/bnfgen/bnfgen/core/graph"
	"github.com/bnfgen/bnfgen/core/token"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Opt configures Validate.
type Opt func(*options)

type options struct {
	strict bool
}

// WithStrict enables the stricter structural checks of spec.md §4.3
// items 4-5: unreachable-rule and trap-loop detection. These require
// building the full rule-reference graph, which is worth skipping for
// a quick syntax-only check (the CLI's `bnfgen check` without --strict).
func WithStrict() Opt { return func(o *options) { o.strict = true } }

// Validate runs the structural checks of spec.md §4.3 against a Raw
// Grammar and, if every check passes, returns a CheckedGrammar ready
// for derivation. start names the rule the derivation engine begins
// from. The duplicate, limit, reference and start-rule checks
// accumulate independently and never stop at the first error; the
// strict checks (WithStrict) run only when those report nothing.
func Validate(g *ast.Grammar, start string, opts ...Opt) (*CheckedGrammar, diag.Diagnostics) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var diags diag.Diagnostics

	byKey := make(map[ast.Key]ast.Production, len(g.Rules))
	byName := make(map[string][]ast.Key)
	order := make(map[ast.Key]int, len(g.Rules))
	names := make([]string, 0, len(g.Rules))

	for _, r := range g.Rules {
		key := r.Key()
		if _, dup := byKey[key]; dup {
			diags.Add(diag.Diagnostic{
				Kind:    diag.DuplicatedRules,
				Message: fmt.Sprintf("rule %q is declared more than once with the same type tag", key.Name),
				Span:    r.Span,
			})
			continue
		}
		byKey[key] = r.Production
		byName[r.Name] = append(byName[r.Name], key)
		order[key] = len(order)
		names = append(names, r.Name)
	}

	checkLimits(g, &diags)
	checkReferences(g, byName, names, &diags)

	startKey := ast.Key{Name: start}
	startTyped, startOk := resolveStartKey(byName, start)
	if !startOk {
		diags.Add(diag.Diagnostic{
			Kind:    diag.UndefinedNonTerminal,
			Message: fmt.Sprintf("start rule %q is not defined", start),
		})
	} else {
		startKey = startTyped
	}

	if o.strict && len(diags) == 0 {
		spans := make(map[ast.Key]token.Span, len(g.Rules))
		for _, r := range g.Rules {
			spans[r.Key()] = r.Span
		}

		gr := graph.Build(g)
		for _, key := range gr.CheckUnused(startKey) {
			diags.Add(diag.Diagnostic{
				Kind:    diag.UnreachableRules,
				Message: fmt.Sprintf("rule %q is never reachable from the start rule", key.Name),
				Span:    spans[key],
			})
		}
		for _, trap := range gr.CheckTrapLoop(g) {
			names := make([]string, len(trap.Members))
			related := make([]token.Span, len(trap.Members))
			for i, m := range trap.Members {
				names[i] = m.Name
				related[i] = spans[m]
			}
			diags.Add(diag.Diagnostic{
				Kind:    diag.TrapLoop,
				Message: fmt.Sprintf("rules %v form a cycle with no alternative that can terminate a derivation", names),
				Span:    related[0],
				Related: related,
			})
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}

	return &CheckedGrammar{start: startKey, byKey: byKey, byName: byName, order: order, literals: collectLiterals(g)}, nil
}

func collectLiterals(g *ast.Grammar) map[string]struct{} {
	literals := make(map[string]struct{})
	for _, r := range g.Rules {
		for _, alt := range r.Production.Alternatives {
			for _, sym := range alt.Symbols {
				if t, ok := sym.(ast.Terminal); ok {
					literals[t.Literal] = struct{}{}
				}
			}
		}
	}
	return literals
}

func resolveStartKey(byName map[string][]ast.Key, start string) (ast.Key, bool) {
	candidates := byName[start]
	if len(candidates) == 0 {
		return ast.Key{}, false
	}
	return candidates[0], true
}

func checkLimits(g *ast.Grammar, diags *diag.Diagnostics) {
	for _, r := range g.Rules {
		for _, alt := range r.Production.Alternatives {
			if alt.Limit.Bounded && !alt.Limit.Valid() {
				diags.Add(diag.Diagnostic{
					Kind:    diag.InvalidRepeatRange,
					Message: fmt.Sprintf("invoke limit {%d,%d} has min greater than max", alt.Limit.Min, alt.Limit.Max),
					Span:    alt.Span,
				})
			}
		}
	}
}

func checkReferences(g *ast.Grammar, byName map[string][]ast.Key, allNames []string, diags *diag.Diagnostics) {
	for _, r := range g.Rules {
		for _, alt := range r.Production.Alternatives {
			for _, sym := range alt.Symbols {
				nt, ok := sym.(ast.NonTerminal)
				if !ok {
					continue
				}
				// per spec.md §4.3 item 1, the undefined-reference check
				// is by identifier only; type tags are not considered at
				// this stage. A typed reference whose identifier exists
				// under a different tag is structurally valid here and
				// only fails later, at derivation time, when Resolve
				// cannot find an exact (name, tag) match (spec.md §3).
				if _, ok := byName[nt.Name]; ok {
					continue
				}

				d := diag.Diagnostic{
					Kind:    diag.UndefinedNonTerminal,
					Message: fmt.Sprintf("%q is not defined", nt.String()),
					Span:    nt.Span(),
				}
				if best := closestName(nt.Name, allNames); best != "" {
					d.Suggestion = fmt.Sprintf("did you mean %q?", best)
				}
				diags.Add(d)
			}
		}
	}
}

// closestName returns the declared rule name that best fuzzy-matches
// name, or "" if none of the candidates are a plausible subsequence
// match at all (RankFindFold already excludes non-matches; this just
// picks the tightest of what's left).
func closestName(name string, candidates []string) string {
	matches := fuzzy.RankFindFold(name, candidates)
	if len(matches) == 0 {
		return ""
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Distance < best.Distance {
			best = m
		}
	}
	return best.Target
}
