// Package checked holds the Checked Grammar: a Raw Grammar (core/ast)
// that has passed structural validation (spec.md §4.3) and exposes the
// typed/untyped non-terminal lookup rules the engine needs (spec.md
// §3): an exact match for a typed reference, uniform-random-among-
// candidates for an untyped one.
//
// Grounded on opal-lang-opal's core/resolve (a two-pass resolve step
// producing a "resolved" tree consumers can trust is well-formed)
// generalized from static name resolution to this grammar's two lookup
// disciplines.
package checked

import (
	"github.com/bnfgen/bnfgen/core/ast"
	"github.com/bnfgen/bnfgen/core/rng"
)

// CheckedGrammar is a Grammar known to satisfy every structural
// invariant in spec.md §4.3: no undefined references, no duplicate
// rule keys, every invoke limit has Min <= Max.
type CheckedGrammar struct {
	start    ast.Key
	byKey    map[ast.Key]ast.Production
	byName   map[string][]ast.Key
	order    map[ast.Key]int // original declaration order, for deterministic candidate ordering
	literals map[string]struct{}
}

// IsReservedLiteral reports whether s equals some Terminal literal
// appearing anywhere in the grammar. The derivation engine uses this to
// avoid a sampled re(...) pattern string accidentally colliding with a
// literal the grammar author wrote elsewhere, which original_source's
// collision-avoidance pass treats as a grammar-wide concern rather than
// a per-rule one.
func (c *CheckedGrammar) IsReservedLiteral(s string) bool {
	_, ok := c.literals[s]
	return ok
}

// Start returns the grammar's start rule key.
func (c *CheckedGrammar) Start() ast.Key { return c.start }

// Production returns the right-hand side bound to key.
func (c *CheckedGrammar) Production(key ast.Key) ast.Production { return c.byKey[key] }

// Resolve looks up the Production a NonTerminal reference derives from.
// A typed reference resolves to its exact (name, tag) match. An untyped
// reference is resolved by choosing uniformly at random among every
// rule sharing that bare name, per spec.md §3. This is the only place
// in the pipeline untyped polymorphism is resolved; each call with a
// defined untyped reference consumes one random draw from src, while a
// typed reference consumes none.
func (c *CheckedGrammar) Resolve(ref ast.NonTerminal, src rng.Source) (ast.Key, ast.Production, bool) {
	if ref.Tag.Typed {
		key := ast.Key{Name: ref.Name, Tag: ref.Tag}
		prod, ok := c.byKey[key]
		return key, prod, ok
	}
	candidates := c.byName[ref.Name]
	if len(candidates) == 0 {
		return ast.Key{}, ast.Production{}, false
	}
	key := candidates[src.Intn(len(candidates))]
	return key, c.byKey[key], true
}

// Keys returns every rule key in declaration order.
func (c *CheckedGrammar) Keys() []ast.Key {
	keys := make([]ast.Key, len(c.byKey))
	for k, i := range c.order {
		keys[i] = k
	}
	return keys
}
