// Package ast defines the Raw Grammar abstract syntax produced by the
// parser: Grammar, Rule, Alternative, and the closed Symbol variant
// (Terminal | NonTerminal | Pattern).
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnfgen/bnfgen/core/token"
)

// Grammar is an ordered sequence of Rules. Order is preserved for
// diagnostic determinism; semantics do not depend on it.
type Grammar struct {
	Rules []Rule
}

func (g *Grammar) String() string {
	parts := make([]string, len(g.Rules))
	for i, r := range g.Rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, "\n")
}

// TypeTag distinguishes an untyped non-terminal from one qualified by
// a type label, e.g. <E> vs <E: "int">.
type TypeTag struct {
	Typed bool
	Label string
}

func Untyped() TypeTag { return TypeTag{} }

func Typed(label string) TypeTag { return TypeTag{Typed: true, Label: label} }

func (t TypeTag) String() string {
	if !t.Typed {
		return ""
	}
	return fmt.Sprintf(": %q", t.Label)
}

// Rule is one `<Name[: "tag"]> ::= alts ;` definition.
type Rule struct {
	Name       string
	Tag        TypeTag
	Production Production
	Span       token.Span
}

func (r Rule) String() string {
	return fmt.Sprintf("<%s%s> ::= %s ;", r.Name, r.Tag, r.Production)
}

// Key identifies a Rule by the (identifier, type-tag) pair the
// Validator uses for duplicate detection and the Checked Grammar uses
// for typed lookup.
type Key struct {
	Name string
	Tag  TypeTag
}

func (r Rule) Key() Key { return Key{Name: r.Name, Tag: r.Tag} }

// Production is the ordered sequence of Alternatives on a rule's
// right-hand side. Order is preserved but sampling is by weight.
type Production struct {
	Alternatives []Alternative
}

func (p Production) String() string {
	parts := make([]string, len(p.Alternatives))
	for i, a := range p.Alternatives {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

// Limit is a per-alternative invoke limit: either Unlimited, or a
// Bounded{Min,Max} range with 0 <= Min <= Max.
type Limit struct {
	Bounded bool
	Min     uint64
	Max     uint64 // meaningful only when Bounded
}

func Unlimited() Limit { return Limit{} }

func Bounded(min, max uint64) Limit { return Limit{Bounded: true, Min: min, Max: max} }

func (l Limit) String() string {
	if !l.Bounded {
		return ""
	}
	if l.Min == l.Max {
		return fmt.Sprintf(" {%d}", l.Min)
	}
	return fmt.Sprintf(" {%d,%d}", l.Min, l.Max)
}

// Valid reports whether a Bounded limit satisfies Min <= Max. Unlimited
// is always valid.
func (l Limit) Valid() bool {
	return !l.Bounded || l.Min <= l.Max
}

// Alternative is one right-hand branch of a Rule's Production.
type Alternative struct {
	Symbols []Symbol
	Weight  uint64 // positive; defaults to 1
	Limit   Limit
	Span    token.Span
}

func (a Alternative) String() string {
	var b strings.Builder
	if a.Weight != 1 {
		fmt.Fprintf(&b, "%d ", a.Weight)
	}
	parts := make([]string, len(a.Symbols))
	for i, s := range a.Symbols {
		parts[i] = s.String()
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString(a.Limit.String())
	return strings.TrimSpace(b.String())
}

// Symbol is the closed tagged variant Terminal | NonTerminal | Pattern.
// Type switches over the three concrete types exhaust the variants;
// there is no open dispatch (spec.md §9's "Symbol polymorphism" design
// note).
type Symbol interface {
	symbol()
	String() string
	Span() token.Span
}

// SymbolKind names a Symbol's variant as a plain value, returned by each
// variant's Kind method; the content-hash canonicalizer
// (internal/identity) records it in its encoding. The engine's reducer
// dispatches with a type switch instead.
type SymbolKind int

const (
	KindTerminal SymbolKind = iota
	KindNonTerminal
	KindPattern
)

func (Terminal) symbol()    {}
func (NonTerminal) symbol() {}
func (Pattern) symbol()     {}

// Terminal is a string literal emitted verbatim.
type Terminal struct {
	Literal string
	SpanVal token.Span
}

func (t Terminal) Kind() SymbolKind { return KindTerminal }
func (t Terminal) Span() token.Span { return t.SpanVal }
func (t Terminal) String() string   { return strconv.Quote(t.Literal) }

// NonTerminal is a reference to another rule, optionally qualified by
// a type tag.
type NonTerminal struct {
	Name    string
	Tag     TypeTag
	SpanVal token.Span
}

func (n NonTerminal) Kind() SymbolKind { return KindNonTerminal }
func (n NonTerminal) Span() token.Span { return n.SpanVal }
func (n NonTerminal) String() string   { return fmt.Sprintf("<%s%s>", n.Name, n.Tag) }

// Pattern is a re(...) symbol: a pattern body to be compiled and
// sampled at derivation time. Source holds the raw pattern text as
// written (before compilation) so the grammar can be re-emitted.
type Pattern struct {
	Source  string
	SpanVal token.Span
}

func (p Pattern) Kind() SymbolKind { return KindPattern }
func (p Pattern) Span() token.Span { return p.SpanVal }
func (p Pattern) String() string   { return fmt.Sprintf("re(%q)", p.Source) }
