// Package diag defines the structured diagnostic type shared by the
// lexer, parser and validator (including its graph-analyzer checks);
// the engine reports its failures as the sentinel errors
// engine.ErrNoCandidates and engine.ErrMaxStepsExceeded. Rendering structured diagnostics into annotated source text
// is the responsibility of an external diagnostic renderer; Diagnostic
// only carries enough information (Kind, Span, Message, Suggestion) for
// such a renderer to do its job, and implements error for convenience
// in tests and thin CLI output.
package diag

import (
	"fmt"
	"strings"

	"github.com/bnfgen/bnfgen/core/token"
)

// Kind enumerates the diagnostic taxonomy of spec.md §7, one value per
// failure kind, tagged by the stage that produces it.
type Kind int

const (
	InvalidToken Kind = iota
	InvalidInteger
	UnrecognizedToken
	ExtraToken
	UnrecognizedEOF
	InvalidRegex
	UndefinedNonTerminal
	InvalidRepeatRange
	DuplicatedRules
	UnreachableRules
	TrapLoop
	NoCandidates
	MaxStepsExceeded
)

func (k Kind) String() string {
	switch k {
	case InvalidToken:
		return "InvalidToken"
	case InvalidInteger:
		return "InvalidInteger"
	case UnrecognizedToken:
		return "UnrecognizedToken"
	case ExtraToken:
		return "ExtraToken"
	case UnrecognizedEOF:
		return "UnrecognizedEOF"
	case InvalidRegex:
		return "InvalidRegex"
	case UndefinedNonTerminal:
		return "UndefinedNonTerminal"
	case InvalidRepeatRange:
		return "InvalidRepeatRange"
	case DuplicatedRules:
		return "DuplicatedRules"
	case UnreachableRules:
		return "UnreachableRules"
	case TrapLoop:
		return "TrapLoop"
	case NoCandidates:
		return "NoCandidates"
	case MaxStepsExceeded:
		return "MaxStepsExceeded"
	default:
		return "Unknown"
	}
}

// Diagnostic is a single structured error, carrying the span(s) it
// applies to. Most diagnostics have a single Span; TrapLoop can cite
// more than one rule, so it also lists every cited rule in Related.
// UnreachableRules is reported once per unreachable rule, with that
// rule's Span.
type Diagnostic struct {
	Kind       Kind
	Message    string
	Span       token.Span
	Related    []token.Span // additional spans (e.g. all rules in a trap-loop SCC)
	Suggestion string       // optional "did you mean <X>?" text
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s)", d.Kind, d.Message, d.Span.Start)
	if d.Suggestion != "" {
		fmt.Fprintf(&b, " — %s", d.Suggestion)
	}
	return b.String()
}

// Diagnostics accumulates independent diagnostics from a stage that
// does not stop at the first error (the lexer, parser, and validator
// all compose this way per spec.md §7's propagation policy).
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	var lines []string
	for _, d := range ds {
		lines = append(lines, d.Error())
	}
	return strings.Join(lines, "\n")
}

// Add appends a diagnostic to the receiver, for accumulation in
// validator passes.
func (ds *Diagnostics) Add(d Diagnostic) {
	*ds = append(*ds, d)
}

// HasErrors reports whether any diagnostics were accumulated.
func (ds Diagnostics) HasErrors() bool {
	return len(ds) > 0
}
