package engine

import (
	"errors"
	"time"

	"github.com/bnfgen/bnfgen/core/ast"
	"github.com/bnfgen/bnfgen/core/checked"
	"github.com/bnfgen/bnfgen/core/pattern"
)

// TelemetryMode controls telemetry collection during derivation.
type TelemetryMode int

const (
	TelemetryOff TelemetryMode = iota
	TelemetryBasic
	TelemetryTiming
)

// Opt configures a derivation run.
type Opt func(*config)

type config struct {
	telemetry TelemetryMode
	maxSteps  int
}

// WithTelemetryBasic enables step-count telemetry.
func WithTelemetryBasic() Opt { return func(c *config) { c.telemetry = TelemetryBasic } }

// WithTelemetryTiming enables step-count and wall-clock telemetry.
func WithTelemetryTiming() Opt { return func(c *config) { c.telemetry = TelemetryTiming } }

// WithMaxSteps bounds the number of worklist reductions a single
// derivation attempt may perform before failing with
// ErrMaxStepsExceeded (spec.md §4.7's step ceiling; the Driver decides
// whether to retry). A non-positive value means unbounded.
func WithMaxSteps(n int) Opt { return func(c *config) { c.maxSteps = n } }

// StepTelemetry reports how a derivation attempt ran; nil unless
// requested via WithTelemetryBasic/WithTelemetryTiming.
type StepTelemetry struct {
	Steps    int
	Duration time.Duration
}

// ErrMaxStepsExceeded is returned when a derivation attempt performs
// more worklist reductions than its configured ceiling.
var ErrMaxStepsExceeded = errors.New("derivation exceeded its step ceiling")

// DeriveString performs the iterative, worklist-based string
// derivation of spec.md §4.4: starting from the grammar's start rule,
// it repeatedly pops the frontmost pending symbol, emits it (Terminal,
// Pattern) or expands it into its chosen alternative's symbol sequence
// (NonTerminal), until the worklist is empty. This shape is preferred
// over recursion for the string-only path since a derivation can be
// arbitrarily deep and spec.md explicitly calls for a step ceiling
// rather than a stack-depth one.
func DeriveString(cg *checked.CheckedGrammar, st *State, opts ...Opt) (string, *StepTelemetry, error) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	var start time.Time
	if cfg.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	worklist := []ast.Symbol{ast.NonTerminal{Name: cg.Start().Name, Tag: cg.Start().Tag}}
	var out []byte
	steps := 0

	for len(worklist) > 0 {
		if cfg.maxSteps > 0 && steps >= cfg.maxSteps {
			return "", nil, ErrMaxStepsExceeded
		}
		steps++

		sym := worklist[0]
		worklist = worklist[1:]

		switch v := sym.(type) {
		case ast.Terminal:
			out = append(out, v.Literal...)
		case ast.Pattern:
			compiled, err := pattern.Compile(v.Source)
			if err != nil {
				return "", nil, err // unreachable: Validator-adjacent stages already compiled this pattern once
			}
			out = append(out, samplePatternAvoidingLiterals(cg, compiled, st)...)
		case ast.NonTerminal:
			_, prod, ok := cg.Resolve(v, st.src)
			if !ok {
				return "", nil, ErrNoCandidates
			}
			alt, id, err := selectAlternative(prod.Alternatives, st)
			if err != nil {
				return "", nil, err
			}
			st.increment(id)
			worklist = append(append([]ast.Symbol{}, alt.Symbols...), worklist...)
		}
	}

	var tel *StepTelemetry
	if cfg.telemetry >= TelemetryBasic {
		tel = &StepTelemetry{Steps: steps}
		if cfg.telemetry >= TelemetryTiming {
			tel.Duration = time.Since(start)
		}
	}
	return string(out), tel, nil
}

// patternCollisionRetries bounds how many times a re(...) sample is
// redrawn to avoid matching a literal terminal elsewhere in the
// grammar; past this it is accepted as-is rather than looping forever
// over a pattern whose entire language happens to be reserved literals.
const patternCollisionRetries = 8

func samplePatternAvoidingLiterals(cg *checked.CheckedGrammar, compiled pattern.Node, st *State) []byte {
	out := pattern.Sample(compiled, st.src)
	for i := 0; i < patternCollisionRetries && cg.IsReservedLiteral(string(out)); i++ {
		out = pattern.Sample(compiled, st.src)
	}
	return out
}

// Tree is a derivation tree node: a Terminal/Pattern leaf carries its
// sampled Text, a NonTerminal node carries the symbols its chosen
// alternative expanded into as Children.
type Tree struct {
	Symbol   ast.Symbol
	Text     []byte
	Children []*Tree
}

// DeriveTree performs the recursive tree-shaped derivation of spec.md
// §4.4, producing the full derivation tree rather than only its
// flattened text. Recursion depth tracks grammar nesting depth, not
// total output size, so a step ceiling still applies to bound runaway
// recursion from invoke-limit-free cycles.
func DeriveTree(cg *checked.CheckedGrammar, st *State, opts ...Opt) (*Tree, *StepTelemetry, error) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	var start time.Time
	if cfg.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	steps := 0
	var derive func(sym ast.Symbol) (*Tree, error)
	derive = func(sym ast.Symbol) (*Tree, error) {
		if cfg.maxSteps > 0 && steps >= cfg.maxSteps {
			return nil, ErrMaxStepsExceeded
		}
		steps++

		switch v := sym.(type) {
		case ast.Terminal:
			return &Tree{Symbol: v, Text: []byte(v.Literal)}, nil
		case ast.Pattern:
			compiled, err := pattern.Compile(v.Source)
			if err != nil {
				return nil, err
			}
			return &Tree{Symbol: v, Text: samplePatternAvoidingLiterals(cg, compiled, st)}, nil
		case ast.NonTerminal:
			_, prod, ok := cg.Resolve(v, st.src)
			if !ok {
				return nil, ErrNoCandidates
			}
			alt, id, err := selectAlternative(prod.Alternatives, st)
			if err != nil {
				return nil, err
			}
			st.increment(id)

			node := &Tree{Symbol: v}
			for _, child := range alt.Symbols {
				childTree, err := derive(child)
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, childTree)
			}
			return node, nil
		default:
			return nil, errors.New("engine: unknown symbol variant")
		}
	}

	root, err := derive(ast.NonTerminal{Name: cg.Start().Name, Tag: cg.Start().Tag})
	if err != nil {
		return nil, nil, err
	}

	var tel *StepTelemetry
	if cfg.telemetry >= TelemetryBasic {
		tel = &StepTelemetry{Steps: steps}
		if cfg.telemetry >= TelemetryTiming {
			tel.Duration = time.Since(start)
		}
	}
	return root, tel, nil
}

// Flatten flattens a derivation tree back into its derived string.
func (t *Tree) Flatten() string {
	if len(t.Children) == 0 {
		return string(t.Text)
	}
	var out []byte
	for _, c := range t.Children {
		out = append(out, []byte(c.Flatten())...)
	}
	return string(out)
}
