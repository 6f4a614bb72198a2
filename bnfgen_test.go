// End-to-end scenarios exercising the full pipeline (parse -> validate
// -> derive) together, one per spec.md §8 scenario. Package-external
// (bnfgen_test) since this only uses the public API of each stage.
package bnfgen_test

import (
	"errors"
	"testing"

	"github.com/bnfgen/bnfgen/core/checked"
	"github.com/bnfgen/bnfgen/core/rng"
	"github.com/bnfgen/bnfgen/runtime/driver"
	"github.com/bnfgen/bnfgen/runtime/engine"
	"github.com/bnfgen/bnfgen/runtime/parser"
	"github.com/stretchr/testify/require"
)

func checkedFrom(t *testing.T, src, start string, opts ...checked.Opt) *checked.CheckedGrammar {
	t.Helper()
	g, diags, _ := parser.Parse([]byte(src))
	require.Empty(t, diags)
	cg, verrs := checked.Validate(g, start, opts...)
	require.Nil(t, verrs)
	return cg
}

// S1: a grammar with a single rule offering a plain choice between
// terminals derives one of them, nothing else.
func TestScenarioSimpleChoice(t *testing.T) {
	cg := checkedFrom(t, `<start> ::= "red" | "green" | "blue" ;`, "start")
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		out, _, err := driver.DeriveString(cg, rng.New(int64(i)))
		require.NoError(t, err)
		seen[out] = true
	}
	for s := range seen {
		require.Contains(t, []string{"red", "green", "blue"}, s)
	}
	require.Greater(t, len(seen), 1, "100 draws across varied seeds should hit more than one alternative")
}

// S2: an invoke limit's Min forces an alternative to be taken at least
// that many times regardless of its weight relative to siblings.
func TestScenarioInvokeLimitForcesMinimum(t *testing.T) {
	cg := checkedFrom(t, `<start> ::= "done" | 1 <start> "x" {4} ;`, "start")
	for i := 0; i < 30; i++ {
		out, _, err := driver.DeriveString(cg, rng.New(int64(i)))
		require.NoError(t, err)
		count := 0
		for _, c := range out {
			if c == 'x' {
				count++
			}
		}
		require.Equal(t, 4, count)
	}
}

// S3: once every alternative of a production has exhausted its bounded
// Max, the engine reports NoCandidates rather than fabricating output.
func TestScenarioExhaustionReportsNoCandidates(t *testing.T) {
	cg := checkedFrom(t, `<start> ::= "only" {1,1} ;`, "start")
	st := engine.NewState(rng.New(1))

	_, _, err := engine.DeriveString(cg, st)
	require.NoError(t, err)

	_, _, err = engine.DeriveString(cg, st)
	require.True(t, errors.Is(err, engine.ErrNoCandidates))
}

// S4: a typed non-terminal reference resolves only to the rule with
// the exact matching type tag, never to an untyped or differently
// tagged sibling sharing the same bare name.
func TestScenarioTypedPolymorphismResolvesExactly(t *testing.T) {
	cg := checkedFrom(t, `
<start> ::= <value: "num"> <value: "str"> ;
<value: "num"> ::= "1" | "2" ;
<value: "str"> ::= "a" | "b" ;
`, "start")
	for i := 0; i < 30; i++ {
		out, _, err := driver.DeriveString(cg, rng.New(int64(i)))
		require.NoError(t, err)
		require.Len(t, out, 2)
		require.Contains(t, "12", string(out[0]))
		require.Contains(t, "ab", string(out[1]))
	}
}

// S5: strict validation rejects a grammar whose only rules form a
// cycle with no terminating alternative (a trap loop), since no
// derivation from it could ever finish.
func TestScenarioTrapLoopRejectedUnderStrictValidation(t *testing.T) {
	g, diags, _ := parser.Parse([]byte(`
<start> ::= <a> ;
<a> ::= <b> ;
<b> ::= <a> ;
`))
	require.Empty(t, diags)

	_, verrs := checked.Validate(g, "start", checked.WithStrict())
	require.True(t, verrs.HasErrors())

	var sawTrapLoop bool
	for _, d := range verrs {
		if d.Kind.String() == "TrapLoop" {
			sawTrapLoop = true
			require.Len(t, d.Related, 2, "TrapLoop cites every rule's span in the cycle")
			for _, span := range d.Related {
				require.NotZero(t, span.Start.Line, "each cited span must point at real source text")
			}
		}
	}
	require.True(t, sawTrapLoop)
}

// S6: a pattern whose sampled text would collide with a literal
// terminal used elsewhere in the grammar is resampled rather than
// accepted outright, per the grammar-wide collision-avoidance rule.
func TestScenarioPatternCollisionAvoidance(t *testing.T) {
	cg := checkedFrom(t, `
<start> ::= "reserved" | <generated> ;
<generated> ::= re("reserved|fresh") ;
`, "start")
	sawFresh := false
	for i := 0; i < 50; i++ {
		out, _, err := driver.DeriveString(cg, rng.New(int64(i)))
		require.NoError(t, err)
		if out == "fresh" {
			sawFresh = true
		}
	}
	require.True(t, sawFresh, "collision avoidance should steer samples toward the non-colliding branch over many draws")
}
