package engine

import (
	"errors"
	"testing"

	"github.com/bnfgen/bnfgen/core/checked"
	"github.com/bnfgen/bnfgen/core/rng"
	"github.com/bnfgen/bnfgen/runtime/parser"
	"github.com/stretchr/testify/require"
)

func mustChecked(t *testing.T, src, start string) *checked.CheckedGrammar {
	t.Helper()
	g, diags, _ := parser.Parse([]byte(src))
	require.Empty(t, diags)
	cg, verrs := checked.Validate(g, start)
	require.Nil(t, verrs)
	return cg
}

func TestDeriveStringSimpleChoice(t *testing.T) {
	cg := mustChecked(t, `<S> ::= "a" | "b" ;`, "S")
	out, _, err := DeriveString(cg, NewState(rng.New(1)))
	require.NoError(t, err)
	require.Contains(t, []string{"a", "b"}, out)
}

func TestDeriveStringIsDeterministicUnderFixedSeed(t *testing.T) {
	cg := mustChecked(t, `
<S> ::= <A> <A> <A> <A> <A> ;
<A> ::= "x" | "y" | "z" ;
`, "S")
	a, _, err := DeriveString(cg, NewState(rng.New(99)))
	require.NoError(t, err)
	b, _, err := DeriveString(cg, NewState(rng.New(99)))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDeriveStringRespectsInvokeLimitBounds(t *testing.T) {
	cg := mustChecked(t, `<S> ::= "done" | <S> "r" {3} ;`, "S")
	for i := 0; i < 20; i++ {
		out, _, err := DeriveString(cg, NewState(rng.New(int64(i))))
		require.NoError(t, err)
		count := 0
		for _, c := range out {
			if c == 'r' {
				count++
			}
		}
		require.Equal(t, 3, count)
	}
}

func TestDeriveStringNoCandidatesWhenAllExhausted(t *testing.T) {
	cg := mustChecked(t, `<S> ::= "once" {1,1} ;`, "S")
	st := NewState(rng.New(1))
	_, _, err := DeriveString(cg, st)
	require.NoError(t, err)

	// a second derivation reusing the same state has exhausted the
	// only alternative's invoke budget.
	_, _, err = DeriveString(cg, st)
	require.True(t, errors.Is(err, ErrNoCandidates))
}

func TestDeriveStringTypedPolymorphism(t *testing.T) {
	cg := mustChecked(t, `
<S> ::= <E: "int"> ;
<E: "int"> ::= "1" ;
<E: "str"> ::= "x" ;
`, "S")
	out, _, err := DeriveString(cg, NewState(rng.New(1)))
	require.NoError(t, err)
	require.Equal(t, "1", out)
}

func TestDeriveStringMaxStepsExceeded(t *testing.T) {
	cg := mustChecked(t, `<S> ::= <S> "x" | "y" ;`, "S")
	_, _, err := DeriveString(cg, NewState(rng.New(1)), WithMaxSteps(5))
	// with only two alternatives and no invoke limit, recursion may or
	// may not terminate within 5 steps depending on the RNG draw; what
	// matters is that exceeding the ceiling is reported, never a panic
	// or infinite loop. Only seed 1 is tried; if it terminates within the
	// ceiling the error path is not exercised.
	if err == nil {
		return
	}
	require.True(t, errors.Is(err, ErrMaxStepsExceeded))
}

func TestDeriveTreeFlattensToSameTextAsDeriveString(t *testing.T) {
	cg := mustChecked(t, `<S> ::= <A> <A> ; <A> ::= "p" | "q" ;`, "S")

	tree, _, err := DeriveTree(cg, NewState(rng.New(5)))
	require.NoError(t, err)

	str, _, err := DeriveString(cg, NewState(rng.New(5)))
	require.NoError(t, err)

	require.Equal(t, str, tree.Flatten())
}

func TestDeriveStringAvoidsPatternCollisionWithLiteral(t *testing.T) {
	// re("a") can only ever sample "a", which collides with the literal
	// terminal "a" used elsewhere; collision avoidance retries a bounded
	// number of times but ultimately must still produce output (the
	// pattern's whole language is reserved here, so it cannot avoid it
	// forever) and must never panic or hang.
	cg := mustChecked(t, `<S> ::= "a" <P> ; <P> ::= re("a") ;`, "S")
	out, _, err := DeriveString(cg, NewState(rng.New(3)))
	require.NoError(t, err)
	require.Equal(t, "aa", out)
}

func TestDeriveStringZeroWeightPoolReportsNoCandidates(t *testing.T) {
	// a placeholder branch weighted 0 must never be chosen; once it is
	// the only alternative left standing (the other has hit its bounded
	// Max), the weight pool sums to zero and selection must fail with
	// ErrNoCandidates rather than panic in math/rand's Intn.
	cg := mustChecked(t, `<S> ::= "done" {1,1} | 0 "never" ;`, "S")
	st := NewState(rng.New(1))
	_, _, err := DeriveString(cg, st)
	require.NoError(t, err)

	_, _, err = DeriveString(cg, st)
	require.True(t, errors.Is(err, ErrNoCandidates))
}

func TestDeriveStringTelemetry(t *testing.T) {
	cg := mustChecked(t, `<S> ::= "a" ;`, "S")
	_, tel, err := DeriveString(cg, NewState(rng.New(1)), WithTelemetryBasic())
	require.NoError(t, err)
	require.NotNil(t, tel)
	require.Greater(t, tel.Steps, 0)
}
