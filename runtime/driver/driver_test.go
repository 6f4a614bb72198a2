package driver

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

func TestDeriveStringSucceedsFirstAttempt(t *testing.T) {
	cg := mustChecked(t, `<S> ::= "a" | "b" ;`, "S")
	out, _, err := DeriveString(cg, rng.New(1))
	require.NoError(t, err)
	require.Contains(t, []string{"a", "b"}, out)
}

func TestDeriveStringRetriesPastMaxStepsExceeded(t *testing.T) {
	// the shortest derivation (<S> then "y") takes 2 reductions, so every
	// attempt that picks the recursive alternative first exceeds a
	// 2-step ceiling; enough attempts should eventually land on the
	// terminating alternative within budget.
	cg := mustChecked(t, `<S> ::= <S> "x" | "y" ;`, "S")
	out, report, err := DeriveString(cg, rng.New(1), WithMaxSteps(2), WithMaxAttempts(200), WithTelemetry())
	require.NoError(t, err)
	require.Equal(t, "y", out)
	require.NotNil(t, report)
	require.GreaterOrEqual(t, report.Attempts, 1)
}

func TestDeriveStringExhaustsRetries(t *testing.T) {
	cg := mustChecked(t, `<S> ::= <S> "x" ;`, "S")
	_, _, err := DeriveString(cg, rng.New(1), WithMaxSteps(3), WithMaxAttempts(4))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrExhausted))
}

func TestDeriveTreeMatchesDeriveStringText(t *testing.T) {
	cg := mustChecked(t, `<S> ::= <A> <A> ; <A> ::= "p" | "q" ;`, "S")
	tree, _, err := DeriveTree(cg, rng.New(5))
	require.NoError(t, err)
	require.NotEmpty(t, tree.Flatten())

	str, _, err := DeriveString(cg, rng.New(5))
	require.NoError(t, err)
	require.Equal(t, str, tree.Flatten())
}
