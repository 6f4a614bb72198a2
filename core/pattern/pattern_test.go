package pattern

import (
	"testing"

	"github.com/bnfgen/bnfgen/core/rng"
	"github.com/stretchr/testify/require"
)

func TestCompileLiteral(t *testing.T) {
	n, err := Compile("abc")
	require.NoError(t, err)
	concat, ok := n.(Concat)
	require.True(t, ok)
	require.Len(t, concat.Children, 3)
}

func TestCompileCharClassRange(t *testing.T) {
	n, err := Compile("[a-z]")
	require.NoError(t, err)
	cc, ok := n.(CharClass)
	require.True(t, ok)
	require.Equal(t, []Range{{Lo: 'a', Hi: 'z'}}, cc.Ranges)

	src := rng.New(1)
	for i := 0; i < 100; i++ {
		b := Sample(n, src)
		require.Len(t, b, 1)
		require.GreaterOrEqual(t, b[0], byte('a'))
		require.LessOrEqual(t, b[0], byte('z'))
	}
}

func TestCompileNegatedCharClass(t *testing.T) {
	n, err := Compile("[^a-z]")
	require.NoError(t, err)
	cc, ok := n.(CharClass)
	require.True(t, ok)
	for _, r := range cc.Ranges {
		require.False(t, r.Lo >= 'a' && r.Hi <= 'z')
	}
}

func TestCompileAlternation(t *testing.T) {
	n, err := Compile("a|b|c")
	require.NoError(t, err)
	alt, ok := n.(Alternation)
	require.True(t, ok)
	require.Len(t, alt.Children, 3)
}

func TestCompileRepetitionBounds(t *testing.T) {
	n, err := Compile("a{2,4}")
	require.NoError(t, err)
	rep, ok := n.(Repetition)
	require.True(t, ok)
	require.Equal(t, 2, rep.Min)
	require.Equal(t, 4, rep.Max)
	require.False(t, rep.Unbounded)

	src := rng.New(42)
	for i := 0; i < 50; i++ {
		out := Sample(n, src)
		require.GreaterOrEqual(t, len(out), 2)
		require.LessOrEqual(t, len(out), 4)
	}
}

func TestCompileUnboundedRepetitionUsesCap(t *testing.T) {
	n, err := Compile("a*")
	require.NoError(t, err)
	src := rng.New(7)
	for i := 0; i < 50; i++ {
		out := Sample(n, src)
		require.LessOrEqual(t, len(out), DefaultRepetitionCap)
	}
}

func TestCompileGroup(t *testing.T) {
	n, err := Compile("(ab)+")
	require.NoError(t, err)
	rep, ok := n.(Repetition)
	require.True(t, ok)
	_, ok = rep.Sub.(Group)
	require.True(t, ok)
}

func TestCompileRejectsLookaround(t *testing.T) {
	_, err := Compile("(?=abc)")
	require.Error(t, err)
}

func TestCompileRejectsReversedRange(t *testing.T) {
	_, err := Compile("[z-a]")
	require.Error(t, err)
}

func TestCompileRejectsBadRepeatRange(t *testing.T) {
	_, err := Compile("a{5,2}")
	require.Error(t, err)
}

func TestCompileEmpty(t *testing.T) {
	n, err := Compile("")
	require.NoError(t, err)
	_, ok := n.(Empty)
	require.True(t, ok)
	require.Empty(t, Sample(n, rng.New(1)))
}
