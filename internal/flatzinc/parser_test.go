package flatzinc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soraci/gobori/pkg/gobori"
)

func TestParseBasicModelWithSolveMinimize(t *testing.T) {
	src := `
var 0..9: x;
var 0..9: y;
var int: k = 3;
alias xx = x;
defined y;
constraint ne(x, y);
solve minimize y;
`
	m := gobori.NewModel()
	solve, err := Parse(strings.NewReader(src), m)
	require.NoError(t, err)
	require.Equal(t, "minimize", solve.Mode)
	require.Equal(t, "y", solve.Objective)
	require.Equal(t, 3, m.NumVariables())

	require.NoError(t, m.BuildConstraintWatchList())
	k, err := m.VariableByName("k")
	require.NoError(t, err)
	vk, err := m.Variable(k)
	require.NoError(t, err)
	val, ok := vk.Value()
	require.True(t, ok)
	require.Equal(t, 3, val)

	xAlias, err := m.VariableByName("xx")
	require.NoError(t, err)
	x, err := m.VariableByName("x")
	require.NoError(t, err)
	require.Equal(t, x, xAlias)
}

func TestParseValueSetDomain(t *testing.T) {
	src := `
var {2,4,6}: e;
solve satisfy;
`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.NoError(t, err)

	require.NoError(t, m.BuildConstraintWatchList())
	e, err := m.VariableByName("e")
	require.NoError(t, err)
	ve, err := m.Variable(e)
	require.NoError(t, err)
	require.True(t, ve.Contains(4))
	require.False(t, ve.Contains(3))
}

func TestParseAllDifferentAndLinearConstraints(t *testing.T) {
	src := `
var 0..2: a;
var 0..2: b;
var 0..2: c;
constraint alldifferent(a, b, c);
constraint linear_le([1,1,1], [a,b,c], 3);
solve satisfy;
`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.NoError(t, err)
	require.Equal(t, 2, m.NumConstraints())

	require.NoError(t, m.BuildConstraintWatchList())
	ok, err := m.PresolveFixpoint()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestParseElementConstraintWithOffset(t *testing.T) {
	src := `
var 1..3: index;
var 0..1000: result;
constraint element(index, [100,200,300], result, 1);
solve satisfy;
`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.NoError(t, err)

	require.NoError(t, m.BuildConstraintWatchList())
	idx, err := m.VariableByName("index")
	require.NoError(t, err)
	m.EnqueueInstantiate(idx, 2)
	ok, err := m.Propagate()
	require.NoError(t, err)
	require.True(t, ok)

	result, err := m.VariableByName("result")
	require.NoError(t, err)
	vr, err := m.Variable(result)
	require.NoError(t, err)
	val, ok := vr.Value()
	require.True(t, ok)
	require.Equal(t, 200, val)
}

func TestParseRejectsUnknownVariableReference(t *testing.T) {
	src := `
var 0..1: a;
constraint ne(a, missing);
solve satisfy;
`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestParseRejectsDuplicateVariableName(t *testing.T) {
	src := `
var 0..1: a;
var 0..1: a;
solve satisfy;
`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.Error(t, err)
}

func TestParseRequiresSolveStatement(t *testing.T) {
	src := `var 0..1: a;`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "solve")
}

func TestParseCircuitConstraint(t *testing.T) {
	src := `
var 0..2: n0;
var 0..2: n1;
var 0..2: n2;
constraint circuit(n0, n1, n2);
solve satisfy;
`
	m := gobori.NewModel()
	_, err := Parse(strings.NewReader(src), m)
	require.NoError(t, err)
	require.Equal(t, 1, m.NumConstraints())

	require.NoError(t, m.BuildConstraintWatchList())
	ok, err := m.PresolveFixpoint()
	require.NoError(t, err)
	require.True(t, ok)
}
