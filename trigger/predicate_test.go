package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressions(t *testing.T) {
	t.Parallel()

	vars := Vars{VarBass: 0.8, VarMid: 0.3, VarHigh: 0.1, VarEnergy: 0.5, VarOnset: 1}

	testCases := []struct {
		expr     string
		expected bool
	}{
		{"bass > 0.7", true},
		{"bass > 0.7 && onset", true},
		{"bass > 0.9 || mid >= 0.3", true},
		{"bass > 0.9 or mid > 0.3", false},
		{"!(bass > 0.7)", false},
		{"not onset", false},
		{"bass + mid > 1", true},
		{"bass - mid - high > 0.35", true},
		{"energy * 2 == 1", true},
		{"mid / 0 > 0", false},
		{"-bass < 0", true},
		{"high != 0.1", false},
		{"bass > 0.5 and (mid < 0.2 or high < 0.2)", true},
		{"true", true},
		{"false || releasing", false},
		{"building", false},
	}

	for _, testCase := range testCases {
		p, err := Compile(testCase.expr)
		require.NoError(t, err, testCase.expr)
		assert.Equal(t, testCase.expected, p.Evaluate(vars), testCase.expr)
	}
}

func TestInvalidExpressionsFailClosed(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"bass >",
		"bass > 0.7 &&",
		"volume > 0.2",
		"bass > 0.7)",
		"(bass > 0.7",
		"bass = 1",
		"bass > 1.2.3",
		"window.alert(1)",
		"bass >> 1",
	}

	for _, src := range invalid {
		p, err := CompileOrNever(src)
		assert.Error(t, err, src)
		assert.False(t, p.Evaluate(Vars{VarBass: 1}), src)
	}

	// expressions that compile but divide by zero at runtime
	runtimeInvalid := []string{
		"!(bass / 0)",
		"not (energy / mid)",
		"bass / 0 != 1",
		"bass / 0 == bass / 0 || bass > 0.5",
		"bass > 0.5 && !(energy / mid)",
		"-(bass / 0) < 1",
		"!!(bass / 0)",
	}

	silence := Vars{VarBass: 1, VarEnergy: 0.5, VarMid: 0}
	for _, src := range runtimeInvalid {
		p, err := Compile(src)
		require.NoError(t, err, src)
		assert.False(t, p.Evaluate(silence), src)
	}

	// short-circuit skips the invalid side
	p, err := Compile("bass > 0.5 || energy / mid > 1")
	require.NoError(t, err)
	assert.True(t, p.Evaluate(silence))
	p, err = Compile("bass < 0.5 && energy / mid > 1")
	require.NoError(t, err)
	assert.False(t, p.Evaluate(silence))
}

func TestEmptyExpressionNeverFires(t *testing.T) {
	t.Parallel()

	p, err := Compile("   ")
	require.NoError(t, err)
	assert.Equal(t, Never, p)
	assert.False(t, p.Evaluate(Vars{VarBass: 1}))
}

func TestPrecedence(t *testing.T) {
	t.Parallel()

	node, err := Parse("a + b * c > d || e && f", []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.Equal(t, "(((a + (b * c)) > d) || (e && f))", node.String())
}

func TestFuncPredicate(t *testing.T) {
	t.Parallel()

	p := Func(func(vars Vars) bool { return vars[VarBPM] > 140 })
	assert.True(t, p.Evaluate(Vars{VarBPM: 150}))
	assert.False(t, p.Evaluate(Vars{}))
}
