package command

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"sqrt(16)", 4},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"2^10", 1024},
		{"2^3^2", 512}, // right associative
		{"-3 + 5", 2},
		{"-(2+2)", -4},
		{"abs(-7)", 7},
		{"round(2.6)", 3},
		{"5 x 3", 15},
		{"10 ÷ 4", 2.5},
		{"cos(0)", 1},
		{"log(e)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEval_Pi(t *testing.T) {
	got, err := Eval("sin(pi/2)")
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-9)
}

func TestEval_Errors(t *testing.T) {
	exprs := []string{
		"",
		"2+",
		"import os",
		"__builtins__",
		"foo(3)",
		"sqrt",
		"(2+3",
		"1/0",
		"2**3", // python power syntax is not part of the grammar
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := Eval(expr)
			assert.Error(t, err)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "4", FormatNumber(4))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "-3", FormatNumber(-3))
	assert.Equal(t, "0.1", FormatNumber(0.1))
}

func TestEval_SqrtSixteenFormats(t *testing.T) {
	v, err := Eval("sqrt(16)")
	require.NoError(t, err)
	assert.Equal(t, "4", FormatNumber(v))
	assert.Equal(t, float64(4), math.Trunc(v))
}
