package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tcases := []struct {
		expr string
		exp  string
	}{
		{"2+2", "4"},
		{" 2 + 2 ", "4"},
		{"2**10", "1024"},
		{"(1 + 2) * 3", "9"},
		{"10 / 4", "2.5"},
		{"10 % 3", "1"},
		{"sqrt(16)", "4"},
		{"abs(-7)", "7"},
		{"max(3, 9)", "9"},
		{"round(pi * 100) / 100", "3.14"},
		{"pow(2, 3)", "8"},
	}
	for _, tc := range tcases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Evaluate(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, got)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tcases := []struct {
		expr string
		err  string
	}{
		{"", "expression is required"},
		{"2 +", "invalid expression"},
		{"foo(3)", "invalid expression"},
		{"'abc'", "did not produce a number"},
		{"1 > 0", "did not produce a number"},
		{"sqrt(-1)", "not a finite number"},
	}
	for _, tc := range tcases {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := Evaluate(tc.expr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}
