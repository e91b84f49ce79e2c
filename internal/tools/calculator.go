package tools

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
)

// CalculatorArgs são os argumentos da ferramenta calculator
type CalculatorArgs struct {
	Expression string `json:"expression" jsonschema:"the mathematical expression to evaluate, e.g. 2 + 2 or sqrt(16) * pi"`
}

// CalculatorResult é o resultado da ferramenta calculator
type CalculatorResult struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// mathEnv expõe funções e constantes além dos builtins do expr
// (abs, ceil, floor, round, min, max).
var mathEnv = map[string]any{
	"pi":    math.Pi,
	"e":     math.E,
	"sqrt":  math.Sqrt,
	"cbrt":  math.Cbrt,
	"pow":   math.Pow,
	"exp":   math.Exp,
	"ln":    math.Log,
	"log":   math.Log10,
	"log2":  math.Log2,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"hypot": math.Hypot,
}

// Evaluate avalia uma expressão aritmética e retorna o resultado formatado.
// Resultados inteiros são formatados sem casas decimais.
func Evaluate(expression string) (string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "", errors.New("expression is required")
	}

	program, err := expr.Compile(expression, expr.Env(mathEnv))
	if err != nil {
		return "", errors.Wrapf(err, "invalid expression %q", expression)
	}
	out, err := expr.Run(program, mathEnv)
	if err != nil {
		return "", errors.Wrapf(err, "failed to evaluate %q", expression)
	}

	return formatNumber(out)
}

func formatNumber(v any) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", errors.Newf("result is not a finite number: %v", n)
		}
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'g', 12, 64), nil
	default:
		return "", errors.Newf("expression did not produce a number: %v", v)
	}
}
