package builtins

import (
	"math"

	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

func registerTrig(r *Registry) {
	r.register("SIN", unaryMath(math.Sin))
	r.register("COS", unaryMath(math.Cos))
	r.register("TAN", unaryMath(math.Tan))
	r.register("ASIN", boundedUnary(math.Asin, -1, 1))
	r.register("ACOS", boundedUnary(math.Acos, -1, 1))
	r.register("ATAN", unaryMath(math.Atan))
	r.register("ATAN2", builtinAtan2)
	r.register("DEGREES", unaryMath(func(x float64) float64 { return x * 180 / math.Pi }))
	r.register("RADIANS", unaryMath(func(x float64) float64 { return x * math.Pi / 180 }))
	r.register("PI", builtinPi)
}

func boundedUnary(f func(float64) float64, lo, hi float64) eval.Function {
	return func(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
		n, errResult, ok := oneArgNumber(ctx, args)
		if !ok {
			return errResult
		}
		if n < lo || n > hi {
			return eval.Err(value.ErrNum)
		}
		return eval.Val(value.NewNumber(f(n)))
	}
}

func builtinAtan2(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	x, y, errR, ok := twoArgNumbers(ctx, args)
	if !ok {
		return errR
	}
	return eval.Val(value.NewNumber(math.Atan2(y, x)))
}

func builtinPi(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 0 {
		return argError()
	}
	return eval.Val(value.Number{V: math.Pi})
}
