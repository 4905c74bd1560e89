package builtins

import (
	"math"

	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

func registerMath(r *Registry) {
	r.register("SUM", builtinSum)
	r.register("PRODUCT", builtinProduct)
	r.register("MOD", builtinMod)
	r.register("POWER", builtinPower)
	r.register("ABS", unaryMath(math.Abs))
	r.register("SIGN", builtinSign)
	r.register("SQRT", builtinSqrt)
	r.register("EXP", unaryMath(math.Exp))
	r.register("LN", builtinLn)
	r.register("LOG", builtinLog)
	r.register("LOG10", builtinLog10)
	r.register("ROUND", builtinRound)
	r.register("ROUNDUP", builtinRoundUp)
	r.register("ROUNDDOWN", builtinRoundDown)
	r.register("CEILING", builtinCeiling)
	r.register("FLOOR", builtinFloor)
	r.register("INT", unaryMath(math.Floor))
	r.register("TRUNC", builtinTrunc)
	r.register("EVEN", builtinEven)
	r.register("ODD", builtinOdd)
	r.register("FACT", builtinFact)
	r.register("DECIMAL", builtinDecimal)
}

func unaryMath(f func(float64) float64) eval.Function {
	return func(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
		n, errResult, ok := oneArgNumber(ctx, args)
		if !ok {
			return errResult
		}
		return eval.Val(value.NewNumber(f(n)))
	}
}

func builtinSum(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	total := 0.0
	for _, n := range numbersOnly(vs) {
		total += n
	}
	return eval.Val(value.NewNumber(total))
}

func builtinProduct(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	nums := numbersOnly(vs)
	if len(nums) == 0 {
		return eval.Val(value.Number{V: 0})
	}
	total := 1.0
	for _, n := range nums {
		total *= n
	}
	return eval.Val(value.NewNumber(total))
}

func builtinMod(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	a, b, errR, ok := twoArgNumbers(ctx, args)
	if !ok {
		return errR
	}
	if b == 0 {
		return eval.Err(value.ErrDiv0)
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return eval.Val(value.NewNumber(m))
}

func builtinPower(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	a, b, errR, ok := twoArgNumbers(ctx, args)
	if !ok {
		return errR
	}
	return eval.Val(value.NewNumber(math.Pow(a, b)))
}

func builtinSign(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	switch {
	case n > 0:
		return eval.Val(value.Number{V: 1})
	case n < 0:
		return eval.Val(value.Number{V: -1})
	default:
		return eval.Val(value.Number{V: 0})
	}
}

func builtinSqrt(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	if n < 0 {
		return eval.Err(value.ErrNum)
	}
	return eval.Val(value.NewNumber(math.Sqrt(n)))
}

func builtinLn(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	if n <= 0 {
		return eval.Err(value.ErrNum)
	}
	return eval.Val(value.NewNumber(math.Log(n)))
}

func builtinLog10(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	if n <= 0 {
		return eval.Err(value.ErrNum)
	}
	return eval.Val(value.NewNumber(math.Log10(n)))
}

func builtinLog(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) == 1 {
		return builtinLog10(ctx, args)
	}
	n, base, errR, ok := twoArgNumbers(ctx, args)
	if !ok {
		return errR
	}
	if n <= 0 || base <= 0 || base == 1 {
		return eval.Err(value.ErrNum)
	}
	return eval.Val(value.NewNumber(math.Log(n) / math.Log(base)))
}

func builtinRound(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return roundTo(ctx, args, roundHalfAwayFromZero)
}

func builtinRoundUp(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return roundTo(ctx, args, func(x float64) float64 {
		if x < 0 {
			return math.Floor(x)
		}
		return math.Ceil(x)
	})
}

func builtinRoundDown(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return roundTo(ctx, args, func(x float64) float64 {
		if x < 0 {
			return math.Ceil(x)
		}
		return math.Floor(x)
	})
}

func roundHalfAwayFromZero(x float64) float64 {
	if x < 0 {
		return -math.Floor(-x + 0.5)
	}
	return math.Floor(x + 0.5)
}

func roundTo(ctx *eval.Context, args []ast.Expression, roundFn func(float64) float64) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	n, digits, errR, ok := twoArgNumbers(ctx, args)
	if !ok {
		return errR
	}
	scale := math.Pow(10, digits)
	return eval.Val(value.NewNumber(roundFn(n*scale) / scale))
}

func builtinCeiling(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return multipleOf(ctx, args, math.Ceil)
}

func builtinFloor(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return multipleOf(ctx, args, math.Floor)
}

func multipleOf(ctx *eval.Context, args []ast.Expression, roundFn func(float64) float64) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	n, sig, errR, ok := twoArgNumbers(ctx, args)
	if !ok {
		return errR
	}
	if sig == 0 {
		return eval.Val(value.Number{V: 0})
	}
	return eval.Val(value.NewNumber(roundFn(n/sig) * sig))
}

func builtinTrunc(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) == 1 {
		n, errResult, ok := oneArgNumber(ctx, args)
		if !ok {
			return errResult
		}
		return eval.Val(value.NewNumber(math.Trunc(n)))
	}
	return roundTo(ctx, args, math.Trunc)
}

func builtinEven(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return toMultiple(ctx, args, 2)
}

func builtinOdd(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	rounded := roundAwayTo(n, 2)
	if math.Mod(rounded, 2) == 0 {
		if rounded >= 0 {
			rounded++
		} else {
			rounded--
		}
	}
	return eval.Val(value.NewNumber(rounded))
}

func toMultiple(ctx *eval.Context, args []ast.Expression, m float64) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	return eval.Val(value.NewNumber(roundAwayTo(n, m)))
}

func roundAwayTo(n, m float64) float64 {
	if n >= 0 {
		return math.Ceil(n/m) * m
	}
	return math.Floor(n/m) * m
}

func builtinFact(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	n, errResult, ok := oneArgNumber(ctx, args)
	if !ok {
		return errResult
	}
	if n < 0 {
		return eval.Err(value.ErrNum)
	}
	k := int64(math.Floor(n))
	if k > 170 {
		return eval.Err(value.ErrNum)
	}
	result := 1.0
	for i := int64(2); i <= k; i++ {
		result *= float64(i)
	}
	return eval.Val(value.NewNumber(result))
}

func builtinDecimal(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	// DECIMAL(text, radix) parses an integer literal in an arbitrary
	// base; only base 2-36 is meaningful.
	if len(args) != 2 {
		return argError()
	}
	textRes := eval.Eval(args[0], ctx)
	if k, ok := textRes.IsError(); ok {
		return eval.Err(k)
	}
	radix, errR, ok := oneArgNumber(ctx, args[1:])
	if !ok {
		return errR
	}
	text := value.ToText(textRes.ToValue())
	n, ok2 := parseIntRadix(text, int(radix))
	if !ok2 {
		return eval.Err(value.ErrNum)
	}
	return eval.Val(value.Number{V: float64(n)})
}

func parseIntRadix(s string, radix int) (int64, bool) {
	if radix < 2 || radix > 36 || s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		var d int64
		switch {
		case r >= '0' && r <= '9':
			d = int64(r - '0')
		case r >= 'A' && r <= 'Z':
			d = int64(r-'A') + 10
		case r >= 'a' && r <= 'z':
			d = int64(r-'a') + 10
		default:
			return 0, false
		}
		if d >= int64(radix) {
			return 0, false
		}
		n = n*int64(radix) + d
	}
	return n, true
}

func twoArgNumbers(ctx *eval.Context, args []ast.Expression) (float64, float64, eval.EvalResult, bool) {
	if len(args) != 2 {
		return 0, 0, argError(), false
	}
	a := eval.Eval(args[0], ctx)
	if k, ok := a.IsError(); ok {
		return 0, 0, eval.Err(k), false
	}
	b := eval.Eval(args[1], ctx)
	if k, ok := b.IsError(); ok {
		return 0, 0, eval.Err(k), false
	}
	af, erra := coerceNumber(a.ToValue())
	if erra != nil {
		return 0, 0, eval.Val(*erra), false
	}
	bf, errb := coerceNumber(b.ToValue())
	if errb != nil {
		return 0, 0, eval.Val(*errb), false
	}
	return af, bf, eval.EvalResult{}, true
}
