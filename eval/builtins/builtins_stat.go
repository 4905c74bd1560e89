package builtins

import (
	"math"
	"sort"

	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

func registerStats(r *Registry) {
	r.register("COUNT", builtinCount)
	r.register("COUNTA", builtinCountA)
	r.register("COUNTBLANK", builtinCountBlank)
	r.register("COUNTIF", builtinCountIf)
	r.register("COUNTIFS", builtinCountIfs)
	r.register("AVERAGE", builtinAverage)
	r.register("AVERAGEIF", builtinAverageIf)
	r.register("MAX", builtinMax)
	r.register("MIN", builtinMin)
	r.register("MEDIAN", builtinMedian)
	r.register("STDEV", builtinStdev)
	r.register("VAR", builtinVar)
	r.register("SUMIF", builtinSumIf)
	r.register("SUMIFS", builtinSumIfs)
}

func builtinCount(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	return eval.Val(value.Number{V: float64(len(numbersOnly(vs)))})
}

func builtinCountA(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	n := 0
	for _, v := range vs {
		if v.Kind() != value.KindEmpty {
			n++
		}
	}
	return eval.Val(value.Number{V: float64(n)})
}

func builtinCountBlank(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	n := 0
	for _, v := range vs {
		if v.Kind() == value.KindEmpty {
			n++
		}
	}
	return eval.Val(value.Number{V: float64(n)})
}

func builtinAverage(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	nums := numbersOnly(vs)
	if len(nums) == 0 {
		return eval.Err(value.ErrDiv0)
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return eval.Val(value.NewNumber(total / float64(len(nums))))
}

func builtinMax(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return extremum(ctx, args, false)
}

func builtinMin(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return extremum(ctx, args, true)
}

func extremum(ctx *eval.Context, args []ast.Expression, wantMin bool) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	nums := numbersOnly(vs)
	if len(nums) == 0 {
		return eval.Val(value.Number{V: 0})
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if (wantMin && n < best) || (!wantMin && n > best) {
			best = n
		}
	}
	return eval.Val(value.NewNumber(best))
}

func builtinMedian(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	nums := numbersOnly(vs)
	if len(nums) == 0 {
		return eval.Err(value.ErrNum)
	}
	sort.Float64s(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return eval.Val(value.Number{V: nums[mid]})
	}
	return eval.Val(value.NewNumber((nums[mid-1] + nums[mid]) / 2))
}

func builtinStdev(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	v, errR, ok := sampleVariance(ctx, args)
	if !ok {
		return errR
	}
	return eval.Val(value.NewNumber(math.Sqrt(v)))
}

func builtinVar(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	v, errR, ok := sampleVariance(ctx, args)
	if !ok {
		return errR
	}
	return eval.Val(value.NewNumber(v))
}

func sampleVariance(ctx *eval.Context, args []ast.Expression) (float64, eval.EvalResult, bool) {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return 0, eval.Err(*errK), false
	}
	nums := numbersOnly(vs)
	if len(nums) < 2 {
		return 0, eval.Err(value.ErrDiv0), false
	}
	mean := 0.0
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	sumSq := 0.0
	for _, n := range nums {
		d := n - mean
		sumSq += d * d
	}
	return sumSq / float64(len(nums)-1), eval.EvalResult{}, true
}

// criteriaRange evaluates a (range, criteria) pair and returns the
// flattened candidate values plus the parsed criteria.
func criteriaRange(ctx *eval.Context, rangeArg, criteriaArg ast.Expression) ([]value.Value, eval.Criteria, *value.ErrorKind) {
	rangeVals := eval.Flatten(eval.Eval(rangeArg, ctx))
	if k, ok := eval.FirstError(rangeVals); ok {
		return nil, eval.Criteria{}, &k
	}
	critRes := eval.Eval(criteriaArg, ctx)
	if k, ok := critRes.IsError(); ok {
		return nil, eval.Criteria{}, &k
	}
	return rangeVals, eval.ParseCriteria(critRes.ToValue()), nil
}

// matchMask builds the boolean mask selecting which indices satisfy
// every (range, criteria) pair in pairs; all ranges must share a
// common length.
func matchMask(ctx *eval.Context, pairs [][2]ast.Expression) ([]bool, int, eval.EvalResult, bool) {
	var masks [][]value.Value
	var criteria []eval.Criteria
	length := -1
	for _, p := range pairs {
		vals, crit, errK := criteriaRange(ctx, p[0], p[1])
		if errK != nil {
			return nil, 0, eval.Err(*errK), false
		}
		if length == -1 {
			length = len(vals)
		} else if len(vals) != length {
			return nil, 0, argError(), false
		}
		masks = append(masks, vals)
		criteria = append(criteria, crit)
	}
	mask := make([]bool, length)
	for i := 0; i < length; i++ {
		ok := true
		for j, vals := range masks {
			if !criteria[j].Matches(vals[i]) {
				ok = false
				break
			}
		}
		mask[i] = ok
	}
	return mask, length, eval.EvalResult{}, true
}

func builtinCountIf(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	mask, _, errR, ok := matchMask(ctx, [][2]ast.Expression{{args[0], args[1]}})
	if !ok {
		return errR
	}
	return eval.Val(value.Number{V: float64(countTrue(mask))})
}

func builtinCountIfs(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	pairs, ok := pairUp(args)
	if !ok {
		return argError()
	}
	mask, _, errR, ok2 := matchMask(ctx, pairs)
	if !ok2 {
		return errR
	}
	return eval.Val(value.Number{V: float64(countTrue(mask))})
}

func builtinAverageIf(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 2 || len(args) > 3 {
		return argError()
	}
	avgArg := args[0]
	if len(args) == 3 {
		avgArg = args[2]
	}
	mask, _, errR, ok := matchMask(ctx, [][2]ast.Expression{{args[0], args[1]}})
	if !ok {
		return errR
	}
	avgVals := eval.Flatten(eval.Eval(avgArg, ctx))
	if k, ok := eval.FirstError(avgVals); ok {
		return eval.Err(k)
	}
	if len(avgVals) != len(mask) {
		return argError()
	}
	total, count := 0.0, 0
	for i, m := range mask {
		if !m {
			continue
		}
		if n, ok := avgVals[i].(value.Number); ok {
			total += n.V
			count++
		}
	}
	if count == 0 {
		return eval.Err(value.ErrDiv0)
	}
	return eval.Val(value.NewNumber(total / float64(count)))
}

func builtinSumIf(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 2 || len(args) > 3 {
		return argError()
	}
	sumArg := args[0]
	if len(args) == 3 {
		sumArg = args[2]
	}
	mask, _, errR, ok := matchMask(ctx, [][2]ast.Expression{{args[0], args[1]}})
	if !ok {
		return errR
	}
	return sumMasked(ctx, sumArg, mask)
}

func builtinSumIfs(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 3 || len(args)%2 != 1 {
		return argError()
	}
	pairs, ok := pairUp(args[1:])
	if !ok {
		return argError()
	}
	mask, _, errR, ok2 := matchMask(ctx, pairs)
	if !ok2 {
		return errR
	}
	return sumMasked(ctx, args[0], mask)
}

func sumMasked(ctx *eval.Context, sumArg ast.Expression, mask []bool) eval.EvalResult {
	vals := eval.Flatten(eval.Eval(sumArg, ctx))
	if k, ok := eval.FirstError(vals); ok {
		return eval.Err(k)
	}
	if len(vals) != len(mask) {
		return argError()
	}
	total := 0.0
	for i, m := range mask {
		if !m {
			continue
		}
		if n, ok := vals[i].(value.Number); ok {
			total += n.V
		}
	}
	return eval.Val(value.NewNumber(total))
}

func pairUp(args []ast.Expression) ([][2]ast.Expression, bool) {
	if len(args)%2 != 0 {
		return nil, false
	}
	var pairs [][2]ast.Expression
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, [2]ast.Expression{args[i], args[i+1]})
	}
	return pairs, true
}

func countTrue(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}
