// Package builtins is the catalogue of formula functions dispatched
// by eval.Call: arithmetic, trig, statistical, logical, text, lookup,
// and array families. Each family is a name-to-implementation table
// built by its own register function, registered in UPPERCASE since
// formula function names are case-insensitive.
package builtins

import (
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

// Registry is the concrete eval.FunctionRegistry this package builds.
type Registry struct {
	fns map[string]eval.Function
}

// New builds a Registry with every builtin family registered.
func New() *Registry {
	r := &Registry{fns: map[string]eval.Function{}}
	registerMath(r)
	registerTrig(r)
	registerStats(r)
	registerLogical(r)
	registerText(r)
	registerLookup(r)
	registerArray(r)
	return r
}

func (r *Registry) register(name string, fn eval.Function) { r.fns[name] = fn }

// Lookup implements eval.FunctionRegistry.
func (r *Registry) Lookup(name string) (eval.Function, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// argError returns an EvalResult signalling bad arity/shape for a
// builtin's call site.
func argError() eval.EvalResult { return eval.Err(value.ErrValue) }

// evalArgsFlat evaluates every argument expression and flattens the
// results into one value slice (ranges/arrays expand in place).
func evalArgsFlat(ctx *eval.Context, args []ast.Expression) ([]value.Value, *value.ErrorKind) {
	var out []value.Value
	for _, a := range args {
		vs := eval.Flatten(eval.Eval(a, ctx))
		if k, ok := eval.FirstError(vs); ok {
			return nil, &k
		}
		out = append(out, vs...)
	}
	return out, nil
}

// numbersOnly filters vs down to Number values. Aggregate functions
// (SUM, AVERAGE, ...) that call it on their flattened arguments
// silently skip text and booleans, whether they came from a range or
// were passed as a direct scalar argument.
func numbersOnly(vs []value.Value) []float64 {
	var out []float64
	for _, v := range vs {
		if n, ok := v.(value.Number); ok {
			out = append(out, n.V)
		}
	}
	return out
}

// coerceNumber coerces a single scalar argument to a number the way a
// direct (non-range) argument position does: booleans and numeric
// strings participate, unlike numbersOnly's range-only skip rule.
func coerceNumber(v value.Value) (float64, *value.Error) {
	return value.ToNumber(v)
}

func oneArgNumber(ctx *eval.Context, args []ast.Expression) (float64, eval.EvalResult, bool) {
	if len(args) != 1 {
		return 0, argError(), false
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return 0, eval.Err(k), false
	}
	f, err := coerceNumber(r.ToValue())
	if err != nil {
		return 0, eval.Val(*err), false
	}
	return f, eval.EvalResult{}, true
}
