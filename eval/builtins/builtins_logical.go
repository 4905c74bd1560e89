package builtins

import (
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

func registerLogical(r *Registry) {
	r.register("IF", builtinIf)
	r.register("IFS", builtinIfs)
	r.register("AND", builtinAnd)
	r.register("OR", builtinOr)
	r.register("NOT", builtinNot)
	r.register("XOR", builtinXor)
	r.register("TRUE", builtinTrue)
	r.register("FALSE", builtinFalse)
	r.register("IFERROR", builtinIfError)
	r.register("IFNA", builtinIfNA)
	r.register("ISBLANK", builtinIsBlank)
	r.register("ISERROR", builtinIsError)
	r.register("ISNA", builtinIsNA)
	r.register("ISNUMBER", builtinIsNumber)
	r.register("ISTEXT", builtinIsText)
	r.register("ISLOGICAL", builtinIsLogical)
}

// IF/IFS evaluate their branches lazily -- only the taken branch is
// ever evaluated, so an error on the untaken side never propagates.
func builtinIf(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 2 && len(args) != 3 {
		return argError()
	}
	cond := eval.Eval(args[0], ctx)
	if k, ok := cond.IsError(); ok {
		return eval.Err(k)
	}
	b, berr := value.ToBool(cond.ToValue())
	if berr != nil {
		return eval.Val(*berr)
	}
	if b {
		return eval.Eval(args[1], ctx)
	}
	if len(args) == 3 {
		return eval.Eval(args[2], ctx)
	}
	return eval.Val(value.Boolean{V: false})
}

func builtinIfs(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) == 0 || len(args)%2 != 0 {
		return argError()
	}
	for i := 0; i < len(args); i += 2 {
		cond := eval.Eval(args[i], ctx)
		if k, ok := cond.IsError(); ok {
			return eval.Err(k)
		}
		b, berr := value.ToBool(cond.ToValue())
		if berr != nil {
			return eval.Val(*berr)
		}
		if b {
			return eval.Eval(args[i+1], ctx)
		}
	}
	return eval.Err(value.ErrNA)
}

func builtinAnd(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	result := true
	for _, v := range vs {
		b, err := value.ToBool(v)
		if err != nil {
			return eval.Val(*err)
		}
		result = result && b
	}
	return eval.Val(value.Boolean{V: result})
}

func builtinOr(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	result := false
	for _, v := range vs {
		b, err := value.ToBool(v)
		if err != nil {
			return eval.Val(*err)
		}
		result = result || b
	}
	return eval.Val(value.Boolean{V: result})
}

func builtinNot(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return eval.Err(k)
	}
	b, err := value.ToBool(r.ToValue())
	if err != nil {
		return eval.Val(*err)
	}
	return eval.Val(value.Boolean{V: !b})
}

func builtinXor(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	count := 0
	for _, v := range vs {
		b, err := value.ToBool(v)
		if err != nil {
			return eval.Val(*err)
		}
		if b {
			count++
		}
	}
	return eval.Val(value.Boolean{V: count%2 == 1})
}

func builtinTrue(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 0 {
		return argError()
	}
	return eval.Val(value.Boolean{V: true})
}

func builtinFalse(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 0 {
		return argError()
	}
	return eval.Val(value.Boolean{V: false})
}

func builtinIfError(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if _, ok := r.IsError(); ok {
		return eval.Eval(args[1], ctx)
	}
	return r
}

func builtinIfNA(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok && k == value.ErrNA {
		return eval.Eval(args[1], ctx)
	}
	return r
}

func builtinIsBlank(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return isPredicate(ctx, args, func(v value.Value) bool { return v.Kind() == value.KindEmpty })
}

func builtinIsError(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	_, isErr := r.IsError()
	return eval.Val(value.Boolean{V: isErr})
}

func builtinIsNA(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	k, isErr := r.IsError()
	return eval.Val(value.Boolean{V: isErr && k == value.ErrNA})
}

func builtinIsNumber(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return isPredicate(ctx, args, func(v value.Value) bool { return v.Kind() == value.KindNumber })
}

func builtinIsText(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return isPredicate(ctx, args, func(v value.Value) bool { return v.Kind() == value.KindString })
}

func builtinIsLogical(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return isPredicate(ctx, args, func(v value.Value) bool { return v.Kind() == value.KindBoolean })
}

// isPredicate evaluates a single argument without propagating an
// error result up -- IS* functions must classify an error rather than
// fail themselves when asked ISERROR/ISBLANK of one.
func isPredicate(ctx *eval.Context, args []ast.Expression, pred func(value.Value) bool) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	return eval.Val(value.Boolean{V: pred(r.ToValue())})
}
