package builtins

import (
	"strconv"
	"strings"

	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

func registerText(r *Registry) {
	r.register("CONCATENATE", builtinConcat)
	r.register("CONCAT", builtinConcat)
	r.register("LEN", unaryText(func(s string) value.Value { return value.Number{V: float64(len([]rune(s)))} }))
	r.register("UPPER", unaryText(func(s string) value.Value { return value.String{V: strings.ToUpper(s)} }))
	r.register("LOWER", unaryText(func(s string) value.Value { return value.String{V: strings.ToLower(s)} }))
	r.register("TRIM", unaryText(func(s string) value.Value { return value.String{V: strings.TrimSpace(s)} }))
	r.register("LEFT", builtinLeft)
	r.register("RIGHT", builtinRight)
	r.register("MID", builtinMid)
	r.register("FIND", builtinFind)
	r.register("SEARCH", builtinSearch)
	r.register("SUBSTITUTE", builtinSubstitute)
	r.register("REPLACE", builtinReplace)
	r.register("EXACT", builtinExact)
	r.register("TEXT", builtinText)
}

func unaryText(f func(string) value.Value) eval.Function {
	return func(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
		if len(args) != 1 {
			return argError()
		}
		r := eval.Eval(args[0], ctx)
		if k, ok := r.IsError(); ok {
			return eval.Err(k)
		}
		return eval.Val(f(value.ToText(r.ToValue())))
	}
}

func builtinConcat(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errK := evalArgsFlat(ctx, args)
	if errK != nil {
		return eval.Err(*errK)
	}
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(value.ToText(v))
	}
	return eval.Val(value.String{V: b.String()})
}

func textAndNumArgs(ctx *eval.Context, args []ast.Expression, n int) ([]value.Value, eval.EvalResult, bool) {
	if len(args) != n {
		return nil, argError(), false
	}
	out := make([]value.Value, n)
	for i, a := range args {
		r := eval.Eval(a, ctx)
		if k, ok := r.IsError(); ok {
			return nil, eval.Err(k), false
		}
		out[i] = r.ToValue()
	}
	return out, eval.EvalResult{}, true
}

func builtinLeft(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return sideChars(ctx, args, true)
}

func builtinRight(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return sideChars(ctx, args, false)
}

func sideChars(ctx *eval.Context, args []ast.Expression, fromLeft bool) eval.EvalResult {
	if len(args) != 1 && len(args) != 2 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return eval.Err(k)
	}
	s := []rune(value.ToText(r.ToValue()))
	n := 1
	if len(args) == 2 {
		f, errR, ok := oneArgNumber(ctx, args[1:])
		if !ok {
			return errR
		}
		n = int(f)
	}
	if n < 0 {
		return eval.Err(value.ErrValue)
	}
	if n > len(s) {
		n = len(s)
	}
	if fromLeft {
		return eval.Val(value.String{V: string(s[:n])})
	}
	return eval.Val(value.String{V: string(s[len(s)-n:])})
}

func builtinMid(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 3 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return eval.Err(k)
	}
	start, length, errR, ok := twoArgNumbers(ctx, args[1:])
	if !ok {
		return errR
	}
	s := []rune(value.ToText(r.ToValue()))
	i := int(start) - 1
	n := int(length)
	if i < 0 || n < 0 {
		return eval.Err(value.ErrValue)
	}
	if i >= len(s) {
		return eval.Val(value.String{V: ""})
	}
	end := i + n
	if end > len(s) {
		end = len(s)
	}
	return eval.Val(value.String{V: string(s[i:end])})
}

func builtinFind(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return findLike(ctx, args, true)
}

func builtinSearch(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return findLike(ctx, args, false)
}

func findLike(ctx *eval.Context, args []ast.Expression, caseSensitive bool) eval.EvalResult {
	if len(args) != 2 && len(args) != 3 {
		return argError()
	}
	needleRes := eval.Eval(args[0], ctx)
	if k, ok := needleRes.IsError(); ok {
		return eval.Err(k)
	}
	hayRes := eval.Eval(args[1], ctx)
	if k, ok := hayRes.IsError(); ok {
		return eval.Err(k)
	}
	needle := value.ToText(needleRes.ToValue())
	hay := value.ToText(hayRes.ToValue())
	start := 1
	if len(args) == 3 {
		f, errR, ok := oneArgNumber(ctx, args[2:])
		if !ok {
			return errR
		}
		start = int(f)
	}
	if start < 1 || start > len([]rune(hay))+1 {
		return eval.Err(value.ErrValue)
	}
	haySearch := []rune(hay)[start-1:]
	target := needle
	candidate := string(haySearch)
	if !caseSensitive {
		target = strings.ToLower(target)
		candidate = strings.ToLower(candidate)
	}
	idx := strings.Index(candidate, target)
	if idx < 0 {
		return eval.Err(value.ErrValue)
	}
	return eval.Val(value.Number{V: float64(start + len([]rune(candidate[:idx])))})
}

func builtinSubstitute(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 3 && len(args) != 4 {
		return argError()
	}
	vs, errR, ok := textAndNumArgs(ctx, args[:3], 3)
	if !ok {
		return errR
	}
	text := value.ToText(vs[0])
	old := value.ToText(vs[1])
	newText := value.ToText(vs[2])
	if len(args) == 3 {
		return eval.Val(value.String{V: strings.ReplaceAll(text, old, newText)})
	}
	n, errR2, ok2 := oneArgNumber(ctx, args[3:])
	if !ok2 {
		return errR2
	}
	return eval.Val(value.String{V: replaceNth(text, old, newText, int(n))})
}

func replaceNth(text, old, newText string, occurrence int) string {
	if occurrence < 1 || old == "" {
		return text
	}
	idx := -1
	pos := 0
	for i := 0; i < occurrence; i++ {
		rel := strings.Index(text[pos:], old)
		if rel < 0 {
			return text
		}
		idx = pos + rel
		pos = idx + len(old)
	}
	return text[:idx] + newText + text[idx+len(old):]
}

func builtinReplace(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 4 {
		return argError()
	}
	textRes := eval.Eval(args[0], ctx)
	if k, ok := textRes.IsError(); ok {
		return eval.Err(k)
	}
	start, length, errR, ok := twoArgNumbers(ctx, args[1:3])
	if !ok {
		return errR
	}
	newRes := eval.Eval(args[3], ctx)
	if k, ok := newRes.IsError(); ok {
		return eval.Err(k)
	}
	s := []rune(value.ToText(textRes.ToValue()))
	i := int(start) - 1
	n := int(length)
	if i < 0 || n < 0 || i > len(s) {
		return eval.Err(value.ErrValue)
	}
	end := i + n
	if end > len(s) {
		end = len(s)
	}
	newText := value.ToText(newRes.ToValue())
	return eval.Val(value.String{V: string(s[:i]) + newText + string(s[end:])})
}

func builtinExact(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	vs, errR, ok := textAndNumArgs(ctx, args, 2)
	if !ok {
		return errR
	}
	return eval.Val(value.Boolean{V: value.ToText(vs[0]) == value.ToText(vs[1])})
}

func builtinText(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 2 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return eval.Err(k)
	}
	fmtRes := eval.Eval(args[1], ctx)
	if k, ok := fmtRes.IsError(); ok {
		return eval.Err(k)
	}
	format := value.ToText(fmtRes.ToValue())
	v := r.ToValue()
	n, ok2 := v.(value.Number)
	if !ok2 {
		return eval.Val(value.String{V: value.ToText(v)})
	}
	decimals := strings.Count(format, "0") - strings.Index(format, ".") - 1
	if !strings.Contains(format, ".") {
		return eval.Val(value.String{V: strconv.FormatFloat(n.V, 'f', 0, 64)})
	}
	if decimals < 0 {
		decimals = 0
	}
	return eval.Val(value.String{V: strconv.FormatFloat(n.V, 'f', decimals, 64)})
}
