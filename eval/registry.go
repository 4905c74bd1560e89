package eval

import "github.com/gridform/gridform/ast"

// Function is one builtin's implementation. It receives the raw
// argument expressions (not pre-evaluated values) so it can choose
// which to evaluate, in what order, and with what coercion -- this is
// what lets IF/IFS/IFERROR/IFNA short-circuit or swallow errors
// instead of eagerly propagating them.
type Function func(ctx *Context, args []ast.Expression) EvalResult

// FunctionRegistry resolves an uppercased function name to its
// implementation.
type FunctionRegistry interface {
	Lookup(name string) (Function, bool)
}
