// Package eval is the AST interpreter: it turns a parsed formula
// (ast.Expression) plus an EvaluationContext into an EvalResult,
// implementing scalar operator coercion, spill broadcasting, the
// open-range frontier algorithm, and function dispatch through a
// host-supplied registry. Its shape -- a big type-switch over AST node
// kinds plus a small sum-type result -- treats formula evaluation as
// a restricted interpreter whose "statements" are always a single
// expression.
package eval

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/value"
)

// Kind identifies which EvalResult variant a result is.
type Kind int

const (
	KindValue Kind = iota
	KindSpilled
	KindError
)

// Offset is a (col, row) displacement relative to a spill's origin.
type Offset struct {
	Col uint32
	Row uint32
}

// SpilledCell is one materialized cell of a Spill, at an absolute
// address.
type SpilledCell struct {
	Col    uint32
	Row    uint32
	Result EvalResult
}

// Spill is the lazy array-result record: a range reference, array
// literal, or array-producing function produces one of these instead
// of a scalar. Only the origin's value is forced eagerly;
// AreaFn/EvaluateFn/AllFn are consulted on demand by the Spill Manager
// or by a consumer that broadcasts over this result.
type Spill struct {
	Origin address.Cell

	// AreaFn lazily computes the rectangular region this spill would
	// occupy (origin included).
	AreaFn func() address.Range

	// EvaluateFn materializes the cell at the given offset from Origin.
	EvaluateFn func(off Offset) EvalResult

	// AllFn iterates every cell of the spill in row-major order. For
	// open-ended sources (the open-range frontier algorithm) this is
	// bounded by defined cells plus frontier candidates, never by the
	// sheet's nominal size.
	AllFn func() []SpilledCell
}

// Area is a convenience wrapper around Spill.AreaFn.
func (s *Spill) Area() address.Range { return s.AreaFn() }

// EvalResult is the value produced by evaluating one AST node: a
// scalar Value, a lazy Spill, or an error. Exactly one of Scalar/Spill
// is meaningful, selected by Kind.
type EvalResult struct {
	Kind    Kind
	Scalar  value.Value
	Spill   *Spill
	ErrKind value.ErrorKind
}

// Val wraps a scalar value.Value as an EvalResult.
func Val(v value.Value) EvalResult {
	if e, ok := value.IsError(v); ok {
		return Err(e)
	}
	return EvalResult{Kind: KindValue, Scalar: v}
}

// Err constructs an error result.
func Err(k value.ErrorKind) EvalResult {
	return EvalResult{Kind: KindError, ErrKind: k, Scalar: value.Error{K: k}}
}

// Spilled constructs a spilled result.
func Spilled(s *Spill) EvalResult {
	return EvalResult{Kind: KindSpilled, Spill: s}
}

// IsError reports whether r is an error result.
func (r EvalResult) IsError() (value.ErrorKind, bool) {
	if r.Kind == KindError {
		return r.ErrKind, true
	}
	return "", false
}

// ToValue collapses r to a single scalar Value: a Value result as-is,
// an Error as Error{kind}, and a Spilled result as its origin cell's
// materialized value -- only the origin cell's value is computed
// eagerly.
func (r EvalResult) ToValue() value.Value {
	switch r.Kind {
	case KindValue:
		return r.Scalar
	case KindError:
		return value.Error{K: r.ErrKind}
	case KindSpilled:
		origin := r.Spill.EvaluateFn(Offset{})
		if origin.Kind == KindSpilled {
			// a spill's own origin offset must not itself spill; guard
			// against a misbehaving producer looping forever.
			return value.Error{K: value.ErrError}
		}
		return origin.ToValue()
	default:
		return value.TheEmpty
	}
}
