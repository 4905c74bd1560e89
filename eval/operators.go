package eval

import (
	"math"

	"github.com/gridform/gridform/token"
	"github.com/gridform/gridform/value"
)

// applyScalarBinary implements the pure (Value, Value) -> Value rules
// for a non-spilled pair of operands. Errors short-circuit
// left-then-right before any coercion is attempted.
func applyScalarBinary(op token.TokenType, a, b value.Value) value.Value {
	if e, ok := value.IsError(a); ok {
		return value.Error{K: e}
	}
	if e, ok := value.IsError(b); ok {
		return value.Error{K: e}
	}

	switch op {
	case token.AMP:
		return value.String{V: value.ToText(a) + value.ToText(b)}
	case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return compareOp(op, a, b)
	}

	af, ea := value.ToNumber(a)
	if ea != nil {
		return *ea
	}
	bf, eb := value.ToNumber(b)
	if eb != nil {
		return *eb
	}

	switch op {
	case token.PLUS:
		return opAdd(af, bf)
	case token.MINUS:
		return value.NewNumber(af - bf)
	case token.ASTERISK:
		return value.NewNumber(af * bf)
	case token.SLASH:
		return opDiv(af, bf)
	case token.CARET:
		return value.NewNumber(math.Pow(af, bf))
	default:
		return value.Error{K: value.ErrValue}
	}
}

// opAdd overrides the IEEE-754 NaN that results from adding opposite
// infinities: +∞ + −∞ resolves to +∞ rather than a NaN propagating
// through downstream arithmetic.
func opAdd(af, bf float64) value.Value {
	s := af + bf
	if math.IsNaN(s) {
		return value.Infinity{Negative: false}
	}
	return value.NewNumber(s)
}

// opDiv divides two numbers: n/0 (n≠0) yields a signed Infinity
// rather than an error; 0/0 and ∞/∞ yield #NUM!; n/∞ yields 0.
func opDiv(af, bf float64) value.Value {
	if bf == 0 {
		if af == 0 {
			return value.Error{K: value.ErrNum}
		}
		return value.Infinity{Negative: af < 0}
	}
	if math.IsInf(bf, 0) {
		if math.IsInf(af, 0) {
			return value.Error{K: value.ErrNum}
		}
		return value.Number{V: 0}
	}
	if math.IsInf(af, 0) {
		neg := (af < 0) != (bf < 0)
		return value.Infinity{Negative: neg}
	}
	return value.NewNumber(af / bf)
}

// compareOp implements the six comparison operators via value.Compare
// (Number < String < Boolean cross-type ordering, Empty ranked with
// Number). Errors must already have been checked by the caller.
func compareOp(op token.TokenType, a, b value.Value) value.Value {
	c := value.Compare(a, b)
	var result bool
	switch op {
	case token.EQ:
		result = c == 0
	case token.NEQ:
		result = c != 0
	case token.LT:
		result = c < 0
	case token.LE:
		result = c <= 0
	case token.GT:
		result = c > 0
	case token.GE:
		result = c >= 0
	}
	return value.Boolean{V: result}
}

// applyUnary implements prefix +/- and postfix % (divide by 100).
func applyUnary(op token.TokenType, postfix bool, operand value.Value) value.Value {
	if e, ok := value.IsError(operand); ok {
		return value.Error{K: e}
	}
	if postfix {
		f, err := value.ToNumber(operand)
		if err != nil {
			return *err
		}
		return value.NewNumber(f / 100)
	}
	f, err := value.ToNumber(operand)
	if err != nil {
		return *err
	}
	switch op {
	case token.MINUS:
		return value.NewNumber(-f)
	case token.PLUS:
		return value.NewNumber(f)
	default:
		return value.Error{K: value.ErrValue}
	}
}
