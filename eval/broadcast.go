package eval

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/token"
	"github.com/gridform/gridform/value"
)

func evalBinary(n *ast.BinaryOp, ctx *Context) EvalResult {
	left := Eval(n.Left, ctx)
	if k, ok := left.IsError(); ok {
		return Err(k)
	}
	right := Eval(n.Right, ctx)
	if k, ok := right.IsError(); ok {
		return Err(k)
	}
	if left.Kind != KindSpilled && right.Kind != KindSpilled {
		return Val(applyScalarBinary(n.Op, left.Scalar, right.Scalar))
	}
	return broadcastBinary(ctx, n.Op, left, right)
}

func evalUnary(n *ast.UnaryOp, ctx *Context) EvalResult {
	operand := Eval(n.Operand, ctx)
	if k, ok := operand.IsError(); ok {
		return Err(k)
	}
	if operand.Kind != KindSpilled {
		return Val(applyUnary(n.Op, n.Postfix, operand.Scalar))
	}
	origin := ctx.Cell
	area := operand.Spill.Area()
	w, h := dims(area)
	return Spilled(&Spill{
		Origin: origin,
		AreaFn: func() address.Range { return projectedArea(origin, w, h) },
		EvaluateFn: func(off Offset) EvalResult {
			v := operand.Spill.EvaluateFn(off).ToValue()
			return Val(applyUnary(n.Op, n.Postfix, v))
		},
		AllFn: func() []SpilledCell {
			var out []SpilledCell
			for r := uint32(0); r < h; r++ {
				for c := uint32(0); c < w; c++ {
					v := operand.Spill.EvaluateFn(Offset{Col: c, Row: r}).ToValue()
					out = append(out, SpilledCell{Col: origin.Col + c, Row: origin.Row + r, Result: Val(applyUnary(n.Op, n.Postfix, v))})
				}
			}
			return out
		},
	})
}

// dims returns a bounded range's (width, height); both are 0 if
// unbounded (open-range spills never participate directly in
// broadcasting -- their frontier algorithm already reduces them to a
// concrete set of yielded cells before this point).
func dims(r address.Range) (uint32, uint32) {
	if !r.IsBounded() {
		return 0, 0
	}
	return r.Width(), r.Height()
}

func projectedArea(origin address.Cell, w, h uint32) address.Range {
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return address.Range{
		Workbook: origin.Workbook, Sheet: origin.Sheet,
		StartCol: origin.Col, StartRow: origin.Row,
		EndCol: address.FiniteEnd(origin.Col + w - 1),
		EndRow: address.FiniteEnd(origin.Row + h - 1),
	}
}

// broadcastDim reconciles one axis of two operand shapes: equal sizes
// match, a size-1 side broadcasts to the other, anything else is
// incompatible.
func broadcastDim(a, b uint32) (uint32, bool) {
	if a == b {
		return a, true
	}
	if a == 1 {
		return b, true
	}
	if b == 1 {
		return a, true
	}
	return 0, false
}

// broadcastBinary implements scalar/spilled operator broadcasting:
// scalar⊕spilled projects the spilled side's shape onto the current
// cell; spilled⊕spilled unions both projected shapes (dimension-1
// sides broadcast, mismatched finite sizes are #VALUE!).
func broadcastBinary(ctx *Context, op token.TokenType, left, right EvalResult) EvalResult {
	origin := ctx.Cell
	var lw, lh, rw, rh uint32 = 1, 1, 1, 1
	if left.Kind == KindSpilled {
		lw, lh = dims(left.Spill.Area())
	}
	if right.Kind == KindSpilled {
		rw, rh = dims(right.Spill.Area())
	}
	w, wok := broadcastDim(lw, rw)
	h, hok := broadcastDim(lh, rh)
	if !wok || !hok {
		return Err(value.ErrValue)
	}

	at := func(side EvalResult, sideW, sideH uint32, off Offset) value.Value {
		if side.Kind != KindSpilled {
			return side.Scalar
		}
		c := off.Col
		if sideW == 1 {
			c = 0
		}
		r := off.Row
		if sideH == 1 {
			r = 0
		}
		return side.Spill.EvaluateFn(Offset{Col: c, Row: r}).ToValue()
	}

	evalAt := func(off Offset) EvalResult {
		lv := at(left, lw, lh, off)
		rv := at(right, rw, rh, off)
		return Val(applyScalarBinary(op, lv, rv))
	}

	return Spilled(&Spill{
		Origin:     origin,
		AreaFn:     func() address.Range { return projectedArea(origin, w, h) },
		EvaluateFn: evalAt,
		AllFn: func() []SpilledCell {
			var out []SpilledCell
			for r := uint32(0); r < h; r++ {
				for c := uint32(0); c < w; c++ {
					out = append(out, SpilledCell{Col: origin.Col + c, Row: origin.Row + r, Result: evalAt(Offset{Col: c, Row: r})})
				}
			}
			return out
		},
	})
}
