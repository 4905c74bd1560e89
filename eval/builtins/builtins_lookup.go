package builtins

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/parser"
	"github.com/gridform/gridform/value"
)

func registerLookup(r *Registry) {
	r.register("INDEX", builtinIndex)
	r.register("MATCH", builtinMatch)
	r.register("VLOOKUP", builtinVlookup)
	r.register("HLOOKUP", builtinHlookup)
	r.register("XLOOKUP", builtinXlookup)
	r.register("INDIRECT", builtinIndirect)
	r.register("OFFSET", builtinOffset)
	r.register("ROW", builtinRow)
	r.register("COLUMN", builtinColumn)
	r.register("ROWS", builtinRows)
	r.register("COLUMNS", builtinColumns)
	r.register("CHOOSE", builtinChoose)
}

// grid flattens a Spill into a dense [row][col] value grid plus its
// bounded width/height, resolving each SpilledCell's absolute address
// back to an offset relative to the spill's area.
func grid(s *eval.Spill) (width, height uint32, cells [][]value.Value) {
	area := s.Area()
	width, height = area.Width(), area.Height()
	cells = make([][]value.Value, height)
	for i := range cells {
		cells[i] = make([]value.Value, width)
	}
	for _, c := range s.AllFn() {
		row := c.Row - area.StartRow
		col := c.Col - area.StartCol
		if row < height && col < width {
			cells[row][col] = c.Result.ToValue()
		}
	}
	return width, height, cells
}

func builtinIndex(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 2 || len(args) > 3 {
		return argError()
	}
	arr := eval.Eval(args[0], ctx)
	if k, ok := arr.IsError(); ok {
		return eval.Err(k)
	}
	rowNum, errR, ok := oneArgNumber(ctx, args[1:2])
	if !ok {
		return errR
	}
	hasCol := len(args) == 3
	colNum := 0.0
	if hasCol {
		colNum, errR, ok = oneArgNumber(ctx, args[2:3])
		if !ok {
			return errR
		}
	}
	if arr.Kind != eval.KindSpilled {
		if rowNum != 1 || (hasCol && colNum != 1) {
			return eval.Err(value.ErrRef)
		}
		return eval.Val(arr.ToValue())
	}
	width, height, cells := grid(arr.Spill)
	row, col := int(rowNum), int(colNum)
	if !hasCol {
		// A 1-argument index into a single row selects a column; into a
		// single column it selects a row.
		switch {
		case height == 1:
			col, row = row, 1
		default:
			col = 1
		}
	}
	if row < 1 || col < 1 || row > int(height) || col > int(width) {
		return eval.Err(value.ErrRef)
	}
	return eval.Val(cells[row-1][col-1])
}

func builtinMatch(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 2 || len(args) > 3 {
		return argError()
	}
	targetRes := eval.Eval(args[0], ctx)
	if k, ok := targetRes.IsError(); ok {
		return eval.Err(k)
	}
	vals := eval.Flatten(eval.Eval(args[1], ctx))
	if k, ok := eval.FirstError(vals); ok {
		return eval.Err(k)
	}
	matchType := 1.0
	if len(args) == 3 {
		n, errR, ok := oneArgNumber(ctx, args[2:])
		if !ok {
			return errR
		}
		matchType = n
	}
	target := targetRes.ToValue()
	switch {
	case matchType == 0:
		for i, v := range vals {
			if sameKindValue(v, target) && value.Equal(v, target) {
				return eval.Val(value.Number{V: float64(i + 1)})
			}
		}
	case matchType > 0:
		best := -1
		for i, v := range vals {
			if !sameKindValue(v, target) {
				continue
			}
			if value.Compare(v, target) <= 0 {
				best = i
			} else {
				break
			}
		}
		if best >= 0 {
			return eval.Val(value.Number{V: float64(best + 1)})
		}
	default:
		best := -1
		for i, v := range vals {
			if !sameKindValue(v, target) {
				continue
			}
			if value.Compare(v, target) >= 0 {
				best = i
			} else {
				break
			}
		}
		if best >= 0 {
			return eval.Val(value.Number{V: float64(best + 1)})
		}
	}
	return eval.Err(value.ErrNA)
}

func builtinVlookup(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return lookupByColumnOrRow(ctx, args, true)
}

func builtinHlookup(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	return lookupByColumnOrRow(ctx, args, false)
}

func lookupByColumnOrRow(ctx *eval.Context, args []ast.Expression, vertical bool) eval.EvalResult {
	if len(args) < 3 || len(args) > 4 {
		return argError()
	}
	targetRes := eval.Eval(args[0], ctx)
	if k, ok := targetRes.IsError(); ok {
		return eval.Err(k)
	}
	tableRes := eval.Eval(args[1], ctx)
	if k, ok := tableRes.IsError(); ok {
		return eval.Err(k)
	}
	idx, errR, ok := oneArgNumber(ctx, args[2:3])
	if !ok {
		return errR
	}
	approximate := true
	if len(args) == 4 {
		b := eval.Eval(args[3], ctx)
		if k, ok := b.IsError(); ok {
			return eval.Err(k)
		}
		bv, berr := value.ToBool(b.ToValue())
		if berr != nil {
			return eval.Val(*berr)
		}
		approximate = bv
	}
	if tableRes.Kind != eval.KindSpilled {
		return eval.Err(value.ErrNA)
	}
	width, height, cells := grid(tableRes.Spill)
	target := targetRes.ToValue()

	lineCount, otherCount := height, width
	if !vertical {
		lineCount, otherCount = width, height
	}
	returnIdx := int(idx) - 1
	if returnIdx < 0 || returnIdx >= int(otherCount) {
		return eval.Err(value.ErrRef)
	}
	lookupAt := func(i int) value.Value {
		if vertical {
			return cells[i][0]
		}
		return cells[0][i]
	}
	resultAt := func(i int) value.Value {
		if vertical {
			return cells[i][returnIdx]
		}
		return cells[returnIdx][i]
	}

	if !approximate {
		for i := 0; i < int(lineCount); i++ {
			v := lookupAt(i)
			if sameKindValue(v, target) && value.Equal(v, target) {
				return eval.Val(resultAt(i))
			}
		}
		return eval.Err(value.ErrNA)
	}
	best := -1
	for i := 0; i < int(lineCount); i++ {
		v := lookupAt(i)
		if !sameKindValue(v, target) {
			continue
		}
		if value.Compare(v, target) <= 0 {
			best = i
		} else {
			break
		}
	}
	if best < 0 {
		return eval.Err(value.ErrNA)
	}
	return eval.Val(resultAt(best))
}

func builtinXlookup(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 3 || len(args) > 6 {
		return argError()
	}
	targetRes := eval.Eval(args[0], ctx)
	if k, ok := targetRes.IsError(); ok {
		return eval.Err(k)
	}
	lookupVals := eval.Flatten(eval.Eval(args[1], ctx))
	if k, ok := eval.FirstError(lookupVals); ok {
		return eval.Err(k)
	}
	returnVals := eval.Flatten(eval.Eval(args[2], ctx))
	if k, ok := eval.FirstError(returnVals); ok {
		return eval.Err(k)
	}
	if len(lookupVals) != len(returnVals) {
		return eval.Err(value.ErrValue)
	}
	target := targetRes.ToValue()
	for i, v := range lookupVals {
		if sameKindValue(v, target) && value.Equal(v, target) {
			return eval.Val(returnVals[i])
		}
	}
	if len(args) >= 4 {
		return eval.Eval(args[3], ctx)
	}
	return eval.Err(value.ErrNA)
}

func builtinIndirect(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 && len(args) != 2 {
		return argError()
	}
	textRes := eval.Eval(args[0], ctx)
	if k, ok := textRes.IsError(); ok {
		return eval.Err(k)
	}
	text := value.ToText(textRes.ToValue())
	expr, errs := parser.ParseFormula(text)
	if len(errs) > 0 {
		return eval.Err(value.ErrRef)
	}
	switch expr.(type) {
	case *ast.Reference, *ast.RangeRef, *ast.ThreeDRange:
		return eval.Eval(expr, ctx)
	default:
		return eval.Err(value.ErrRef)
	}
}

// refRange resolves the address a reference-shaped AST node denotes,
// without evaluating its contents -- OFFSET/ROW/COLUMN need the
// address itself, not the value stored there.
func refRange(ctx *eval.Context, expr ast.Expression) (address.Range, bool) {
	switch n := expr.(type) {
	case *ast.Reference:
		wb, sh := qualified(ctx, n.Workbook, n.Sheet)
		return address.Range{Workbook: wb, Sheet: sh, StartCol: n.Col, StartRow: n.Row,
			EndCol: address.FiniteEnd(n.Col), EndRow: address.FiniteEnd(n.Row)}, true
	case *ast.RangeRef:
		wb, sh := qualified(ctx, n.Workbook, n.Sheet)
		r := address.Range{Workbook: wb, Sheet: sh, StartCol: n.StartCol, StartRow: n.StartRow}
		if n.EndColInfinite {
			r.EndCol = address.InfiniteEnd
		} else {
			r.EndCol = address.FiniteEnd(n.EndCol)
		}
		if n.EndRowInfinite {
			r.EndRow = address.InfiniteEnd
		} else {
			r.EndRow = address.FiniteEnd(n.EndRow)
		}
		return r, true
	default:
		return address.Range{}, false
	}
}

func qualified(ctx *eval.Context, workbook, sheet string) (string, string) {
	if workbook == "" {
		workbook = ctx.Workbook
	}
	if sheet == "" {
		sheet = ctx.Sheet
	}
	return workbook, sheet
}

func builtinOffset(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 3 || len(args) > 5 {
		return argError()
	}
	base, ok := refRange(ctx, args[0])
	if !ok || !base.IsBounded() {
		return eval.Err(value.ErrRef)
	}
	rows, cols, errR, ok2 := twoArgNumbers(ctx, args[1:3])
	if !ok2 {
		return errR
	}
	height := int64(base.EndRow.Finite-base.StartRow) + 1
	width := int64(base.EndCol.Finite-base.StartCol) + 1
	if len(args) >= 4 {
		h, errR, ok := oneArgNumber(ctx, args[3:4])
		if !ok {
			return errR
		}
		height = int64(h)
	}
	if len(args) == 5 {
		w, errR, ok := oneArgNumber(ctx, args[4:5])
		if !ok {
			return errR
		}
		width = int64(w)
	}
	newStartCol := int64(base.StartCol) + int64(cols)
	newStartRow := int64(base.StartRow) + int64(rows)
	if newStartCol < 0 || newStartRow < 0 || height <= 0 || width <= 0 {
		return eval.Err(value.ErrRef)
	}
	r := address.Range{
		Workbook: base.Workbook, Sheet: base.Sheet,
		StartCol: uint32(newStartCol), StartRow: uint32(newStartRow),
		EndCol: address.FiniteEnd(uint32(newStartCol + width - 1)),
		EndRow: address.FiniteEnd(uint32(newStartRow + height - 1)),
	}
	if !ctx.Host.SheetExists(r.Workbook, r.Sheet) {
		return eval.Err(value.ErrRef)
	}
	return eval.EvalRange(ctx, r)
}

func builtinRow(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) == 0 {
		return eval.Val(value.Number{V: float64(ctx.Cell.Row + 1)})
	}
	if len(args) != 1 {
		return argError()
	}
	r, ok := refRange(ctx, args[0])
	if !ok {
		return eval.Err(value.ErrValue)
	}
	return eval.Val(value.Number{V: float64(r.StartRow + 1)})
}

func builtinColumn(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) == 0 {
		return eval.Val(value.Number{V: float64(ctx.Cell.Col + 1)})
	}
	if len(args) != 1 {
		return argError()
	}
	r, ok := refRange(ctx, args[0])
	if !ok {
		return eval.Err(value.ErrValue)
	}
	return eval.Val(value.Number{V: float64(r.StartCol + 1)})
}

func builtinRows(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return eval.Err(k)
	}
	if r.Kind != eval.KindSpilled {
		return eval.Val(value.Number{V: 1})
	}
	_, height, _ := grid(r.Spill)
	return eval.Val(value.Number{V: float64(height)})
}

func builtinColumns(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	r := eval.Eval(args[0], ctx)
	if k, ok := r.IsError(); ok {
		return eval.Err(k)
	}
	if r.Kind != eval.KindSpilled {
		return eval.Val(value.Number{V: 1})
	}
	width, _, _ := grid(r.Spill)
	return eval.Val(value.Number{V: float64(width)})
}

// sameKindValue enforces strict type matching between a lookup target
// and a candidate: a number target never matches a string candidate
// even when the string looks numeric, and vice versa.
func sameKindValue(candidate, target value.Value) bool {
	switch target.(type) {
	case value.Number:
		_, ok := candidate.(value.Number)
		return ok
	case value.String:
		_, ok := candidate.(value.String)
		return ok
	case value.Boolean:
		_, ok := candidate.(value.Boolean)
		return ok
	default:
		return candidate.Kind() == target.Kind()
	}
}

func builtinChoose(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 2 {
		return argError()
	}
	idx, errR, ok := oneArgNumber(ctx, args[0:1])
	if !ok {
		return errR
	}
	i := int(idx)
	if i < 1 || i > len(args)-1 {
		return eval.Err(value.ErrValue)
	}
	return eval.Eval(args[i], ctx)
}
