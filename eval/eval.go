package eval

import (
	"strings"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/graph"
	"github.com/gridform/gridform/parser"
	"github.com/gridform/gridform/store"
	"github.com/gridform/gridform/value"
)

// Eval evaluates node against ctx, dispatching on the AST node's
// concrete type: one exported entry point, one big type-switch.
func Eval(node ast.Expression, ctx *Context) EvalResult {
	switch n := node.(type) {
	case *ast.ValueLiteral:
		return Val(n.Value)
	case *ast.ErrorLiteral:
		return Err(n.Kind)
	case *ast.Reference:
		return evalReference(n, ctx)
	case *ast.RangeRef:
		return evalRange(n, ctx)
	case *ast.ThreeDRange:
		return evalThreeDRange(n, ctx)
	case *ast.StructuredReference:
		return evalStructuredReference(n, ctx)
	case *ast.NamedExpressionRef:
		return evalNamedExpression(n, ctx)
	case *ast.Call:
		return evalCall(n, ctx)
	case *ast.BinaryOp:
		return evalBinary(n, ctx)
	case *ast.UnaryOp:
		return evalUnary(n, ctx)
	case *ast.ArrayLiteral:
		return evalArrayLiteral(n, ctx)
	default:
		return Err(value.ErrValue)
	}
}

func resolveWorkbookSheet(ctx *Context, workbook, sheet string) (string, string) {
	if workbook == "" {
		workbook = ctx.Workbook
	}
	if sheet == "" {
		sheet = ctx.Sheet
	}
	return workbook, sheet
}

func evalReference(n *ast.Reference, ctx *Context) EvalResult {
	wb, sh := resolveWorkbookSheet(ctx, n.Workbook, n.Sheet)
	if !ctx.Host.SheetExists(wb, sh) {
		return Err(value.ErrRef)
	}
	cell := address.Cell{Workbook: wb, Sheet: sh, Col: n.Col, Row: n.Row}
	return resolveCell(ctx, cell)
}

// resolveCell records the dependency edge for cell and pulls its
// current evaluated result through the host, guarding against direct
// self-reference.
func resolveCell(ctx *Context, cell address.Cell) EvalResult {
	key := graph.CellKey(cell)
	ctx.AddDependency(key)
	if ctx.OnStack(key) {
		return Err(value.ErrCycle)
	}
	return ctx.Host.Resolve(cell)
}

func buildRange(ctx *Context, workbook, sheet string, startCol, startRow uint32, endColInf bool, endCol uint32, endRowInf bool, endRow uint32) address.Range {
	wb, sh := resolveWorkbookSheet(ctx, workbook, sheet)
	r := address.Range{Workbook: wb, Sheet: sh, StartCol: startCol, StartRow: startRow}
	if endColInf {
		r.EndCol = address.InfiniteEnd
	} else {
		r.EndCol = address.FiniteEnd(endCol)
	}
	if endRowInf {
		r.EndRow = address.InfiniteEnd
	} else {
		r.EndRow = address.FiniteEnd(endRow)
	}
	return r
}

func evalRange(n *ast.RangeRef, ctx *Context) EvalResult {
	r := buildRange(ctx, n.Workbook, n.Sheet, n.StartCol, n.StartRow, n.EndColInfinite, n.EndCol, n.EndRowInfinite, n.EndRow)
	if !ctx.Host.SheetExists(r.Workbook, r.Sheet) {
		return Err(value.ErrRef)
	}
	return evalRangeValue(ctx, r)
}

// EvalRange reads r the same way a literal range reference would,
// recording dependencies against ctx. Builtins that compute a
// reference's address dynamically (OFFSET) use this instead of
// re-parsing a synthesized formula string.
func EvalRange(ctx *Context, r address.Range) EvalResult {
	return evalRangeValue(ctx, r)
}

// evalRangeValue is the shared range-reading path used by RangeRef,
// structured whole-column references, and (per sheet) ThreeDRange.
func evalRangeValue(ctx *Context, r address.Range) EvalResult {
	if r.IsSingleCell() {
		return resolveCell(ctx, r.SingleCell())
	}
	if !r.IsBounded() {
		return evalOpenRange(ctx, r)
	}
	key := graph.RangeKey(r)
	ctx.AddDependency(key)
	origin := ctx.Cell
	return Spilled(&Spill{
		Origin: origin,
		AreaFn: func() address.Range { return r },
		EvaluateFn: func(off Offset) EvalResult {
			c := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: r.StartCol + off.Col, Row: r.StartRow + off.Row}
			if c.Col > r.EndCol.Finite || c.Row > r.EndRow.Finite {
				return Val(value.TheEmpty)
			}
			return resolveCell(ctx, c)
		},
		AllFn: func() []SpilledCell {
			var out []SpilledCell
			for row := r.StartRow; row <= r.EndRow.Finite; row++ {
				for col := r.StartCol; col <= r.EndCol.Finite; col++ {
					c := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row}
					out = append(out, SpilledCell{Col: col, Row: row, Result: resolveCell(ctx, c)})
				}
			}
			return out
		},
	})
}

func evalThreeDRange(n *ast.ThreeDRange, ctx *Context) EvalResult {
	wb := n.Workbook
	if wb == "" {
		wb = ctx.Workbook
	}
	if n.EndColInfinite || n.EndRowInfinite {
		// Open-ended 3-D ranges are not supported by this evaluator and
		// evaluate to #REF!.
		return Err(value.ErrRef)
	}
	sheets := sheetSpan(ctx, wb, n.FirstSheet, n.LastSheet)
	if sheets == nil {
		return Err(value.ErrRef)
	}
	origin := ctx.Cell
	width := n.EndCol - n.StartCol + 1
	height := n.EndRow - n.StartRow + 1
	return Spilled(&Spill{
		Origin: origin,
		AreaFn: func() address.Range {
			return address.Range{Workbook: wb, Sheet: sheets[0], StartCol: n.StartCol, StartRow: n.StartRow,
				EndCol: address.FiniteEnd(n.EndCol), EndRow: address.FiniteEnd(n.EndRow)}
		},
		EvaluateFn: func(off Offset) EvalResult {
			total := width * height
			sheetIdx := off.Row / height
			rem := off.Row % height
			if sheetIdx >= uint32(len(sheets)) || off.Col >= width || off.Row >= total*uint32(len(sheets)) {
				return Val(value.TheEmpty)
			}
			c := address.Cell{Workbook: wb, Sheet: sheets[sheetIdx], Col: n.StartCol + off.Col, Row: n.StartRow + rem}
			return resolveCell(ctx, c)
		},
		AllFn: func() []SpilledCell {
			var out []SpilledCell
			for si, sh := range sheets {
				for row := n.StartRow; row <= n.EndRow; row++ {
					for col := n.StartCol; col <= n.EndCol; col++ {
						c := address.Cell{Workbook: wb, Sheet: sh, Col: col, Row: row}
						out = append(out, SpilledCell{Col: col, Row: uint32(si)*height + (row - n.StartRow), Result: resolveCell(ctx, c)})
					}
				}
			}
			return out
		},
	})
}

// sheetSpan returns every sheet name from first to last inclusive, in
// workbook order, or nil if either endpoint doesn't exist.
func sheetSpan(ctx *Context, workbook, first, last string) []string {
	names := ctx.Host.SheetNames(workbook)
	startIdx, endIdx := -1, -1
	for i, n := range names {
		if n == first {
			startIdx = i
		}
		if n == last {
			endIdx = i
		}
	}
	if startIdx == -1 || endIdx == -1 || startIdx > endIdx {
		return nil
	}
	return names[startIdx : endIdx+1]
}

func evalStructuredReference(n *ast.StructuredReference, ctx *Context) EvalResult {
	t, ok := ctx.Host.ResolveTable(ctx.Workbook, n.Table)
	if !ok {
		return Err(value.ErrRef)
	}
	colKey := graph.TableColKey(ctx.Workbook, n.Table, n.ColumnName)
	ctx.AddDependency(colKey)

	if n.ThisRow {
		if ctx.Cell.Workbook != t.Workbook || ctx.Cell.Sheet != t.Sheet || !t.ContainsRow(ctx.Cell.Row) {
			return Err(value.ErrValue)
		}
		col, ok := t.ColumnAddress(n.ColumnName)
		if !ok {
			return Err(value.ErrRef)
		}
		return resolveCell(ctx, address.Cell{Workbook: t.Workbook, Sheet: t.Sheet, Col: col, Row: ctx.Cell.Row})
	}

	col, ok := t.ColumnAddress(n.ColumnName)
	if !ok {
		return Err(value.ErrRef)
	}
	startRow, endRow := t.DataRowRange()
	r := address.Range{Workbook: t.Workbook, Sheet: t.Sheet, StartCol: col, StartRow: startRow, EndCol: address.FiniteEnd(col), EndRow: endRow}
	return evalRangeValue(ctx, r)
}

func evalNamedExpression(n *ast.NamedExpressionRef, ctx *Context) EvalResult {
	named, ok := ctx.Host.ResolveName(ctx.Workbook, ctx.Sheet, n.Name)
	if !ok {
		return Err(value.ErrName)
	}
	scopeLabel := "global"
	sheet := ctx.Sheet
	if !named.Scope.Global {
		scopeLabel = "sheet:" + named.Scope.Sheet
		sheet = named.Scope.Sheet
	}
	key := graph.NameKey(scopeLabel, named.Name)
	ctx.AddDependency(key)
	if ctx.OnStack(key) {
		return Err(value.ErrCycle)
	}

	if !named.Expression.IsFormula() {
		return Val(rawContentToValue(named.Expression))
	}
	expr, errs := parser.ParseFormula(named.Expression.Text)
	if len(errs) > 0 {
		return Err(value.ErrValue)
	}
	nested := ctx.WithCell(ctx.Workbook, sheet, ctx.Cell)
	nested.Push(key)
	result := Eval(expr, nested)
	for k := range nested.Dependencies {
		ctx.AddDependency(k)
	}
	for k := range nested.FrontierDependencies {
		ctx.AddFrontierDependency(k)
	}
	return result
}

func rawContentToValue(c store.RawContent) value.Value {
	switch c.Kind {
	case store.ContentNumber:
		return value.Number{V: c.Number}
	case store.ContentBoolean:
		return value.Boolean{V: c.Boolean}
	case store.ContentText:
		return value.String{V: c.Text}
	default:
		return value.TheEmpty
	}
}

func evalCall(n *ast.Call, ctx *Context) EvalResult {
	fn, ok := ctx.Host.Functions().Lookup(strings.ToUpper(n.Name))
	if !ok {
		return Err(value.ErrName)
	}
	return fn(ctx, n.Args)
}

func evalArrayLiteral(n *ast.ArrayLiteral, ctx *Context) EvalResult {
	origin := ctx.Cell
	height := uint32(len(n.Rows))
	width := uint32(0)
	for _, row := range n.Rows {
		if uint32(len(row)) > width {
			width = uint32(len(row))
		}
	}
	return Spilled(&Spill{
		Origin: origin,
		AreaFn: func() address.Range {
			return address.Range{Workbook: origin.Workbook, Sheet: origin.Sheet, StartCol: origin.Col, StartRow: origin.Row,
				EndCol: address.FiniteEnd(origin.Col + width - 1), EndRow: address.FiniteEnd(origin.Row + height - 1)}
		},
		EvaluateFn: func(off Offset) EvalResult {
			if off.Row >= height || off.Col >= uint32(len(n.Rows[off.Row])) {
				return Val(value.TheEmpty)
			}
			return Eval(n.Rows[off.Row][off.Col], ctx)
		},
		AllFn: func() []SpilledCell {
			var out []SpilledCell
			for r, row := range n.Rows {
				for c := range row {
					out = append(out, SpilledCell{
						Col: origin.Col + uint32(c), Row: origin.Row + uint32(r),
						Result: Eval(n.Rows[r][c], ctx),
					})
				}
			}
			return out
		},
	})
}
