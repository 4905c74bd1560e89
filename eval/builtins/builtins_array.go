package builtins

import (
	"sort"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/value"
)

func registerArray(r *Registry) {
	r.register("SORT", builtinSort)
	r.register("UNIQUE", builtinUnique)
	r.register("SEQUENCE", builtinSequence)
	r.register("TRANSPOSE", builtinTranspose)
	r.register("FILTER", builtinFilter)
}

// materializedGrid evaluates expr and returns its shape as a dense
// [row][col] grid: a Spilled result keeps its own shape, a scalar
// becomes a 1x1 grid.
func materializedGrid(ctx *eval.Context, expr ast.Expression) (uint32, uint32, [][]value.Value, *value.ErrorKind) {
	r := eval.Eval(expr, ctx)
	if k, ok := r.IsError(); ok {
		return 0, 0, nil, &k
	}
	if r.Kind != eval.KindSpilled {
		return 1, 1, [][]value.Value{{r.ToValue()}}, nil
	}
	w, h, cells := grid(r.Spill)
	return w, h, cells, nil
}

// arrayResult wraps a concrete [row][col] grid of already-evaluated
// values as a Spilled EvalResult anchored at ctx's current cell.
func arrayResult(ctx *eval.Context, width, height uint32, cells [][]value.Value) eval.EvalResult {
	origin := ctx.Cell
	return eval.Spilled(&eval.Spill{
		Origin: origin,
		AreaFn: func() address.Range {
			return address.Range{Workbook: origin.Workbook, Sheet: origin.Sheet, StartCol: origin.Col, StartRow: origin.Row,
				EndCol: address.FiniteEnd(origin.Col + width - 1), EndRow: address.FiniteEnd(origin.Row + height - 1)}
		},
		EvaluateFn: func(off eval.Offset) eval.EvalResult {
			if off.Row >= height || off.Col >= width {
				return eval.Val(value.TheEmpty)
			}
			return eval.Val(cells[off.Row][off.Col])
		},
		AllFn: func() []eval.SpilledCell {
			var out []eval.SpilledCell
			for row := uint32(0); row < height; row++ {
				for col := uint32(0); col < width; col++ {
					out = append(out, eval.SpilledCell{
						Col: origin.Col + col, Row: origin.Row + row,
						Result: eval.Val(cells[row][col]),
					})
				}
			}
			return out
		},
	})
}

func builtinSort(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 1 || len(args) > 3 {
		return argError()
	}
	width, height, cells, errK := materializedGrid(ctx, args[0])
	if errK != nil {
		return eval.Err(*errK)
	}
	sortCol := 0
	if len(args) >= 2 {
		n, errR, ok := oneArgNumber(ctx, args[1:2])
		if !ok {
			return errR
		}
		sortCol = int(n) - 1
	}
	ascending := true
	if len(args) == 3 {
		n, errR, ok := oneArgNumber(ctx, args[2:3])
		if !ok {
			return errR
		}
		ascending = n >= 0
	}
	if sortCol < 0 || sortCol >= int(width) {
		return eval.Err(value.ErrValue)
	}
	rows := make([][]value.Value, height)
	copy(rows, cells)
	sort.SliceStable(rows, func(i, j int) bool {
		c := value.Compare(rows[i][sortCol], rows[j][sortCol])
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return arrayResult(ctx, width, height, rows)
}

func builtinUnique(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	width, height, cells, errK := materializedGrid(ctx, args[0])
	if errK != nil {
		return eval.Err(*errK)
	}
	seen := map[string]bool{}
	var out [][]value.Value
	for row := uint32(0); row < height; row++ {
		key := rowKey(cells[row])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cells[row])
	}
	if len(out) == 0 {
		return eval.Val(value.TheEmpty)
	}
	return arrayResult(ctx, width, uint32(len(out)), out)
}

func rowKey(row []value.Value) string {
	var b []byte
	for _, v := range row {
		b = append(b, []byte(v.Serialized())...)
		b = append(b, 0)
	}
	return string(b)
}

func builtinSequence(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 1 || len(args) > 4 {
		return argError()
	}
	rowsN, errR, ok := oneArgNumber(ctx, args[0:1])
	if !ok {
		return errR
	}
	colsN := 1.0
	start := 1.0
	step := 1.0
	if len(args) >= 2 {
		n, errR, ok := oneArgNumber(ctx, args[1:2])
		if !ok {
			return errR
		}
		colsN = n
	}
	if len(args) >= 3 {
		n, errR, ok := oneArgNumber(ctx, args[2:3])
		if !ok {
			return errR
		}
		start = n
	}
	if len(args) == 4 {
		n, errR, ok := oneArgNumber(ctx, args[3:4])
		if !ok {
			return errR
		}
		step = n
	}
	height, width := int(rowsN), int(colsN)
	if height < 1 || width < 1 {
		return eval.Err(value.ErrValue)
	}
	cells := make([][]value.Value, height)
	n := start
	for r := 0; r < height; r++ {
		cells[r] = make([]value.Value, width)
		for c := 0; c < width; c++ {
			cells[r][c] = value.Number{V: n}
			n += step
		}
	}
	return arrayResult(ctx, uint32(width), uint32(height), cells)
}

func builtinTranspose(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) != 1 {
		return argError()
	}
	width, height, cells, errK := materializedGrid(ctx, args[0])
	if errK != nil {
		return eval.Err(*errK)
	}
	out := make([][]value.Value, width)
	for c := uint32(0); c < width; c++ {
		out[c] = make([]value.Value, height)
		for r := uint32(0); r < height; r++ {
			out[c][r] = cells[r][c]
		}
	}
	return arrayResult(ctx, height, width, out)
}

func builtinFilter(ctx *eval.Context, args []ast.Expression) eval.EvalResult {
	if len(args) < 2 || len(args) > 3 {
		return argError()
	}
	width, height, cells, errK := materializedGrid(ctx, args[0])
	if errK != nil {
		return eval.Err(*errK)
	}
	condWidth, condHeight, condCells, errK2 := materializedGrid(ctx, args[1])
	if errK2 != nil {
		return eval.Err(*errK2)
	}
	if condHeight != height || condWidth != 1 {
		return eval.Err(value.ErrValue)
	}
	var out [][]value.Value
	for row := uint32(0); row < height; row++ {
		b, err := value.ToBool(condCells[row][0])
		if err != nil {
			return eval.Val(*err)
		}
		if b {
			out = append(out, cells[row])
		}
	}
	if len(out) == 0 {
		if len(args) == 3 {
			return eval.Eval(args[2], ctx)
		}
		return eval.Err(value.ErrValue)
	}
	return arrayResult(ctx, width, uint32(len(out)), out)
}
