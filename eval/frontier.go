package eval

import (
	"sort"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/graph"
	"github.com/gridform/gridform/value"
)

// evalOpenRange evaluates a range with at least one Infinity end. It
// cannot expand the range cell-by-cell, so it instead combines the
// sheet's defined cells with the formula "frontier" (the nearest
// formula cell above each column / to the left of each row) whose own
// spill might reach into this range.
func evalOpenRange(ctx *Context, r address.Range) EvalResult {
	origin := ctx.Cell

	materialize := func() []SpilledCell {
		yielded := map[address.Cell]EvalResult{}
		order := []address.Cell{}
		record := func(c address.Cell, res EvalResult) {
			if _, seen := yielded[c]; !seen {
				order = append(order, c)
			}
			yielded[c] = res
		}

		if r.ContainsCell(origin) {
			// step: self-iteration through the current cell's own
			// address yields #CYCLE! at that position rather than
			// recursing into Resolve(origin).
			record(origin, Err(value.ErrCycle))
		}

		// Step 2: frontier candidates -- cells whose own spill could
		// reach into r. Each is a frontier dependency regardless of
		// whether its spill actually intersects r, so a later edit
		// that starts or stops spilling into r is still observed.
		for _, cand := range ctx.Host.FrontierCandidates(r) {
			ctx.AddFrontierDependency(graph.CellKey(cand))
			if cand == origin {
				continue
			}
			res := ctx.Host.Resolve(cand)
			if res.Kind != KindSpilled {
				continue
			}
			area := res.Spill.Area()
			inter, ok := intersectRange(area, r)
			if !ok {
				continue
			}
			for row := inter.StartRow; row <= inter.EndRow.Finite; row++ {
				for col := inter.StartCol; col <= inter.EndCol.Finite; col++ {
					c := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row}
					if c == origin {
						continue
					}
					off := Offset{Col: col - area.StartCol, Row: row - area.StartRow}
					record(c, res.Spill.EvaluateFn(off))
				}
			}
		}

		// Step 4: defined cells not already covered.
		for _, c := range ctx.Host.DefinedCells(r) {
			if c == origin {
				continue
			}
			if _, already := yielded[c]; already {
				continue
			}
			record(c, resolveCell(ctx, c))
		}

		sort.Slice(order, func(i, j int) bool {
			if order[i].Row != order[j].Row {
				return order[i].Row < order[j].Row
			}
			return order[i].Col < order[j].Col
		})

		out := make([]SpilledCell, 0, len(order))
		for _, c := range order {
			// Step 5: every yielded cell's key becomes a dependency of
			// the current cell (frontier candidates are tracked
			// separately above, via AddFrontierDependency).
			ctx.AddDependency(graph.CellKey(c))
			out = append(out, SpilledCell{Col: c.Col, Row: c.Row, Result: yielded[c]})
		}
		return out
	}

	var cached []SpilledCell
	var done bool
	cachedMaterialize := func() []SpilledCell {
		if !done {
			cached = materialize()
			done = true
		}
		return cached
	}

	return Spilled(&Spill{
		Origin: origin,
		AreaFn: func() address.Range { return r },
		EvaluateFn: func(off Offset) EvalResult {
			cells := cachedMaterialize()
			target := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: r.StartCol + off.Col, Row: r.StartRow + off.Row}
			for _, sc := range cells {
				if sc.Col == target.Col && sc.Row == target.Row {
					return sc.Result
				}
			}
			return Val(value.TheEmpty)
		},
		AllFn: cachedMaterialize,
	})
}

// intersectRange returns the bounded intersection of a (possibly
// unbounded) spill area with a (possibly unbounded) target range,
// clipped to whichever bounds are finite on either side.
func intersectRange(a, r address.Range) (address.Range, bool) {
	if a.Workbook != r.Workbook || a.Sheet != r.Sheet {
		return address.Range{}, false
	}
	startCol := maxU32(a.StartCol, r.StartCol)
	startRow := maxU32(a.StartRow, r.StartRow)
	endCol, endColOK := minEnd(a.EndCol, r.EndCol)
	endRow, endRowOK := minEnd(a.EndRow, r.EndRow)
	if !endColOK || !endRowOK {
		return address.Range{}, false
	}
	if startCol > endCol.Finite || startRow > endRow.Finite {
		return address.Range{}, false
	}
	return address.Range{Workbook: a.Workbook, Sheet: a.Sheet, StartCol: startCol, StartRow: startRow, EndCol: endCol, EndRow: endRow}, true
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minEnd(a, b address.End) (address.End, bool) {
	if a.Infinite && b.Infinite {
		return address.End{}, false
	}
	if a.Infinite {
		return b, true
	}
	if b.Infinite {
		return a, true
	}
	if a.Finite < b.Finite {
		return a, true
	}
	return b, true
}
