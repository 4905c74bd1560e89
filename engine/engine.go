// Package engine composes the store, dependency graph, evaluator, and
// spill manager into the public, synchronous Engine API: a headless
// oracle clients call to write cell content and read evaluated values
// and events. It is the direct generalization of a single-sheet
// reactive spreadsheet to multiple workbooks, multiple sheets, named
// expressions, and tables -- the same "write a cell, mark dependents
// dirty, recompute, notify" flow, just over a richer node-key space.
package engine

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/eval/builtins"
	"github.com/gridform/gridform/events"
	"github.com/gridform/gridform/graph"
	"github.com/gridform/gridform/spill"
	"github.com/gridform/gridform/store"
	"github.com/gridform/gridform/value"
)

// Engine is a single owned instance of the whole system: no locking,
// no concurrency, one goroutine drives it at a time (see spec's
// concurrency model -- this repo models only the single-threaded
// case).
type Engine struct {
	store    *store.Store
	graph    *graph.Graph
	spillMgr *spill.Manager
	bus      *events.Bus
	registry eval.FunctionRegistry

	nodes   map[string]*node
	keyToCell map[string]address.Cell // reverse lookup: cell key -> address.Cell

	resolving map[string]bool // cell keys currently being evaluated, cycle guard

	// reentrant holds mutations requested by an event handler running
	// inside an outer recalc; they run after the outer recalc finishes.
	reentrant   []func()
	insideBatch bool
}

// New returns an empty Engine with no workbooks.
func New() *Engine {
	return &Engine{
		store:     store.New(),
		graph:     graph.New(),
		spillMgr:  spill.New(),
		bus:       events.New(),
		registry:  builtins.New(),
		nodes:     make(map[string]*node),
		keyToCell: make(map[string]address.Cell),
		resolving: make(map[string]bool),
	}
}

// On subscribes fn to every event of kind.
func (e *Engine) On(kind events.Kind, fn events.Handler) events.Handle {
	return e.bus.On(kind, fn)
}

// Off removes a subscription previously returned by On.
func (e *Engine) Off(h events.Handle) {
	e.bus.Off(h)
}

// cellKey returns c's graph key, recording the reverse mapping so a key
// seen later (e.g. from graph.TransitiveDependents) can be turned back
// into the address.Cell it names.
func (e *Engine) cellKey(c address.Cell) string {
	key := graph.CellKey(c)
	e.keyToCell[key] = c
	return key
}

// cellFromKey reverses cellKey, for keys that name an actual cell.
func (e *Engine) cellFromKey(key string) (address.Cell, bool) {
	c, ok := e.keyToCell[key]
	return c, ok
}

// runBatch serializes a mutation against re-entrant calls made from
// inside an event handler: the nested call is queued and drained once
// the outermost batch completes, so two mutations never interleave.
func (e *Engine) runBatch(fn func()) {
	if e.insideBatch {
		e.reentrant = append(e.reentrant, fn)
		return
	}
	e.insideBatch = true
	fn()
	for len(e.reentrant) > 0 {
		next := e.reentrant[0]
		e.reentrant = e.reentrant[1:]
		next()
	}
	e.insideBatch = false
}

// ---- eval.Host ----

var _ eval.Host = (*Engine)(nil)

// Resolve implements eval.Host: return a cell's current evaluated
// result, computing it on demand if stale, redirecting through the
// Spill Manager if another cell's array result occupies c.
func (e *Engine) Resolve(c address.Cell) eval.EvalResult {
	key := e.cellKey(c)
	if e.resolving[key] {
		return eval.Err(value.ErrCycle)
	}
	if origin, occupied := e.spillMgr.OccupantOf(c); occupied {
		return e.readSpillCell(origin, c)
	}
	n := e.nodeAt(key)
	if n.hasResult && !n.dirty {
		return n.result
	}
	return e.evaluate(c)
}

// readSpillCell resolves c through the spill whose origin occupies it,
// re-evaluating the origin first if its own cache is stale.
func (e *Engine) readSpillCell(origin address.Cell, c address.Cell) eval.EvalResult {
	key := e.cellKey(origin)
	if e.resolving[key] {
		return eval.Err(value.ErrCycle)
	}
	n := e.nodeAt(key)
	var originResult eval.EvalResult
	if n.hasResult && !n.dirty {
		originResult = n.result
	} else {
		originResult = e.evaluate(origin)
	}
	if originResult.Kind != eval.KindSpilled {
		return eval.Val(value.TheEmpty)
	}
	area := originResult.Spill.Area()
	off := eval.Offset{Col: c.Col - area.StartCol, Row: c.Row - area.StartRow}
	return originResult.Spill.EvaluateFn(off)
}

// RawContent implements eval.Host.
func (e *Engine) RawContent(c address.Cell) (store.RawContent, bool) {
	wb, ok := e.store.Workbook(c.Workbook)
	if !ok {
		return store.EmptyContent, false
	}
	sh, ok := wb.Sheet(c.Sheet)
	if !ok {
		return store.EmptyContent, false
	}
	a1 := address.FormatA1(c.Col, c.Row)
	return sh.GetCell(a1), sh.Has(a1)
}

// SheetExists implements eval.Host.
func (e *Engine) SheetExists(workbook, sheet string) bool {
	wb, ok := e.store.Workbook(workbook)
	if !ok {
		return false
	}
	_, ok = wb.Sheet(sheet)
	return ok
}

// SheetNames implements eval.Host.
func (e *Engine) SheetNames(workbook string) []string {
	wb, ok := e.store.Workbook(workbook)
	if !ok {
		return nil
	}
	return wb.SheetNames()
}

// ResolveName implements eval.Host.
func (e *Engine) ResolveName(currentWorkbook, currentSheet, name string) (*store.NamedExpression, bool) {
	wb, ok := e.store.Workbook(currentWorkbook)
	if !ok {
		return nil, false
	}
	return wb.ResolveNamedExpression(name, currentSheet)
}

// ResolveTable implements eval.Host.
func (e *Engine) ResolveTable(currentWorkbook, name string) (*store.Table, bool) {
	wb, ok := e.store.Workbook(currentWorkbook)
	if !ok {
		return nil, false
	}
	return wb.Table(name)
}

// DefinedCells implements eval.Host: every cell in r's bounded portion
// holding non-empty raw content, row-major.
func (e *Engine) DefinedCells(r address.Range) []address.Cell {
	wb, ok := e.store.Workbook(r.Workbook)
	if !ok {
		return nil
	}
	sh, ok := wb.Sheet(r.Sheet)
	if !ok {
		return nil
	}
	var out []address.Cell
	for a1 := range sh.All() {
		col, row, ok := address.ParseA1(a1)
		if !ok {
			continue
		}
		c := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row}
		if r.ContainsCell(c) {
			out = append(out, c)
		}
	}
	sortCells(out)
	return out
}

// FrontierCandidates implements eval.Host, per the open-range frontier
// algorithm: the nearest formula cell at-or-above r's start row for
// every column r touches, plus the nearest formula cell at-or-left of
// r's start column for every row r touches. An unbounded axis is
// resolved against every column/row known to hold a formula anywhere
// on the sheet, since it cannot be iterated index-by-index.
func (e *Engine) FrontierCandidates(r address.Range) []address.Cell {
	seen := make(map[address.Cell]bool)
	var out []address.Cell
	add := func(c address.Cell) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	var cols []uint32
	if r.EndCol.Infinite {
		for _, c := range e.graph.Frontier.ColumnsWithFormula(r.Workbook, r.Sheet) {
			if c >= r.StartCol {
				cols = append(cols, c)
			}
		}
	} else {
		cols = e.graph.Frontier.ColumnsTouching(r.Workbook, r.Sheet, r.StartCol, r.EndCol.Finite)
	}
	for _, col := range cols {
		if row, ok := e.graph.Frontier.NearestAbove(r.Workbook, r.Sheet, col, r.StartRow); ok {
			add(address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row})
		}
	}

	var rows []uint32
	if r.EndRow.Infinite {
		for _, row := range e.graph.Frontier.RowsWithFormula(r.Workbook, r.Sheet) {
			if row >= r.StartRow {
				rows = append(rows, row)
			}
		}
	} else {
		rows = e.graph.Frontier.RowsTouching(r.Workbook, r.Sheet, r.StartRow, r.EndRow.Finite)
	}
	for _, row := range rows {
		if col, ok := e.graph.Frontier.NearestLeft(r.Workbook, r.Sheet, row, r.StartCol); ok {
			add(address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row})
		}
	}

	sortCells(out)
	return out
}

// Functions implements eval.Host.
func (e *Engine) Functions() eval.FunctionRegistry { return e.registry }

func sortCells(cells []address.Cell) {
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0 && less(cells[j], cells[j-1]); j-- {
			cells[j], cells[j-1] = cells[j-1], cells[j]
		}
	}
}

func less(a, b address.Cell) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}
