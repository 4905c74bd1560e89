package engine

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/events"
	"github.com/gridform/gridform/parser"
	"github.com/gridform/gridform/store"
)

// ---- cell content ----

// SetCellContent writes raw content into one cell and recomputes
// everything that depends on it, emitting cell-changed for every cell
// whose serialized value actually moved. Returns false if the
// workbook or sheet doesn't exist.
func (e *Engine) SetCellContent(workbook, sheet string, col, row uint32, content store.RawContent) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		if _, exists := wb.Sheet(sheet); !exists {
			return
		}
		c := address.Cell{Workbook: workbook, Sheet: sheet, Col: col, Row: row}
		key := e.applyCellContent(c, content)
		e.recalcFrom([]string{key})
		ok = true
	})
	return ok
}

// SetSheetContent replaces an entire sheet's contents in one
// transaction: every A1 key present in contents is written, every A1
// key the sheet held before that's absent from contents is cleared,
// and the whole batch recomputes once.
func (e *Engine) SetSheetContent(workbook, sheet string, contents map[string]store.RawContent) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		sh, exists := wb.Sheet(sheet)
		if !exists {
			return
		}
		touched := make(map[string]bool)
		for a1 := range sh.All() {
			touched[a1] = true
		}
		for a1 := range contents {
			touched[a1] = true
		}
		keys := make([]string, 0, len(touched))
		for a1 := range touched {
			col, row, valid := address.ParseA1(a1)
			if !valid {
				continue
			}
			content, present := contents[a1]
			if !present {
				content = store.EmptyContent
			}
			c := address.Cell{Workbook: workbook, Sheet: sheet, Col: col, Row: row}
			keys = append(keys, e.applyCellContent(c, content))
		}
		e.recalcFrom(keys)
		ok = true
	})
	return ok
}

// applyCellContent writes content into the store, reparses it if it's
// a formula, and keeps the frontier index's formula markers in sync.
// It does not recompute anything -- callers batch keys and call
// recalcFrom once.
func (e *Engine) applyCellContent(c address.Cell, content store.RawContent) string {
	wb, _ := e.store.Workbook(c.Workbook)
	sh, _ := wb.Sheet(c.Sheet)
	a1 := address.FormatA1(c.Col, c.Row)
	key := e.cellKey(c)
	n := e.nodeAt(key)
	wasFormula := n.formula != nil || n.parseFailed

	sh.SetCell(a1, content)

	if content.IsFormula() {
		expr, errs := parser.ParseFormula(content.FormulaText())
		if len(errs) > 0 {
			n.formula, n.parseFailed = nil, true
		} else {
			n.formula, n.parseFailed = expr, false
		}
		e.graph.Frontier.MarkFormula(c.Workbook, c.Sheet, c.Col, c.Row)
	} else {
		n.formula, n.parseFailed = nil, false
		if wasFormula {
			e.graph.Frontier.UnmarkFormula(c.Workbook, c.Sheet, c.Col, c.Row)
		}
	}
	return key
}

// ---- reads ----

// GetCellValue returns a cell's current evaluated, serialized value.
func (e *Engine) GetCellValue(workbook, sheet string, col, row uint32) (string, bool) {
	if !e.SheetExists(workbook, sheet) {
		return "", false
	}
	c := address.Cell{Workbook: workbook, Sheet: sheet, Col: col, Row: row}
	return serialize(e.Resolve(c)), true
}

// GetCellSerialized returns a cell's raw content exactly as typed.
func (e *Engine) GetCellSerialized(workbook, sheet string, col, row uint32) (string, bool) {
	wb, ok := e.store.Workbook(workbook)
	if !ok {
		return "", false
	}
	sh, ok := wb.Sheet(sheet)
	if !ok {
		return "", false
	}
	return sh.GetCell(address.FormatA1(col, row)).Serialized(), true
}

// GetSheetSerialized returns every non-empty cell's raw content, keyed
// by A1 address. Cells that only hold a value because another cell
// spilled into them are excluded -- they carry no raw content of
// their own.
func (e *Engine) GetSheetSerialized(workbook, sheet string) (map[string]string, bool) {
	wb, ok := e.store.Workbook(workbook)
	if !ok {
		return nil, false
	}
	sh, ok := wb.Sheet(sheet)
	if !ok {
		return nil, false
	}
	out := make(map[string]string)
	for a1, content := range sh.All() {
		out[a1] = content.Serialized()
	}
	return out, true
}

// ---- recalculation ----

// recalcFrom marks every key (and its transitive dependents) dirty
// and drains the dirty set, recomputing until a full pass leaves
// nothing dirty.
func (e *Engine) recalcFrom(keys []string) {
	for _, key := range keys {
		e.markDirty(key)
	}
	e.drainDirty()
}

// drainDirty repeatedly resolves every currently-dirty cell,
// comparing its serialized value before and after and emitting
// cell-changed for any that moved. Resolving a cell can mark further
// cells dirty (a spill claiming or releasing a neighbor), so the
// outer loop keeps going until a pass finds nothing left to do.
func (e *Engine) drainDirty() {
	for {
		pending := e.dirtyCells()
		if len(pending) == 0 {
			return
		}
		for _, c := range pending {
			key := e.cellKey(c)
			n := e.nodeAt(key)
			if !n.dirty {
				continue // a nested Resolve already cleaned it this pass
			}
			before, hadBefore := "", n.hasResult
			if hadBefore {
				before = serialize(n.result)
			}
			after := serialize(e.Resolve(c))
			if !hadBefore || before != after {
				e.bus.Emit(events.Event{Kind: events.CellChanged, Data: events.CellChangedPayload{
					Workbook: c.Workbook, Sheet: c.Sheet, Col: c.Col, Row: c.Row,
					OldValue: before, NewValue: after,
				}})
			}
		}
	}
}

// dirtyCells returns every cell currently flagged dirty, in
// deterministic (row, col) order.
func (e *Engine) dirtyCells() []address.Cell {
	var cells []address.Cell
	for key, n := range e.nodes {
		if n.dirty {
			if c, ok := e.cellFromKey(key); ok {
				cells = append(cells, c)
			}
		}
	}
	sortCells(cells)
	return cells
}
