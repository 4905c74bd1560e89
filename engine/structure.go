package engine

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/events"
	"github.com/gridform/gridform/graph"
	"github.com/gridform/gridform/store"
)

// ---- workbooks ----

func (e *Engine) AddWorkbook(name string) bool {
	var ok bool
	e.runBatch(func() {
		ok = e.store.AddWorkbook(name)
		if ok {
			e.bus.Emit(events.Event{Kind: events.WorkbookAdded, Data: name})
		}
	})
	return ok
}

func (e *Engine) RemoveWorkbook(name string) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(name)
		if !exists {
			return
		}
		for _, sheetName := range wb.SheetNames() {
			e.teardownSheetCells(name, sheetName)
			e.spillMgr.RemoveSheet(name, sheetName)
		}
		ok = e.store.RemoveWorkbook(name)
		if ok {
			e.bus.Emit(events.Event{Kind: events.WorkbookRemoved, Data: name})
		}
	})
	return ok
}

// RenameWorkbook renames a workbook and forces a full re-evaluation of
// every workbook in the store: workbook-qualified references
// ("[Book]Sheet!A1") live in formula text belonging to OTHER
// workbooks, which store.RenameWorkbook has no way to rewrite itself
// (it only touches the renamed workbook's own sheets), so the only
// generally correct fix-up is to reparse and recompute everything.
func (e *Engine) RenameWorkbook(oldName, newName string) bool {
	var ok bool
	e.runBatch(func() {
		ok = e.store.RenameWorkbook(oldName, newName)
		if ok {
			e.rebuildAll()
			e.bus.Emit(events.Event{Kind: events.WorkbookRenamed, Data: [2]string{oldName, newName}})
		}
	})
	return ok
}

// ---- sheets ----

func (e *Engine) AddSheet(workbook, sheet string) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.AddSheet(sheet)
		if ok {
			e.bus.Emit(events.Event{Kind: events.SheetAdded, Data: [2]string{workbook, sheet}})
		}
	})
	return ok
}

func (e *Engine) RemoveSheet(workbook, sheet string) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		if _, exists := wb.Sheet(sheet); !exists {
			return
		}
		e.teardownSheetCells(workbook, sheet)
		e.spillMgr.RemoveSheet(workbook, sheet)
		ok = wb.RemoveSheet(sheet)
		if ok {
			e.bus.Emit(events.Event{Kind: events.SheetRemoved, Data: [2]string{workbook, sheet}})
			// formulas elsewhere in the workbook may have referenced
			// the removed sheet; re-evaluate so they surface #REF!.
			e.rebuildWorkbook(workbook)
		}
	})
	return ok
}

// RenameSheet renames a sheet. store.Workbook.RenameSheet already
// rewrites every formula's sheet qualifiers and every sheet-scoped
// named expression's scope in place, so the engine's job is just to
// reparse everything in the workbook (the rewritten text invalidates
// every cached AST) and recompute.
func (e *Engine) RenameSheet(workbook, oldName, newName string) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.RenameSheet(oldName, newName)
		if ok {
			e.rebuildWorkbook(workbook)
			e.bus.Emit(events.Event{Kind: events.SheetRenamed, Data: [3]string{workbook, oldName, newName}})
		}
	})
	return ok
}

// ---- named expressions ----

func (e *Engine) AddNamedExpression(workbook, name string, scope store.Scope, expr store.RawContent) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.AddNamedExpression(name, scope, expr)
		if ok {
			// a formula that referenced this name before it existed
			// resolved to #NAME? without registering a dependency
			// edge (eval only records one on success), so the only
			// way to un-stick it is to re-evaluate every formula.
			e.recalcAllFormulas(workbook)
			e.bus.Emit(events.Event{Kind: events.NamedExpressionAdded, Data: name})
		}
	})
	return ok
}

func (e *Engine) UpdateNamedExpression(workbook, name string, scope store.Scope, expr store.RawContent) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.UpdateNamedExpression(name, scope, expr)
		if ok {
			scopeLabel := "global"
			if !scope.Global {
				scopeLabel = "sheet:" + scope.Sheet
			}
			e.markDirty(graph.NameKey(scopeLabel, name))
			e.drainDirty()
			e.bus.Emit(events.Event{Kind: events.NamedExpressionUpdated, Data: name})
		}
	})
	return ok
}

func (e *Engine) RemoveNamedExpression(workbook, name string, scope store.Scope) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.RemoveNamedExpression(name, scope)
		if ok {
			e.recalcAllFormulas(workbook)
			e.bus.Emit(events.Event{Kind: events.NamedExpressionRemoved, Data: name})
		}
	})
	return ok
}

// ---- tables ----

func (e *Engine) AddTable(workbook string, t *store.Table) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.AddTable(t)
		if ok {
			e.recalcAllFormulas(workbook)
			e.bus.Emit(events.Event{Kind: events.TableAdded, Data: t.Name})
		}
	})
	return ok
}

func (e *Engine) RemoveTable(workbook, name string) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.RemoveTable(name)
		if ok {
			e.recalcAllFormulas(workbook)
			e.bus.Emit(events.Event{Kind: events.TableRemoved, Data: name})
		}
	})
	return ok
}

// RenameTable renames a table. store.Workbook.RenameTable rewrites
// every structured reference to it in place; the whole workbook is
// then reparsed and recomputed through rebuildWorkbook.
func (e *Engine) RenameTable(workbook, oldName, newName string) bool {
	var ok bool
	e.runBatch(func() {
		wb, exists := e.store.Workbook(workbook)
		if !exists {
			return
		}
		ok = wb.RenameTable(oldName, newName)
		if ok {
			e.rebuildWorkbook(workbook)
			e.bus.Emit(events.Event{Kind: events.TableRenamed, Data: [2]string{oldName, newName}})
		}
	})
	return ok
}

// ---- teardown and rebuild ----

// teardownSheetCells drops every node, graph edge, and reverse-lookup
// entry belonging to one sheet, used before the sheet itself (or its
// owning workbook) disappears from the store.
func (e *Engine) teardownSheetCells(workbook, sheet string) {
	for key, c := range e.keyToCell {
		if c.Workbook == workbook && c.Sheet == sheet {
			e.graph.RemoveNode(key)
			delete(e.nodes, key)
			delete(e.keyToCell, key)
		}
	}
}

// rebuildWorkbook reparses and recomputes every cell in workbook. It
// is the brute-force fix-up after any rename that rewrote stored
// formula text or moved cells to a new key space (sheet/table
// rename): simpler and more certainly correct than trying to rewrite
// the dependency graph's keys in place, at the cost of a full
// workbook recompute instead of a targeted one.
func (e *Engine) rebuildWorkbook(workbook string) {
	wb, exists := e.store.Workbook(workbook)
	if !exists {
		return
	}
	var keys []string
	for _, sheetName := range wb.SheetNames() {
		sh, _ := wb.Sheet(sheetName)
		for a1, content := range sh.All() {
			col, row, valid := address.ParseA1(a1)
			if !valid {
				continue
			}
			c := address.Cell{Workbook: workbook, Sheet: sheetName, Col: col, Row: row}
			keys = append(keys, e.applyCellContent(c, content))
		}
	}
	e.recalcFrom(keys)
}

func (e *Engine) rebuildAll() {
	for _, name := range e.store.WorkbookNames() {
		e.rebuildWorkbook(name)
	}
}

// recalcAllFormulas re-evaluates every formula cell in workbook
// without reparsing: used when a name or table's existence changed
// but no stored formula text did, so a previously-unresolved
// reference needs a fresh look rather than a new parse.
func (e *Engine) recalcAllFormulas(workbook string) {
	wb, exists := e.store.Workbook(workbook)
	if !exists {
		return
	}
	var keys []string
	for _, sheetName := range wb.SheetNames() {
		sh, _ := wb.Sheet(sheetName)
		for a1, content := range sh.All() {
			if !content.IsFormula() {
				continue
			}
			col, row, valid := address.ParseA1(a1)
			if !valid {
				continue
			}
			c := address.Cell{Workbook: workbook, Sheet: sheetName, Col: col, Row: row}
			keys = append(keys, e.cellKey(c))
		}
	}
	e.recalcFrom(keys)
}
