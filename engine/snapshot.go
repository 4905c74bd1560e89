package engine

import (
	"strconv"
	"strings"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/store"
)

// Snapshot is the engine's raw content, as a plain nested map:
// workbook name -> sheet name -> A1 address -> serialized content.
// It round-trips through Export/Import without needing a UI or
// persistence layer, which is what the round-trip invariants in the
// test suite exercise it for.
type Snapshot map[string]map[string]map[string]string

// Export returns a snapshot of every workbook's raw (unevaluated)
// content.
func (e *Engine) Export() Snapshot {
	out := make(Snapshot)
	for _, wbName := range e.store.WorkbookNames() {
		wb, _ := e.store.Workbook(wbName)
		sheets := make(map[string]map[string]string)
		for _, sheetName := range wb.SheetNames() {
			sh, _ := wb.Sheet(sheetName)
			cells := make(map[string]string)
			for a1, content := range sh.All() {
				cells[a1] = content.Serialized()
			}
			sheets[sheetName] = cells
		}
		out[wbName] = sheets
	}
	return out
}

// Import replaces the engine's entire state with snap: every existing
// workbook is removed, then snap's workbooks, sheets, and cells are
// recreated and the whole store is evaluated once. Serialized content
// is reparsed the same way a user's literal keystrokes would be: a
// leading '=' is a formula, "TRUE"/"FALSE" a boolean, a number a
// number, anything else text.
func (e *Engine) Import(snap Snapshot) {
	e.runBatch(func() {
		for _, wbName := range e.store.WorkbookNames() {
			wb, _ := e.store.Workbook(wbName)
			for _, sheetName := range wb.SheetNames() {
				e.teardownSheetCells(wbName, sheetName)
				e.spillMgr.RemoveSheet(wbName, sheetName)
			}
			e.store.RemoveWorkbook(wbName)
		}

		var keys []string
		for wbName, sheets := range snap {
			e.store.AddWorkbook(wbName)
			wb, _ := e.store.Workbook(wbName)
			for sheetName, cells := range sheets {
				wb.AddSheet(sheetName)
				for a1, serialized := range cells {
					col, row, valid := address.ParseA1(a1)
					if !valid {
						continue
					}
					c := address.Cell{Workbook: wbName, Sheet: sheetName, Col: col, Row: row}
					keys = append(keys, e.applyCellContent(c, ParseLiteralContent(serialized)))
				}
			}
		}
		e.recalcFrom(keys)
	})
}

// ParseLiteralContent classifies a serialized cell value the way
// typed keystrokes are classified: '=' starts a formula, "TRUE"/
// "FALSE" are booleans, a parseable number is a number, everything
// else is text. Exported so other packages accepting raw client text
// (wsbridge, the REPL) classify it the same way Import does.
func ParseLiteralContent(serialized string) store.RawContent {
	if serialized == "" {
		return store.EmptyContent
	}
	if strings.HasPrefix(serialized, "=") {
		return store.TextContent(serialized)
	}
	switch serialized {
	case "TRUE":
		return store.BooleanContent(true)
	case "FALSE":
		return store.BooleanContent(false)
	}
	if f, err := strconv.ParseFloat(serialized, 64); err == nil {
		return store.NumberContent(f)
	}
	return store.TextContent(serialized)
}
