package graph

import (
	"fmt"
	"sort"
)

// FrontierIndex tracks, per (workbook, sheet, column) and per
// (workbook, sheet, row), the rows/columns at which a formula cell
// exists -- the candidates whose spill could reach into an open-ended
// line (A:A, 1:1). This is a structural index, not a set of
// dependency edges: the evaluator looks a candidate's cell key up
// here, then adds that key as an ordinary graph dependency of the
// reading cell.
type FrontierIndex struct {
	byColumn map[string][]uint32 // "wb:sh:col" -> sorted rows with a formula
	byRow    map[string][]uint32 // "wb:sh:row" -> sorted cols with a formula

	colsBySheet map[string]map[uint32]struct{} // "wb:sh" -> columns with >=1 formula
	rowsBySheet map[string]map[uint32]struct{} // "wb:sh" -> rows with >=1 formula
}

func NewFrontierIndex() *FrontierIndex {
	return &FrontierIndex{
		byColumn:    map[string][]uint32{},
		byRow:       map[string][]uint32{},
		colsBySheet: map[string]map[uint32]struct{}{},
		rowsBySheet: map[string]map[uint32]struct{}{},
	}
}

func colKey(wb, sh string, col uint32) string { return fmt.Sprintf("%s:%s:%d", wb, sh, col) }
func rowKey(wb, sh string, row uint32) string { return fmt.Sprintf("%s:%s:%d", wb, sh, row) }
func sheetKey(wb, sh string) string           { return fmt.Sprintf("%s:%s", wb, sh) }

// MarkFormula records that (col,row) now holds a formula.
func (f *FrontierIndex) MarkFormula(wb, sh string, col, row uint32) {
	ck, rk := colKey(wb, sh, col), rowKey(wb, sh, row)
	hadCol := len(f.byColumn[ck]) > 0
	hadRow := len(f.byRow[rk]) > 0
	insertSortedUint32(f.byColumn, ck, row)
	insertSortedUint32(f.byRow, rk, col)
	if !hadCol {
		sk := sheetKey(wb, sh)
		if f.colsBySheet[sk] == nil {
			f.colsBySheet[sk] = map[uint32]struct{}{}
		}
		f.colsBySheet[sk][col] = struct{}{}
	}
	if !hadRow {
		sk := sheetKey(wb, sh)
		if f.rowsBySheet[sk] == nil {
			f.rowsBySheet[sk] = map[uint32]struct{}{}
		}
		f.rowsBySheet[sk][row] = struct{}{}
	}
}

// UnmarkFormula records that (col,row) no longer holds a formula.
func (f *FrontierIndex) UnmarkFormula(wb, sh string, col, row uint32) {
	ck, rk := colKey(wb, sh, col), rowKey(wb, sh, row)
	removeSortedUint32(f.byColumn, ck, row)
	removeSortedUint32(f.byRow, rk, col)
	if len(f.byColumn[ck]) == 0 {
		sk := sheetKey(wb, sh)
		if set := f.colsBySheet[sk]; set != nil {
			delete(set, col)
			if len(set) == 0 {
				delete(f.colsBySheet, sk)
			}
		}
	}
	if len(f.byRow[rk]) == 0 {
		sk := sheetKey(wb, sh)
		if set := f.rowsBySheet[sk]; set != nil {
			delete(set, row)
			if len(set) == 0 {
				delete(f.rowsBySheet, sk)
			}
		}
	}
}

// ColumnsWithFormula returns every column in (wb,sh) holding at least
// one formula cell, sorted ascending. Used when the caller's column
// span is unbounded (a row-open range like 1:1) and so cannot be
// iterated with ColumnsTouching.
func (f *FrontierIndex) ColumnsWithFormula(wb, sh string) []uint32 {
	return sortedKeys(f.colsBySheet[sheetKey(wb, sh)])
}

// RowsWithFormula returns every row in (wb,sh) holding at least one
// formula cell, sorted ascending. The row-span analogue of
// ColumnsWithFormula, for a column-open range like A:A.
func (f *FrontierIndex) RowsWithFormula(wb, sh string) []uint32 {
	return sortedKeys(f.rowsBySheet[sheetKey(wb, sh)])
}

func sortedKeys(set map[uint32]struct{}) []uint32 {
	out := make([]uint32, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NearestAbove returns the row of the nearest formula cell in column
// col at or above row (row itself included, so the origin cell can be
// found when it reads its own column).
func (f *FrontierIndex) NearestAbove(wb, sh string, col, row uint32) (uint32, bool) {
	rows := f.byColumn[colKey(wb, sh, col)]
	i := sort.Search(len(rows), func(i int) bool { return rows[i] > row })
	if i == 0 {
		return 0, false
	}
	return rows[i-1], true
}

// NearestLeft returns the column of the nearest formula cell in row
// row at or left of col (col itself included).
func (f *FrontierIndex) NearestLeft(wb, sh string, row, col uint32) (uint32, bool) {
	cols := f.byRow[rowKey(wb, sh, row)]
	i := sort.Search(len(cols), func(i int) bool { return cols[i] > col })
	if i == 0 {
		return 0, false
	}
	return cols[i-1], true
}

// ColumnsTouching returns every column index in sheet (wb,sh) that has
// at least one formula cell, restricted to [startCol,endCol].
func (f *FrontierIndex) ColumnsTouching(wb, sh string, startCol, endCol uint32) []uint32 {
	var out []uint32
	for col := startCol; col <= endCol; col++ {
		if len(f.byColumn[colKey(wb, sh, col)]) > 0 {
			out = append(out, col)
		}
		if col == ^uint32(0) {
			break // guard against overflow when endCol is the max value
		}
	}
	return out
}

// RowsTouching returns every row index in sheet (wb,sh) that has at
// least one formula cell, restricted to [startRow,endRow].
func (f *FrontierIndex) RowsTouching(wb, sh string, startRow, endRow uint32) []uint32 {
	var out []uint32
	for row := startRow; row <= endRow; row++ {
		if len(f.byRow[rowKey(wb, sh, row)]) > 0 {
			out = append(out, row)
		}
		if row == ^uint32(0) {
			break
		}
	}
	return out
}

func insertSortedUint32(m map[string][]uint32, key string, v uint32) {
	s := m[key]
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i < len(s) && s[i] == v {
		return
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	m[key] = s
}

func removeSortedUint32(m map[string][]uint32, key string, v uint32) {
	s := m[key]
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i >= len(s) || s[i] != v {
		return
	}
	s = append(s[:i], s[i+1:]...)
	if len(s) == 0 {
		delete(m, key)
		return
	}
	m[key] = s
}
