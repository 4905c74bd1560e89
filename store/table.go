package store

import "github.com/gridform/gridform/address"

// Table is a structured-reference-addressable region: a header row
// followed by a data body, both spanning the same columns.
type Table struct {
	Name        string
	Workbook    string
	Sheet       string
	TopLeftCol  uint32
	TopLeftRow  uint32
	EndRow      address.End // Infinite means "grows with the sheet"
	Headers     []string    // ordered, header row left-to-right
	headerIndex map[string]int
}

// NewTable constructs a Table and indexes its headers.
func NewTable(name, workbook, sheet string, topLeftCol, topLeftRow uint32, endRow address.End, headers []string) *Table {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return &Table{
		Name: name, Workbook: workbook, Sheet: sheet,
		TopLeftCol: topLeftCol, TopLeftRow: topLeftRow,
		EndRow: endRow, Headers: headers, headerIndex: idx,
	}
}

// ColumnIndex returns the 0-based offset of a header within the
// table's column span.
func (t *Table) ColumnIndex(header string) (int, bool) {
	i, ok := t.headerIndex[header]
	return i, ok
}

// ColumnAddress returns the absolute column for a header.
func (t *Table) ColumnAddress(header string) (uint32, bool) {
	i, ok := t.headerIndex[header]
	if !ok {
		return 0, false
	}
	return t.TopLeftCol + uint32(i), true
}

// DataRowRange returns the first and (if bounded) last data row,
// i.e. excluding the header row at TopLeftRow.
func (t *Table) DataRowRange() (start uint32, end address.End) {
	start = t.TopLeftRow + 1
	return start, t.EndRow
}

// ContainsRow reports whether row falls within the table's data body
// (excludes the header row).
func (t *Table) ContainsRow(row uint32) bool {
	start, end := t.DataRowRange()
	if row < start {
		return false
	}
	return end.Infinite || row <= end.Finite
}

// AddTable registers a new table. Returns false if the name is taken.
func (w *Workbook) AddTable(t *Table) bool {
	if _, exists := w.tables[t.Name]; exists {
		return false
	}
	w.tables[t.Name] = t
	return true
}

// RemoveTable deletes a table.
func (w *Workbook) RemoveTable(name string) bool {
	if _, exists := w.tables[name]; !exists {
		return false
	}
	delete(w.tables, name)
	return true
}

// RenameTable renames a table and rewrites every stored formula's
// structured references to it.
func (w *Workbook) RenameTable(oldName, newName string) bool {
	t, exists := w.tables[oldName]
	if !exists || oldName == newName {
		return false
	}
	if _, taken := w.tables[newName]; taken {
		return false
	}
	t.Name = newName
	delete(w.tables, oldName)
	w.tables[newName] = t

	for _, sh := range w.sheets {
		for a1, content := range sh.All() {
			if content.IsFormula() {
				rewritten := RewriteTableName(content.Text, oldName, newName)
				if rewritten != content.Text {
					sh.SetCell(a1, TextContent(rewritten))
				}
			}
		}
	}
	for _, n := range w.named {
		if n.Expression.IsFormula() {
			n.Expression = TextContent(RewriteTableName(n.Expression.Text, oldName, newName))
		}
	}
	return true
}

// Table returns the named table, if any.
func (w *Workbook) Table(name string) (*Table, bool) {
	t, ok := w.tables[name]
	return t, ok
}

// Tables returns every table in the workbook.
func (w *Workbook) Tables() []*Table {
	out := make([]*Table, 0, len(w.tables))
	for _, t := range w.tables {
		out = append(out, t)
	}
	return out
}
