package store

// Workbook owns an ordered sequence of sheets plus the named
// expressions and tables scoped to it.
type Workbook struct {
	Name string

	sheetOrder []string
	sheets     map[string]*Sheet

	named  map[string]*NamedExpression // key: namedExpressionKey(scope, name)
	tables map[string]*Table
}

func newWorkbook(name string) *Workbook {
	return &Workbook{
		Name:   name,
		sheets: make(map[string]*Sheet),
		named:  make(map[string]*NamedExpression),
		tables: make(map[string]*Table),
	}
}

// AddSheet appends a new empty sheet. Returns false if a sheet by
// that name already exists (sheet names are unique within a workbook).
func (w *Workbook) AddSheet(name string) bool {
	if _, exists := w.sheets[name]; exists {
		return false
	}
	w.sheets[name] = newSheet(name)
	w.sheetOrder = append(w.sheetOrder, name)
	return true
}

// RemoveSheet deletes a sheet and every table rooted on it.
func (w *Workbook) RemoveSheet(name string) bool {
	if _, exists := w.sheets[name]; !exists {
		return false
	}
	delete(w.sheets, name)
	for i, n := range w.sheetOrder {
		if n == name {
			w.sheetOrder = append(w.sheetOrder[:i], w.sheetOrder[i+1:]...)
			break
		}
	}
	for key, t := range w.tables {
		if t.Sheet == name {
			delete(w.tables, key)
		}
	}
	for key, n := range w.named {
		if n.Scope.Sheet == name && !n.Scope.Global {
			delete(w.named, key)
		}
	}
	return true
}

// RenameSheet renames a sheet in place, preserving its position and
// content, and rewrites every sheet-scoped named expression's scope
// and every stored formula's sheet qualifiers.
func (w *Workbook) RenameSheet(oldName, newName string) bool {
	sheet, exists := w.sheets[oldName]
	if !exists || oldName == newName {
		return false
	}
	if _, taken := w.sheets[newName]; taken {
		return false
	}
	sheet.Name = newName
	delete(w.sheets, oldName)
	w.sheets[newName] = sheet
	for i, n := range w.sheetOrder {
		if n == oldName {
			w.sheetOrder[i] = newName
			break
		}
	}

	for _, sh := range w.sheets {
		for a1, content := range sh.All() {
			if content.IsFormula() {
				rewritten := RewriteSheetQualifier(content.Text, oldName, newName)
				if rewritten != content.Text {
					sh.SetCell(a1, TextContent(rewritten))
				}
			}
		}
	}

	for key, n := range w.named {
		if n.Expression.IsFormula() {
			n.Expression = TextContent(RewriteSheetQualifier(n.Expression.Text, oldName, newName))
		}
		if !n.Scope.Global && n.Scope.Sheet == oldName {
			n.Scope.Sheet = newName
			newKey := namedExpressionKey(n.Scope, n.Name)
			delete(w.named, key)
			w.named[newKey] = n
		}
	}

	for _, t := range w.tables {
		if t.Sheet == oldName {
			t.Sheet = newName
		}
	}
	return true
}

// Sheet returns the named sheet, if any.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.sheets[name]
	return s, ok
}

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.sheetOrder))
	copy(out, w.sheetOrder)
	return out
}
