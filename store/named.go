package store

// Scope identifies where a named expression is visible: either the
// whole workbook (Global) or a single sheet.
type Scope struct {
	Global bool
	Sheet  string // meaningful only when !Global
}

// NamedExpression binds a name to a raw expression, resolved within
// its Scope. A global and a sheet-scoped name of the same text may
// coexist -- sheet scope wins when referenced from that sheet.
type NamedExpression struct {
	Name       string
	Scope      Scope
	Expression RawContent
}

func namedExpressionKey(scope Scope, name string) string {
	if scope.Global {
		return "global:" + name
	}
	return "sheet:" + scope.Sheet + ":" + name
}

// AddNamedExpression registers a new named expression. Returns false
// if one already exists in the same scope with the same name.
func (w *Workbook) AddNamedExpression(name string, scope Scope, expr RawContent) bool {
	key := namedExpressionKey(scope, name)
	if _, exists := w.named[key]; exists {
		return false
	}
	w.named[key] = &NamedExpression{Name: name, Scope: scope, Expression: expr}
	return true
}

// UpdateNamedExpression replaces the expression of an existing named
// expression in place.
func (w *Workbook) UpdateNamedExpression(name string, scope Scope, expr RawContent) bool {
	key := namedExpressionKey(scope, name)
	n, exists := w.named[key]
	if !exists {
		return false
	}
	n.Expression = expr
	return true
}

// RemoveNamedExpression deletes a named expression.
func (w *Workbook) RemoveNamedExpression(name string, scope Scope) bool {
	key := namedExpressionKey(scope, name)
	if _, exists := w.named[key]; !exists {
		return false
	}
	delete(w.named, key)
	return true
}

// ResolveNamedExpression looks up name as seen from currentSheet:
// sheet scope first, then global, per the scope-wins rule.
func (w *Workbook) ResolveNamedExpression(name, currentSheet string) (*NamedExpression, bool) {
	if n, ok := w.named[namedExpressionKey(Scope{Sheet: currentSheet}, name)]; ok {
		return n, true
	}
	if n, ok := w.named[namedExpressionKey(Scope{Global: true}, name)]; ok {
		return n, true
	}
	return nil, false
}

// NamedExpressions returns every named expression in the workbook.
func (w *Workbook) NamedExpressions() []*NamedExpression {
	out := make([]*NamedExpression, 0, len(w.named))
	for _, n := range w.named {
		out = append(out, n)
	}
	return out
}
