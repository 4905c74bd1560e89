package engine

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/eval"
	"github.com/gridform/gridform/spill"
	"github.com/gridform/gridform/store"
	"github.com/gridform/gridform/value"
)

// evaluate recomputes c from scratch: parses were already done by
// applyCellContent, so this runs the cached AST (or returns the cached
// parse error, or the literal value), records the dependencies the run
// touched, reconciles c's spill occupancy against the new result, and
// updates c's node cache. Callers that want the Spill Manager redirect
// go through Resolve instead; evaluate is its uncached fallback.
func (e *Engine) evaluate(c address.Cell) eval.EvalResult {
	key := e.cellKey(c)
	n := e.nodeAt(key)

	e.resolving[key] = true
	var result eval.EvalResult
	var ctx *eval.Context

	content, has := e.RawContent(c)
	switch {
	case !has:
		result = eval.Val(value.TheEmpty)
	case n.parseFailed:
		result = eval.Err(value.ErrValue)
	case n.formula != nil:
		ctx = eval.NewContext(e, c.Workbook, c.Sheet, c)
		result = eval.Eval(n.formula, ctx)
	default:
		result = eval.Val(literalValue(content))
	}
	delete(e.resolving, key)

	if ctx != nil {
		deps := make([]string, 0, len(ctx.Dependencies)+len(ctx.FrontierDependencies))
		for k := range ctx.Dependencies {
			deps = append(deps, k)
		}
		for k := range ctx.FrontierDependencies {
			deps = append(deps, k)
		}
		e.graph.SetDependencies(key, deps)
	} else {
		e.graph.SetDependencies(key, nil)
	}

	update := e.applySpill(c, result)
	for _, rc := range update.Dirty {
		e.markDirty(e.cellKey(rc))
	}
	for _, rc := range update.Reconsider {
		e.markDirty(e.cellKey(rc))
	}
	if update.Collapsed {
		result = eval.Err(value.ErrSpill)
	}

	n.result = result
	n.hasResult = true
	n.dirty = false
	return result
}

// applySpill reconciles c's occupancy in the Spill Manager against its
// freshly computed result: a KindSpilled result claims its area, any
// other kind releases whatever c previously held.
func (e *Engine) applySpill(c address.Cell, result eval.EvalResult) spill.Update {
	hasContent := func(cell address.Cell) bool {
		content, has := e.RawContent(cell)
		return has && !content.IsEmpty()
	}
	if result.Kind != eval.KindSpilled {
		return e.spillMgr.Release(c)
	}
	r := result.Spill.Area()
	area := spill.Area{Workbook: r.Workbook, Sheet: r.Sheet, StartCol: r.StartCol, StartRow: r.StartRow}
	if r.IsBounded() {
		area.Bounded = true
		area.EndCol = r.EndCol.Finite
		area.EndRow = r.EndRow.Finite
	}
	return e.spillMgr.Apply(c, area, hasContent)
}

// literalValue converts a non-formula cell's raw content to the value
// it evaluates to.
func literalValue(c store.RawContent) value.Value {
	switch c.Kind {
	case store.ContentNumber:
		return value.Number{V: c.Number}
	case store.ContentBoolean:
		return value.Boolean{V: c.Boolean}
	case store.ContentText:
		return value.String{V: c.Text}
	default:
		return value.TheEmpty
	}
}

// serialize returns a result's visible serialized form, the text
// getCellValue/getSheetSerialized show for it.
func serialize(r eval.EvalResult) string {
	return r.ToValue().Serialized()
}
