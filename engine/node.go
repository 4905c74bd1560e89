package engine

import (
	"strings"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/eval"
)

// node is the engine's private bookkeeping for one evaluated cell: its
// parsed formula (nil for a literal), its last evaluation result, and
// whether that result is known to be stale.
type node struct {
	formula     ast.Expression
	parseFailed bool
	result      eval.EvalResult
	hasResult   bool
	dirty       bool
}

func (e *Engine) nodeAt(key string) *node {
	n, ok := e.nodes[key]
	if !ok {
		n = &node{}
		e.nodes[key] = n
	}
	return n
}

// markDirty marks start and every transitive dependent of start dirty.
// Only cell keys get a node entry -- range/name/tableCol keys are pure
// graph-index nodes with no evaluated result of their own.
func (e *Engine) markDirty(start string) {
	if strings.HasPrefix(start, "cell:") {
		e.nodeAt(start).dirty = true
	}
	for key := range e.graph.TransitiveDependents(start) {
		if strings.HasPrefix(key, "cell:") {
			e.nodeAt(key).dirty = true
		}
	}
}

// forgetCell drops a cell's cached node entirely, used when its
// content is cleared and nothing else references its key.
func (e *Engine) forgetCell(c address.Cell) {
	delete(e.nodes, e.cellKey(c))
}
