// Package graph is the dependency graph: forward/reverse adjacency
// between dependency-graph node keys, a range-membership index for
// bounded ranges, and an open-range frontier index. Node identity is a plain
// string key (cell:wb:sh:c:r, range:..., name:..., tableCol:...) so
// the graph itself stays agnostic to what store/eval actually put
// behind each key -- dependency/dependent lists are plain string-key
// slices rather than pointers, generalized here to several node kinds
// instead of one.
package graph

import (
	"fmt"

	"github.com/gridform/gridform/address"
)

// CellKey returns the dependency-graph key for a single cell.
func CellKey(c address.Cell) string { return c.String() }

// RangeKey returns the dependency-graph key for a range node.
func RangeKey(r address.Range) string { return r.Key() }

// NameKey returns the dependency-graph key for a named expression.
// scopeLabel is "global" or "sheet:<SheetName>".
func NameKey(scopeLabel, name string) string {
	return fmt.Sprintf("name:%s:%s", scopeLabel, name)
}

// TableColKey returns the dependency-graph key for one column of a
// structured reference.
func TableColKey(workbook, table, column string) string {
	return fmt.Sprintf("tableCol:%s:%s:%s", workbook, table, column)
}
