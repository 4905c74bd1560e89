package eval

import (
	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/store"
)

// Host is implemented by the owning engine. It is the evaluator's only
// window onto the rest of the system -- raw content, other cells'
// evaluated results, named expressions, tables, and the open-range
// frontier -- kept as an interface so this package never imports
// engine (which imports this package).
type Host interface {
	// Resolve returns the evaluated result of c, computing it on demand
	// if the engine has not already cached a fresh value for it. The
	// engine guards against cycles around this call; Eval only pushes
	// entries onto its own Context's stack and never pops them.
	Resolve(c address.Cell) EvalResult

	// RawContent returns the literal content stored at c.
	RawContent(c address.Cell) (store.RawContent, bool)

	// SheetExists reports whether (workbook, sheet) is a live sheet.
	SheetExists(workbook, sheet string) bool

	// SheetNames returns workbook's sheet names in workbook order, used
	// to resolve a 3-D range's FirstSheet:LastSheet span.
	SheetNames(workbook string) []string

	// ResolveName looks up a named expression visible from
	// (currentWorkbook, currentSheet), honoring sheet-scope-wins.
	ResolveName(currentWorkbook, currentSheet, name string) (*store.NamedExpression, bool)

	// ResolveTable looks up a table by name within currentWorkbook.
	ResolveTable(currentWorkbook, name string) (*store.Table, bool)

	// DefinedCells enumerates every cell with non-empty raw content
	// inside the bounded portion of r, in row-major order.
	DefinedCells(r address.Range) []address.Cell

	// FrontierCandidates enumerates the nearest formula cell above each
	// column of r and to the left of each row of r, the seed set for
	// open-range materialization.
	FrontierCandidates(r address.Range) []address.Cell

	// Functions returns the registry used to dispatch Call nodes.
	Functions() FunctionRegistry
}

// Context carries per-evaluation state: where we are, what we depend
// on so far, and the cycle-detection stack.
type Context struct {
	Host Host

	Workbook string
	Sheet    string
	Cell     address.Cell // the cell (or name) currently being evaluated

	// Stack holds the dependency-graph keys of every node currently
	// being evaluated, innermost last; OnStack checks it to detect a
	// self-reference.
	Stack []string

	// Dependencies/FrontierDependencies accumulate the keys this
	// evaluation actually touched, for the engine to write back as the
	// node's new precedent set.
	Dependencies         map[string]struct{}
	FrontierDependencies map[string]struct{}
}

// NewContext builds a fresh per-cell evaluation context.
func NewContext(host Host, workbook, sheet string, cell address.Cell) *Context {
	return &Context{
		Host:                 host,
		Workbook:             workbook,
		Sheet:                sheet,
		Cell:                 cell,
		Dependencies:         map[string]struct{}{},
		FrontierDependencies: map[string]struct{}{},
	}
}

// AddDependency records key as a precedent touched by this evaluation.
func (c *Context) AddDependency(key string) { c.Dependencies[key] = struct{}{} }

// AddFrontierDependency records key as a frontier precedent.
func (c *Context) AddFrontierDependency(key string) { c.FrontierDependencies[key] = struct{}{} }

// OnStack reports whether key is already being evaluated on this call
// stack, i.e. a direct self-reference cycle.
func (c *Context) OnStack(key string) bool {
	for _, k := range c.Stack {
		if k == key {
			return true
		}
	}
	return false
}

// Push extends the evaluation stack before a nested Resolve call that
// re-enters Eval for a precedent (used by named-expression evaluation,
// which -- unlike ordinary cell Resolve -- runs inline rather than
// through the engine's memoized Resolve). The nested Context is always
// a throwaway copy from WithCell, so there is no matching Pop: the
// extended stack dies with it.
func (c *Context) Push(key string) { c.Stack = append(c.Stack, key) }

// WithCell returns a copy of c positioned at a different current cell,
// sharing Host but starting fresh dependency sets (used when Eval
// descends into a named expression's own formula text).
func (c *Context) WithCell(workbook, sheet string, cell address.Cell) *Context {
	return &Context{
		Host:                 c.Host,
		Workbook:             workbook,
		Sheet:                sheet,
		Cell:                 cell,
		Stack:                append([]string{}, c.Stack...),
		Dependencies:         map[string]struct{}{},
		FrontierDependencies: map[string]struct{}{},
	}
}
