package graph

import "github.com/gridform/gridform/address"

// Graph holds directed dependency edges (dependent -> precedent) plus
// two secondary indexes: range membership (for bounded ranges) and
// an open-range frontier (for unbounded ones, see frontier.go).
type Graph struct {
	forward map[string]map[string]struct{} // dependent -> precedents
	reverse map[string]map[string]struct{} // precedent -> dependents

	membership map[string]map[string]struct{} // cell key -> range keys covering it

	Frontier *FrontierIndex
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		forward:    make(map[string]map[string]struct{}),
		reverse:    make(map[string]map[string]struct{}),
		membership: make(map[string]map[string]struct{}),
		Frontier:   NewFrontierIndex(),
	}
}

// SetDependencies replaces node's full set of precedents, per §4.7's
// "each node first clears its old dependency set from the graph, then
// evaluates; the evaluator writes the freshly observed dependency keys
// back."
func (g *Graph) SetDependencies(node string, precedents []string) {
	g.clearForward(node)
	set := make(map[string]struct{}, len(precedents))
	for _, p := range precedents {
		set[p] = struct{}{}
		if g.reverse[p] == nil {
			g.reverse[p] = make(map[string]struct{})
		}
		g.reverse[p][node] = struct{}{}
	}
	if len(set) > 0 {
		g.forward[node] = set
	}
}

func (g *Graph) clearForward(node string) {
	old, ok := g.forward[node]
	if !ok {
		return
	}
	for p := range old {
		if deps, ok := g.reverse[p]; ok {
			delete(deps, node)
			if len(deps) == 0 {
				delete(g.reverse, p)
			}
		}
	}
	delete(g.forward, node)
}

// RemoveNode drops every edge touching node, in either direction.
func (g *Graph) RemoveNode(node string) {
	g.clearForward(node)
	if deps, ok := g.reverse[node]; ok {
		for d := range deps {
			if precs, ok := g.forward[d]; ok {
				delete(precs, node)
			}
		}
		delete(g.reverse, node)
	}
}

// Precedents returns node's direct precedents (what it depends on).
func (g *Graph) Precedents(node string) []string {
	return keysOf(g.forward[node])
}

// Dependents returns node's direct dependents (what depends on it).
func (g *Graph) Dependents(node string) []string {
	return keysOf(g.reverse[node])
}

// TransitiveDependents returns every node reachable by following
// reverse edges from start (start itself excluded), used to compute
// the dirty closure after an edit.
func (g *Graph) TransitiveDependents(start string) map[string]bool {
	seen := map[string]bool{}
	var stack []string
	stack = append(stack, start)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for d := range g.reverse[n] {
			if !seen[d] {
				seen[d] = true
				stack = append(stack, d)
			}
		}
	}
	return seen
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// IndexRange registers rangeKey as covering every cell in the bounded
// range r. Unbounded axes are not indexed here -- see Frontier.
func (g *Graph) IndexRange(rangeKey string, r address.Range) {
	if !r.IsBounded() {
		return
	}
	for col := r.StartCol; col <= r.EndCol.Finite; col++ {
		for row := r.StartRow; row <= r.EndRow.Finite; row++ {
			ck := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row}.String()
			if g.membership[ck] == nil {
				g.membership[ck] = make(map[string]struct{})
			}
			g.membership[ck][rangeKey] = struct{}{}
		}
	}
}

// UnindexRange removes rangeKey's membership entries for r.
func (g *Graph) UnindexRange(rangeKey string, r address.Range) {
	if !r.IsBounded() {
		return
	}
	for col := r.StartCol; col <= r.EndCol.Finite; col++ {
		for row := r.StartRow; row <= r.EndRow.Finite; row++ {
			ck := address.Cell{Workbook: r.Workbook, Sheet: r.Sheet, Col: col, Row: row}.String()
			if m, ok := g.membership[ck]; ok {
				delete(m, rangeKey)
				if len(m) == 0 {
					delete(g.membership, ck)
				}
			}
		}
	}
}

// RangesCovering returns every indexed range node whose bounded region
// covers cellKey.
func (g *Graph) RangesCovering(cellKey string) []string {
	return keysOf(g.membership[cellKey])
}
