package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridform/gridform/address"
)

func TestSetDependenciesRegistersReverseEdges(t *testing.T) {
	g := New()
	g.SetDependencies("cell:B1", []string{"cell:A1"})

	assert.ElementsMatch(t, []string{"cell:A1"}, g.Precedents("cell:B1"))
	assert.ElementsMatch(t, []string{"cell:B1"}, g.Dependents("cell:A1"))
}

func TestSetDependenciesReplacesPriorSet(t *testing.T) {
	g := New()
	g.SetDependencies("cell:C1", []string{"cell:A1"})
	g.SetDependencies("cell:C1", []string{"cell:B1"})

	assert.ElementsMatch(t, []string{"cell:B1"}, g.Precedents("cell:C1"))
	assert.Empty(t, g.Dependents("cell:A1"))
	assert.ElementsMatch(t, []string{"cell:C1"}, g.Dependents("cell:B1"))
}

func TestTransitiveDependentsFollowsChain(t *testing.T) {
	g := New()
	g.SetDependencies("cell:B1", []string{"cell:A1"})
	g.SetDependencies("cell:C1", []string{"cell:B1"})
	g.SetDependencies("cell:D1", []string{"cell:C1"})

	got := g.TransitiveDependents("cell:A1")

	assert.True(t, got["cell:B1"])
	assert.True(t, got["cell:C1"])
	assert.True(t, got["cell:D1"])
	assert.False(t, got["cell:A1"])
}

func TestTransitiveDependentsStopsAtDiamondWithoutDuplication(t *testing.T) {
	g := New()
	// A1 feeds both B1 and C1, which both feed D1.
	g.SetDependencies("cell:B1", []string{"cell:A1"})
	g.SetDependencies("cell:C1", []string{"cell:A1"})
	g.SetDependencies("cell:D1", []string{"cell:B1", "cell:C1"})

	got := g.TransitiveDependents("cell:A1")

	assert.Len(t, got, 3)
	assert.True(t, got["cell:D1"])
}

func TestRemoveNodeDropsBothDirections(t *testing.T) {
	g := New()
	g.SetDependencies("cell:B1", []string{"cell:A1"})
	g.SetDependencies("cell:C1", []string{"cell:B1"})

	g.RemoveNode("cell:B1")

	assert.Empty(t, g.Dependents("cell:A1"))
	assert.Empty(t, g.Precedents("cell:C1"))
}

func TestIndexRangeCoversEveryCellInBoundedRange(t *testing.T) {
	g := New()
	r := address.Range{
		Workbook: "Book1", Sheet: "Sheet1",
		StartCol: 0, StartRow: 0,
		EndCol: address.FiniteEnd(1), EndRow: address.FiniteEnd(1),
	}
	g.IndexRange("range:Book1:Sheet1:0:0:1:1", r)

	c := address.Cell{Workbook: "Book1", Sheet: "Sheet1", Col: 1, Row: 1}
	assert.Contains(t, g.RangesCovering(c.String()), "range:Book1:Sheet1:0:0:1:1")
}

func TestIndexRangeIgnoresUnboundedRange(t *testing.T) {
	g := New()
	r := address.Range{
		Workbook: "Book1", Sheet: "Sheet1",
		StartCol: 0, StartRow: 0,
		EndCol: address.InfiniteEnd, EndRow: address.FiniteEnd(1),
	}
	g.IndexRange("range:open", r)

	c := address.Cell{Workbook: "Book1", Sheet: "Sheet1", Col: 0, Row: 0}
	assert.Empty(t, g.RangesCovering(c.String()))
}

func TestUnindexRangeRemovesMembership(t *testing.T) {
	g := New()
	r := address.Range{
		Workbook: "Book1", Sheet: "Sheet1",
		StartCol: 0, StartRow: 0,
		EndCol: address.FiniteEnd(0), EndRow: address.FiniteEnd(0),
	}
	g.IndexRange("range:a", r)
	g.UnindexRange("range:a", r)

	c := address.Cell{Workbook: "Book1", Sheet: "Sheet1", Col: 0, Row: 0}
	assert.Empty(t, g.RangesCovering(c.String()))
}

func TestFrontierColumnsWithFormulaTracksAllFormulaColumns(t *testing.T) {
	f := NewFrontierIndex()
	f.MarkFormula("Book1", "Sheet1", 0, 3)
	f.MarkFormula("Book1", "Sheet1", 5, 1)

	assert.ElementsMatch(t, []uint32{0, 5}, f.ColumnsWithFormula("Book1", "Sheet1"))
}

func TestFrontierUnmarkFormulaRetiresEmptyColumn(t *testing.T) {
	f := NewFrontierIndex()
	f.MarkFormula("Book1", "Sheet1", 2, 0)
	f.UnmarkFormula("Book1", "Sheet1", 2, 0)

	assert.Empty(t, f.ColumnsWithFormula("Book1", "Sheet1"))
	assert.Empty(t, f.RowsWithFormula("Book1", "Sheet1"))
}

func TestFrontierRowsWithFormulaSurvivesUnrelatedColumnRemoval(t *testing.T) {
	f := NewFrontierIndex()
	f.MarkFormula("Book1", "Sheet1", 0, 1)
	f.MarkFormula("Book1", "Sheet1", 3, 1)
	f.UnmarkFormula("Book1", "Sheet1", 0, 1)

	assert.ElementsMatch(t, []uint32{1}, f.RowsWithFormula("Book1", "Sheet1"))
}

func TestFrontierNearestAboveFindsClosestFormulaAtOrAboveRow(t *testing.T) {
	f := NewFrontierIndex()
	f.MarkFormula("Book1", "Sheet1", 0, 2)
	f.MarkFormula("Book1", "Sheet1", 0, 7)

	row, ok := f.NearestAbove("Book1", "Sheet1", 0, 7)
	assert.True(t, ok)
	assert.Equal(t, uint32(7), row)

	_, ok = f.NearestAbove("Book1", "Sheet1", 0, 1)
	assert.False(t, ok)
}

func TestFrontierColumnsTouchingRestrictsToSpan(t *testing.T) {
	f := NewFrontierIndex()
	f.MarkFormula("Book1", "Sheet1", 1, 0)
	f.MarkFormula("Book1", "Sheet1", 9, 0)

	assert.ElementsMatch(t, []uint32{1}, f.ColumnsTouching("Book1", "Sheet1", 0, 5))
}
