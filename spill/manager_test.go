package spill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridform/gridform/address"
)

func cell(col, row uint32) address.Cell {
	return address.Cell{Workbook: "Book1", Sheet: "Sheet1", Col: col, Row: row}
}

func noContent(address.Cell) bool { return false }

func TestApplyClaimsArea(t *testing.T) {
	m := New()
	origin := cell(0, 0)
	area := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 1, EndRow: 1, Bounded: true}

	upd := m.Apply(origin, area, noContent)

	require.False(t, upd.Collapsed)
	assert.ElementsMatch(t, []address.Cell{cell(1, 0), cell(0, 1), cell(1, 1)}, upd.Dirty)
}

func TestApplyCollapsesOnExistingContent(t *testing.T) {
	m := New()
	origin := cell(0, 0)
	area := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 1, EndRow: 0, Bounded: true}

	hasContent := func(c address.Cell) bool { return c == cell(1, 0) }
	upd := m.Apply(origin, area, hasContent)

	require.True(t, upd.Collapsed)
	assert.Equal(t, cell(1, 0), upd.BlockedBy)
	assert.Empty(t, upd.Dirty)
}

func TestApplyCollapsesWhenAnotherOriginOccupies(t *testing.T) {
	m := New()
	a := cell(0, 0)
	b := cell(0, 5)
	areaA := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 0, EndRow: 2, Bounded: true}
	areaB := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 2, EndCol: 0, EndRow: 3, Bounded: true}

	upd := m.Apply(a, areaA, noContent)
	require.False(t, upd.Collapsed)

	upd = m.Apply(b, areaB, noContent)
	require.True(t, upd.Collapsed)
	assert.Equal(t, cell(0, 2), upd.BlockedBy)
}

func TestReleaseFreesBlockedWaiterForReconsideration(t *testing.T) {
	m := New()
	a := cell(0, 0)
	b := cell(0, 5)
	areaA := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 0, EndRow: 2, Bounded: true}
	areaB := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 2, EndCol: 0, EndRow: 3, Bounded: true}

	m.Apply(a, areaA, noContent)
	upd := m.Apply(b, areaB, noContent)
	require.True(t, upd.Collapsed)

	upd = m.Release(a)
	assert.Contains(t, upd.Reconsider, b)
	assert.Contains(t, upd.Dirty, cell(0, 1))
	assert.Contains(t, upd.Dirty, cell(0, 2))
}

func TestApplyShrinkingAreaReleasesVacatedCells(t *testing.T) {
	m := New()
	origin := cell(0, 0)
	big := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 0, EndRow: 3, Bounded: true}
	small := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 0, EndRow: 1, Bounded: true}

	m.Apply(origin, big, noContent)
	upd := m.Apply(origin, small, noContent)

	assert.ElementsMatch(t, []address.Cell{cell(0, 2), cell(0, 3)}, upd.Dirty)
	assert.False(t, upd.Collapsed)
}

func TestReleaseOnUnboundedAreaIsANoop(t *testing.T) {
	m := New()
	origin := cell(0, 0)
	area := Area{Workbook: "Book1", Sheet: "Sheet1", Bounded: false}

	upd := m.Apply(origin, area, noContent)
	assert.False(t, upd.Collapsed)
	assert.Empty(t, upd.Dirty)

	upd = m.Release(origin)
	assert.Empty(t, upd.Dirty)
}

func TestApplyIdempotentOnSameAreaProducesNoDirtyCells(t *testing.T) {
	m := New()
	origin := cell(0, 0)
	area := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 1, EndRow: 1, Bounded: true}

	m.Apply(origin, area, noContent)
	upd := m.Apply(origin, area, noContent)

	assert.Empty(t, upd.Dirty)
	assert.Empty(t, upd.Reconsider)
}

func TestCellsOfReportsOccupiedCellsExcludingOrigin(t *testing.T) {
	m := New()
	origin := cell(0, 0)
	area := Area{Workbook: "Book1", Sheet: "Sheet1", StartCol: 0, StartRow: 0, EndCol: 1, EndRow: 1, Bounded: true}

	m.Apply(origin, area, noContent)

	assert.ElementsMatch(t, []address.Cell{cell(1, 0), cell(0, 1), cell(1, 1)}, m.CellsOf(origin))
	assert.Empty(t, m.CellsOf(cell(5, 5)))
}
