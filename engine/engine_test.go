package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/events"
	"github.com/gridform/gridform/store"
)

const (
	wb = "Book1"
	sh = "Sheet1"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	require.True(t, e.AddWorkbook(wb))
	require.True(t, e.AddSheet(wb, sh))
	return e
}

func setA1(t *testing.T, e *Engine, a1, content string) {
	t.Helper()
	col, row, ok := address.ParseA1(a1)
	require.True(t, ok, "invalid A1 reference %q", a1)
	require.True(t, e.SetCellContent(wb, sh, col, row, ParseLiteralContent(content)))
}

func getA1(t *testing.T, e *Engine, a1 string) string {
	t.Helper()
	col, row, ok := address.ParseA1(a1)
	require.True(t, ok)
	v, ok := e.GetCellValue(wb, sh, col, row)
	require.True(t, ok)
	return v
}

// Scenario 1: Dependent update.
func TestDependentUpdateRecomputesOnlyTheDependentChain(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "10")
	setA1(t, e, "B1", "20")
	setA1(t, e, "C1", "=A1+B1")
	assert.Equal(t, "30", getA1(t, e, "C1"))

	var changed []events.CellChangedPayload
	e.On(events.CellChanged, func(ev events.Event) {
		changed = append(changed, ev.Data.(events.CellChangedPayload))
	})

	setA1(t, e, "A1", "100")

	assert.Equal(t, "120", getA1(t, e, "C1"))
	require.Len(t, changed, 1)
	assert.Equal(t, "C1", address.FormatA1(changed[0].Col, changed[0].Row))
	assert.Equal(t, "30", changed[0].OldValue)
	assert.Equal(t, "120", changed[0].NewValue)
}

// Scenario 2: Division semantics.
func TestDivisionSemantics(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "=1/0")
	setA1(t, e, "A2", "=-1/0")
	setA1(t, e, "A3", "=A1+A2")
	setA1(t, e, "A4", "=0/0")

	assert.Equal(t, "INFINITY", getA1(t, e, "A1"))
	assert.Equal(t, "-INFINITY", getA1(t, e, "A2"))
	assert.Equal(t, "INFINITY", getA1(t, e, "A3"))
	assert.Equal(t, "#NUM!", getA1(t, e, "A4"))
}

// Scenario 3: Cycle detection.
func TestCycleDetectionAndRecovery(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "=B1+1")
	setA1(t, e, "B1", "=A1+1")

	assert.Equal(t, "#CYCLE!", getA1(t, e, "A1"))
	assert.Equal(t, "#CYCLE!", getA1(t, e, "B1"))

	setA1(t, e, "A1", "5")

	assert.Equal(t, "5", getA1(t, e, "A1"))
	assert.Equal(t, "6", getA1(t, e, "B1"))
}

// Scenario 4: Open-range SUM with frontier.
func TestOpenRangeSumTracksSpillFrontier(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "=SEQUENCE(3,1,10,5)")
	setA1(t, e, "B1", "=SUM(A:A)")

	assert.Equal(t, "45", getA1(t, e, "B1"))

	var changed []events.CellChangedPayload
	e.On(events.CellChanged, func(ev events.Event) {
		changed = append(changed, ev.Data.(events.CellChangedPayload))
	})

	setA1(t, e, "A1", "=SEQUENCE(2,1,1,1)")

	assert.Equal(t, "3", getA1(t, e, "B1"))
	assert.Equal(t, "", getA1(t, e, "A3"))

	var sawA3, sawB1 bool
	for _, c := range changed {
		a1 := address.FormatA1(c.Col, c.Row)
		if a1 == "A3" {
			sawA3 = true
			assert.Equal(t, "20", c.OldValue)
			assert.Equal(t, "", c.NewValue)
		}
		if a1 == "B1" {
			sawB1 = true
			assert.Equal(t, "45", c.OldValue)
			assert.Equal(t, "3", c.NewValue)
		}
	}
	assert.True(t, sawA3, "expected a cell-changed event for A3")
	assert.True(t, sawB1, "expected a cell-changed event for B1")
}

// Scenario 5: Criteria matching strictness.
func TestCriteriaMatchingStrictness(t *testing.T) {
	e := newTestEngine(t)
	col, row, _ := address.ParseA1("A1")
	require.True(t, e.SetCellContent(wb, sh, col, row, store.TextContent("10"))) // text "10"
	setA1(t, e, "A2", "10")                                                      // number 10
	setA1(t, e, "A3", "20")                                                      // number 20
	setA1(t, e, "B1", "=COUNTIF(A1:A3,10)")
	setA1(t, e, "B2", "=COUNTIF(A1:A3,\"10\")")
	setA1(t, e, "B3", "=COUNTIF(A1:A3,\">5\")")

	assert.Equal(t, "1", getA1(t, e, "B1"))
	assert.Equal(t, "1", getA1(t, e, "B2"))
	assert.Equal(t, "2", getA1(t, e, "B3"))
}

// Scenario 6: Spill blockage.
func TestSpillBlockageAndRelease(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "=SEQUENCE(3)")
	setA1(t, e, "A2", "x")

	assert.Equal(t, "#SPILL!", getA1(t, e, "A1"))
	assert.Equal(t, "x", getA1(t, e, "A2"))
	assert.Equal(t, "", getA1(t, e, "A3"))

	var changed []events.CellChangedPayload
	e.On(events.CellChanged, func(ev events.Event) {
		changed = append(changed, ev.Data.(events.CellChangedPayload))
	})

	setA1(t, e, "A2", "")

	assert.Equal(t, "1", getA1(t, e, "A1"))
	assert.Equal(t, "2", getA1(t, e, "A2"))
	assert.Equal(t, "3", getA1(t, e, "A3"))
	assert.Len(t, changed, 3)
}

// ---- universal invariants ----

func TestEventCompletenessOnlyFiresForCellsWhoseSerializedValueMoved(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "1")
	setA1(t, e, "B1", "=A1")
	setA1(t, e, "C1", "=A1*0") // stays 0 regardless of A1 moving between non-zero values

	setA1(t, e, "C1", "=A1*0")
	var changed []events.CellChangedPayload
	e.On(events.CellChanged, func(ev events.Event) {
		changed = append(changed, ev.Data.(events.CellChangedPayload))
	})

	setA1(t, e, "A1", "2")

	for _, c := range changed {
		a1 := address.FormatA1(c.Col, c.Row)
		assert.NotEqual(t, "C1", a1, "C1's value did not change and should not have fired cell-changed")
	}
}

func TestRoundTripSetCellContentThenGetCellSerialized(t *testing.T) {
	e := newTestEngine(t)
	col, row, _ := address.ParseA1("D4")
	content := store.TextContent("=A1 +   B1")
	require.True(t, e.SetCellContent(wb, sh, col, row, content))

	got, ok := e.GetCellSerialized(wb, sh, col, row)
	require.True(t, ok)
	assert.Equal(t, "=A1 +   B1", got)
}

func TestRoundTripSetSheetContentIsIdentity(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "1")
	setA1(t, e, "B1", "=A1+1")
	setA1(t, e, "C1", "hello")

	serialized, ok := e.GetSheetSerialized(wb, sh)
	require.True(t, ok)

	contents := make(map[string]store.RawContent, len(serialized))
	for a1, s := range serialized {
		contents[a1] = ParseLiteralContent(s)
	}
	require.True(t, e.SetSheetContent(wb, sh, contents))

	again, ok := e.GetSheetSerialized(wb, sh)
	require.True(t, ok)
	assert.Equal(t, serialized, again)
}

func TestRenameSheetThenBackReproducesOriginalState(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "10")
	setA1(t, e, "B1", "=A1*2")
	before := getA1(t, e, "B1")

	require.True(t, e.RenameSheet(wb, sh, "Renamed"))
	require.True(t, e.RenameSheet(wb, "Renamed", sh))

	assert.Equal(t, before, getA1(t, e, "B1"))
	assert.Equal(t, "20", getA1(t, e, "B1"))
}

func TestStructuredReferenceSumsTableColumnAndThisRowSelectsOwnRow(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "Amount")
	setA1(t, e, "B1", "Region")
	setA1(t, e, "A2", "100")
	setA1(t, e, "B2", "East")
	setA1(t, e, "A3", "200")
	setA1(t, e, "B3", "West")

	tbl := store.NewTable("Sales", wb, sh, 0, 0, address.End{Infinite: true}, []string{"Amount", "Region"})
	col, ok := tbl.ColumnIndex("Amount")
	require.True(t, ok)
	assert.Equal(t, 0, col)
	require.True(t, e.AddTable(wb, tbl))

	setA1(t, e, "D1", "=SUM(Sales[Amount])")
	assert.Equal(t, "300", getA1(t, e, "D1"))

	setA1(t, e, "C2", "=Sales[[#This Row],[Amount]]*2")
	assert.Equal(t, "200", getA1(t, e, "C2"))
	setA1(t, e, "C3", "=Sales[[#This Row],[Amount]]*2")
	assert.Equal(t, "400", getA1(t, e, "C3"))
}

func TestSnapshotExportImportRoundTrips(t *testing.T) {
	e := newTestEngine(t)
	setA1(t, e, "A1", "10")
	setA1(t, e, "B1", "=A1+5")

	snap := e.Export()

	e2 := New()
	e2.Import(snap)

	col, row, _ := address.ParseA1("B1")
	v, ok := e2.GetCellValue(wb, sh, col, row)
	require.True(t, ok)
	assert.Equal(t, "15", v)
}
