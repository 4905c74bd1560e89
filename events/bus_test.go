package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitDispatchesInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	b.On(CellChanged, func(Event) { order = append(order, "first") })
	b.On(CellChanged, func(Event) { order = append(order, "second") })
	b.On(CellChanged, func(Event) { order = append(order, "third") })

	b.Emit(Event{Kind: CellChanged})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEmitOnlyReachesMatchingKind(t *testing.T) {
	b := New()
	var sawCell, sawSheet bool
	b.On(CellChanged, func(Event) { sawCell = true })
	b.On(SheetAdded, func(Event) { sawSheet = true })

	b.Emit(Event{Kind: CellChanged})

	assert.True(t, sawCell)
	assert.False(t, sawSheet)
}

func TestOffRemovesOnlyItsOwnSubscription(t *testing.T) {
	b := New()
	var aCalls, bCalls int
	ha := b.On(CellChanged, func(Event) { aCalls++ })
	b.On(CellChanged, func(Event) { bCalls++ })

	b.Off(ha)
	b.Emit(Event{Kind: CellChanged})

	assert.Equal(t, 0, aCalls)
	assert.Equal(t, 1, bCalls)
}

func TestOffIsSafeToCallTwice(t *testing.T) {
	b := New()
	h := b.On(CellChanged, func(Event) {})
	b.Off(h)
	assert.NotPanics(t, func() { b.Off(h) })
}

func TestEmitWithNoSubscribersIsANoop(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() { b.Emit(Event{Kind: WorkbookAdded}) })
}

func TestHandlerCanEmitAnotherEventDuringDispatch(t *testing.T) {
	b := New()
	var sawSecond bool
	b.On(CellChanged, func(Event) {
		b.Emit(Event{Kind: SheetAdded})
	})
	b.On(SheetAdded, func(Event) { sawSecond = true })

	b.Emit(Event{Kind: CellChanged})

	assert.True(t, sawSecond)
}

func TestPayloadRoundTripsThroughData(t *testing.T) {
	b := New()
	var got CellChangedPayload
	b.On(CellChanged, func(e Event) {
		got = e.Data.(CellChangedPayload)
	})

	want := CellChangedPayload{Workbook: "Book1", Sheet: "Sheet1", Col: 2, Row: 4, OldValue: "1", NewValue: "2"}
	b.Emit(Event{Kind: CellChanged, Data: want})

	assert.Equal(t, want, got)
}
