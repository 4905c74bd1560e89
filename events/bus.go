// Package events is a small synchronous, typed publish/subscribe bus.
// The engine owns one Bus and publishes every mutation through it once
// the Store, Graph, and Spill Manager are all consistent; handlers run
// inline on the publishing goroutine, in subscription order, so a
// handler that triggers another mutation re-enters the engine rather
// than racing it.
package events

import "sort"

// Kind identifies an event category.
type Kind string

const (
	CellChanged            Kind = "cell-changed"
	SheetAdded             Kind = "sheet-added"
	SheetRenamed           Kind = "sheet-renamed"
	SheetRemoved           Kind = "sheet-removed"
	WorkbookAdded          Kind = "workbook-added"
	WorkbookRenamed        Kind = "workbook-renamed"
	WorkbookRemoved        Kind = "workbook-removed"
	NamedExpressionAdded   Kind = "named-expression-added"
	NamedExpressionUpdated Kind = "named-expression-updated"
	NamedExpressionRemoved Kind = "named-expression-removed"
	TableAdded             Kind = "table-added"
	TableRenamed           Kind = "table-renamed"
	TableRemoved           Kind = "table-removed"
)

// CellChangedPayload is delivered with every CellChanged event.
type CellChangedPayload struct {
	Workbook string
	Sheet    string
	Col      uint32
	Row      uint32
	OldValue string
	NewValue string
}

// Event is the generic envelope delivered to every handler: Kind
// selects which concrete payload type Data holds.
type Event struct {
	Kind Kind
	Data any
}

// Handler receives one Event.
type Handler func(Event)

// Handle identifies a subscription; pass it to Bus.Off to unsubscribe.
type Handle struct {
	kind Kind
	id   uint64
}

// Bus is a typed, synchronous event dispatcher. The zero value is not
// usable; construct with New.
type Bus struct {
	handlers map[Kind]map[uint64]Handler
	nextID   uint64
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Kind]map[uint64]Handler)}
}

// On subscribes fn to every event of kind, returning a Handle that
// Off accepts to remove it again.
func (b *Bus) On(kind Kind, fn Handler) Handle {
	b.nextID++
	id := b.nextID
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[uint64]Handler)
	}
	b.handlers[kind][id] = fn
	return Handle{kind: kind, id: id}
}

// Off removes a subscription previously returned by On. Safe to call
// more than once.
func (b *Bus) Off(h Handle) {
	if set, ok := b.handlers[h.kind]; ok {
		delete(set, h.id)
	}
}

// Emit delivers an event to every handler subscribed to its kind, in
// subscription order.
func (b *Bus) Emit(e Event) {
	set := b.handlers[e.Kind]
	if len(set) == 0 {
		return
	}
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if fn, ok := set[id]; ok {
			fn(e)
		}
	}
}
