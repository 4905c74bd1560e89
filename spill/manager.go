// Package spill tracks which cells are currently covered by another
// cell's array result. A formula whose result is an array (an array
// literal, a bounded range reference, SORT/UNIQUE/SEQUENCE/... ) has an
// origin cell plus a rectangular spill area; every non-origin cell in
// that area displays the corresponding slice of the array as long as
// the area isn't blocked. The Manager is the single place that
// occupancy is recorded, so that blockage, release, and hand-off
// between competing spills stay consistent.
package spill

import "github.com/gridform/gridform/address"

// Update describes the effect of one call to Apply or Release: which
// cells changed occupancy (and so must be marked dirty for their
// dependents to re-read), whether the spill collapsed this time, and
// which other origins might now succeed where this one just vacated.
type Update struct {
	// Collapsed reports whether origin's result collapsed to a single
	// blocked-spill error instead of occupying its area.
	Collapsed bool
	// BlockedBy is the cell that caused the collapse, valid only when
	// Collapsed is true.
	BlockedBy address.Cell

	// Dirty is released ∪ added: every cell whose effective occupant
	// changed and whose dependents must be notified.
	Dirty []address.Cell

	// Reconsider lists other origins that were collapsed because they
	// wanted one of the cells origin just released. They should be
	// re-evaluated: the cell they wanted may now be free.
	Reconsider []address.Cell
}

// Manager owns the occupancy map: which origin cell's spill currently
// covers each non-origin cell, plus the bookkeeping needed to notify a
// previously-blocked origin when its blocker lets go.
type Manager struct {
	occupant     map[string]address.Cell            // cell key -> owning origin
	cellsByOrigin map[string]map[string]address.Cell // origin key -> cells it owns

	originBlock map[string]string                  // origin key -> cell key it's blocked at
	blockedAt   map[string]map[string]address.Cell // cell key -> origins blocked there
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		occupant:      make(map[string]address.Cell),
		cellsByOrigin: make(map[string]map[string]address.Cell),
		originBlock:   make(map[string]string),
		blockedAt:     make(map[string]map[string]address.Cell),
	}
}

// HasContent reports whether the store holds non-empty content at a
// cell. The Manager takes this as a callback rather than a store
// dependency so that it stays independent of the store package.
type HasContent func(c address.Cell) bool

// Area is the rectangular region (origin included) a spilled result
// would occupy. Only bounded areas are ever realized as an occupancy;
// an unbounded area (a top-level formula whose result is itself an
// open-ended reference) is displayed only at its origin cell.
type Area struct {
	Workbook string
	Sheet    string
	StartCol uint32
	StartRow uint32
	EndCol   uint32
	EndRow   uint32
	Bounded  bool
}

// Apply records the occupancy origin's latest result wants, resolving
// blockage and co-occupancy, and returns what changed.
//
// For every non-origin cell in area: if hasContent reports existing
// content there, or another origin already occupies it, the whole
// spill collapses -- origin claims nothing, and the cell that caused
// it is reported as BlockedBy. Otherwise origin claims every cell in
// area. Cells origin previously held but no longer claims are
// released; cells it claims now but didn't before are added. Both
// sets are returned together as Dirty.
func (m *Manager) Apply(origin address.Cell, area Area, hasContent HasContent) Update {
	var candidates []address.Cell
	if area.Bounded {
		for row := area.StartRow; row <= area.EndRow; row++ {
			for col := area.StartCol; col <= area.EndCol; col++ {
				c := address.Cell{Workbook: area.Workbook, Sheet: area.Sheet, Col: col, Row: row}
				if c == origin {
					continue
				}
				candidates = append(candidates, c)
			}
		}
	}
	return m.apply(origin, candidates, hasContent)
}

// Release clears any occupancy origin currently holds, as if its
// latest result were a plain scalar. Used when a cell's content is
// removed or its formula stops producing an array.
func (m *Manager) Release(origin address.Cell) Update {
	return m.apply(origin, nil, nil)
}

func (m *Manager) apply(origin address.Cell, candidates []address.Cell, hasContent HasContent) Update {
	originKey := origin.String()
	oldCells := m.cellsByOrigin[originKey]

	var blockedBy *address.Cell
	for _, c := range candidates {
		key := c.String()
		if hasContent != nil && hasContent(c) {
			bc := c
			blockedBy = &bc
			break
		}
		if owner, occupied := m.occupant[key]; occupied && owner != origin {
			bc := c
			blockedBy = &bc
			break
		}
	}

	newCells := make(map[string]address.Cell)
	if blockedBy == nil {
		for _, c := range candidates {
			newCells[c.String()] = c
		}
	}

	var released []address.Cell
	reopened := make(map[string]bool)
	for key, c := range oldCells {
		if _, stillHeld := newCells[key]; !stillHeld {
			delete(m.occupant, key)
			released = append(released, c)
			reopened[key] = true
		}
	}

	var added []address.Cell
	for key, c := range newCells {
		if _, already := oldCells[key]; !already {
			added = append(added, c)
		}
		m.occupant[key] = origin
	}

	if len(newCells) == 0 {
		delete(m.cellsByOrigin, originKey)
	} else {
		m.cellsByOrigin[originKey] = newCells
	}

	m.clearBlockMarker(originKey)
	if blockedBy != nil {
		key := blockedBy.String()
		if m.blockedAt[key] == nil {
			m.blockedAt[key] = make(map[string]address.Cell)
		}
		m.blockedAt[key][originKey] = origin
		m.originBlock[originKey] = key
	}

	var reconsider []address.Cell
	for key := range reopened {
		for _, waiter := range m.blockedAt[key] {
			reconsider = append(reconsider, waiter)
		}
		delete(m.blockedAt, key)
	}

	dirty := make([]address.Cell, 0, len(released)+len(added))
	dirty = append(dirty, released...)
	dirty = append(dirty, added...)

	result := Update{Collapsed: blockedBy != nil, Dirty: dirty, Reconsider: reconsider}
	if blockedBy != nil {
		result.BlockedBy = *blockedBy
	}
	return result
}

func (m *Manager) clearBlockMarker(originKey string) {
	key, ok := m.originBlock[originKey]
	if !ok {
		return
	}
	if waiters, ok := m.blockedAt[key]; ok {
		delete(waiters, originKey)
		if len(waiters) == 0 {
			delete(m.blockedAt, key)
		}
	}
	delete(m.originBlock, originKey)
}

// OccupantOf reports the origin cell whose spill currently covers c,
// if any. A cell with no stored content resolves through this before
// falling back to Empty.
func (m *Manager) OccupantOf(c address.Cell) (address.Cell, bool) {
	origin, ok := m.occupant[c.String()]
	return origin, ok
}

// CellsOf returns the cells origin currently occupies (not including
// origin itself), in no particular order.
func (m *Manager) CellsOf(origin address.Cell) []address.Cell {
	cells := m.cellsByOrigin[origin.String()]
	out := make([]address.Cell, 0, len(cells))
	for _, c := range cells {
		out = append(out, c)
	}
	return out
}

// RemoveSheet drops every occupancy record belonging to workbook/sheet,
// used when a sheet is deleted out from under the Manager.
func (m *Manager) RemoveSheet(workbook, sheet string) {
	for originKey, cells := range m.cellsByOrigin {
		keep := make(map[string]address.Cell)
		for key, c := range cells {
			if c.Workbook == workbook && c.Sheet == sheet {
				delete(m.occupant, key)
				continue
			}
			keep[key] = c
		}
		if len(keep) == 0 {
			delete(m.cellsByOrigin, originKey)
		} else {
			m.cellsByOrigin[originKey] = keep
		}
	}
	for key, waiters := range m.blockedAt {
		for originKey, origin := range waiters {
			if origin.Workbook == workbook && origin.Sheet == sheet {
				delete(waiters, originKey)
				delete(m.originBlock, originKey)
			}
		}
		if len(waiters) == 0 {
			delete(m.blockedAt, key)
		}
	}
}
