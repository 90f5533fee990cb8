package reorder

import "slices"

// Drag tracks one pick-up/hover/drop gesture. The placeholder is a slot
// index into the siblings of the containing list, which never include the
// dragged record itself.
type Drag struct {
	id       int64
	siblings []int64
	slot     int
	active   bool
}

// Start picks up id from list (the ids of its containing list in display
// order). The placeholder starts in the dragged row's own slot.
func Start(id int64, list []int64) *Drag {
	d := &Drag{id: id, active: true}
	slot := slices.Index(list, id)
	d.siblings = slices.DeleteFunc(slices.Clone(list), func(v int64) bool { return v == id })
	if slot < 0 {
		slot = len(d.siblings)
	}
	d.slot = slot
	return d
}

// Active reports whether a record is being dragged.
func (d *Drag) Active() bool {
	return d != nil && d.active
}

// ID returns the dragged record's id.
func (d *Drag) ID() int64 {
	return d.id
}

// Slot returns the placeholder index within Siblings.
func (d *Drag) Slot() int {
	return d.slot
}

// Siblings returns the ids of the containing list without the dragged one.
func (d *Drag) Siblings() []int64 {
	return d.siblings
}

// Hover moves the placeholder using the midpoint rule. midpoints are the
// siblings' vertical midpoints in display order.
func (d *Drag) Hover(y float64, midpoints []float64) {
	if !d.Active() {
		return
	}
	d.slot = InsertionIndex(midpoints, y)
	d.clamp()
}

// Nudge moves the placeholder by delta slots, for keyboard dragging. It
// reports false when the placeholder is already at the list's edge.
func (d *Drag) Nudge(delta int) bool {
	if !d.Active() {
		return false
	}
	next := d.slot + delta
	if next < 0 || next > len(d.siblings) {
		return false
	}
	d.slot = next
	return true
}

// Retarget moves the placeholder into a different list at slot.
func (d *Drag) Retarget(list []int64, slot int) {
	if !d.Active() {
		return
	}
	d.siblings = slices.DeleteFunc(slices.Clone(list), func(v int64) bool { return v == d.id })
	d.slot = slot
	d.clamp()
}

// Cancel drops the placeholder without touching any data.
func (d *Drag) Cancel() {
	if d == nil {
		return
	}
	d.active = false
	d.siblings = nil
}

// Before returns the sibling the placeholder sits in front of, or nil when
// the placeholder is at the end of its list.
func (d *Drag) Before() *int64 {
	if d.slot < len(d.siblings) {
		id := d.siblings[d.slot]
		return &id
	}
	return nil
}

// Placeholder returns the display order of the containing list with the
// placeholder marked by a zero id.
func (d *Drag) Placeholder() []int64 {
	out := make([]int64, 0, len(d.siblings)+1)
	out = append(out, d.siblings[:d.slot]...)
	out = append(out, 0)
	return append(out, d.siblings[d.slot:]...)
}

func (d *Drag) clamp() {
	if d.slot < 0 {
		d.slot = 0
	}
	if d.slot > len(d.siblings) {
		d.slot = len(d.siblings)
	}
}
