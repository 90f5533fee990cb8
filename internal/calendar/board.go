// Package calendar implements the calendar board: a separate view that
// sorts tasks into seven day buckets plus Unassigned. The board only ever
// writes the calendarDay field back to the store.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/logger"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/reorder"
	"github.com/nhle/todo-board/internal/store"
)

// Origin is stamped on events emitted by the board.
const Origin = "calendar"

// Unassigned is the column key for tasks without a calendar day.
const Unassigned model.Day = ""

// ErrTaskNotFound is returned when an id is not on the board.
var ErrTaskNotFound = errors.New("task not on calendar board")

// Conflict describes a record whose calendarDay changed elsewhere after the
// board loaded it. The board's value was not written.
type Conflict struct {
	ID     int64
	Text   string
	Ours   *model.Day
	Theirs *model.Day
}

// SaveResult reports what a Save wrote.
type SaveResult struct {
	Updated   []int64
	Conflicts []Conflict
	// Missing lists changed records that no longer exist in the store.
	Missing []int64
}

// Board holds the calendar view's copy of the task list.
type Board struct {
	store store.Store
	bus   *events.Bus
	log   *logger.Logger
	days  []model.Day

	mu    sync.Mutex
	tasks []model.Task
	seen  map[int64]*model.Day
	dirty map[int64]bool
}

// New creates a board. weekStart picks the first day column; bus and log
// may be nil.
func New(st store.Store, bus *events.Bus, log *logger.Logger, weekStart string) *Board {
	if log == nil {
		log = logger.Nop()
	}
	return &Board{
		store: st,
		bus:   bus,
		log:   log.WithComponent("calendar"),
		days:  model.WeekFrom(weekStart),
		seen:  make(map[int64]*model.Day),
		dirty: make(map[int64]bool),
	}
}

// Columns returns the column keys in display order, Unassigned first.
func (b *Board) Columns() []model.Day {
	return append([]model.Day{Unassigned}, b.days...)
}

// Load fetches the full task set. Unsaved assignments survive a reload as
// long as their task still exists.
func (b *Board) Load(ctx context.Context) error {
	fresh, err := b.store.LoadTodos(ctx)
	if err != nil {
		return fmt.Errorf("loading calendar tasks: %w", err)
	}
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Position < fresh[j].Position })

	b.mu.Lock()
	defer b.mu.Unlock()

	ours := make(map[int64]*model.Day, len(b.dirty))
	for _, t := range b.tasks {
		if b.dirty[t.ID] {
			ours[t.ID] = t.CalendarDay
		}
	}

	seen := make(map[int64]*model.Day, len(fresh))
	dirty := make(map[int64]bool, len(b.dirty))
	for i := range fresh {
		t := &fresh[i]
		if b.dirty[t.ID] {
			seen[t.ID] = b.seen[t.ID]
			dirty[t.ID] = true
			t.CalendarDay = copyDay(ours[t.ID])
			continue
		}
		// seen keeps the stored value so Save compares like with like.
		seen[t.ID] = copyDay(t.CalendarDay)
		t.CalendarDay = normalizeDay(t.CalendarDay)
	}

	b.tasks, b.seen, b.dirty = fresh, seen, dirty
	return nil
}

// Tasks returns the board's copy of the task list in board order.
func (b *Board) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Task, len(b.tasks))
	for i, t := range b.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Column returns the tasks in one bucket in board order.
func (b *Board) Column(day model.Day) []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Task
	for _, t := range b.tasks {
		if columnOf(t) == day {
			out = append(out, t.Clone())
		}
	}
	return out
}

// ColumnIDs returns the ids in one bucket, for starting a drag.
func (b *Board) ColumnIDs(day model.Day) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int64
	for _, t := range b.tasks {
		if columnOf(t) == day {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Assign moves id to the end of the day column. Only membership is
// tracked for saving.
func (b *Board) Assign(id int64, day model.Day) error {
	return b.place(id, day, nil)
}

// MoveWithin reorders id in front of beforeID (nil for the end) without
// changing its column.
func (b *Board) MoveWithin(id int64, beforeID *int64) error {
	b.mu.Lock()
	idx := b.indexLocked(id)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("moving task %d: %w", id, ErrTaskNotFound)
	}
	day := columnOf(b.tasks[idx])
	b.mu.Unlock()
	return b.place(id, day, beforeID)
}

// Drop commits a drag into the day column. The placeholder picks the
// in-column slot; the dragged task takes the column's day.
func (b *Board) Drop(drag *reorder.Drag, day model.Day) error {
	if !drag.Active() {
		return reorder.ErrNoDrag
	}
	defer drag.Cancel()
	return b.place(drag.ID(), day, drag.Before())
}

func (b *Board) place(id int64, day model.Day, beforeID *int64) error {
	if day != Unassigned && !slices.Contains(model.Days, day) {
		return fmt.Errorf("unknown calendar day %q", day)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("assigning task %d: %w", id, ErrTaskNotFound)
	}
	t := b.tasks[idx]
	t.CalendarDay = dayPtr(day)

	rest := slices.Delete(slices.Clone(b.tasks), idx, idx+1)
	at := len(rest)
	if beforeID != nil {
		if i := slices.IndexFunc(rest, func(x model.Task) bool { return x.ID == *beforeID }); i >= 0 {
			at = i
		}
	}
	b.tasks = slices.Insert(rest, at, t)

	if model.SameDay(t.CalendarDay, normalizeDay(b.seen[id])) {
		delete(b.dirty, id)
	} else {
		b.dirty[id] = true
	}
	return nil
}

// Dirty returns the ids whose assignment differs from what was loaded.
func (b *Board) Dirty() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.dirty))
	for id := range b.dirty {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Save merges the board's assignments into the authoritative task list. A
// record is written only when the board changed it and the stored
// calendarDay still equals what the board loaded; everything else in the
// stored list is left exactly as found.
func (b *Board) Save(ctx context.Context) (SaveResult, error) {
	var res SaveResult

	fresh, err := b.store.LoadTodos(ctx)
	if err != nil {
		return res, fmt.Errorf("loading tasks for calendar save: %w", err)
	}

	b.mu.Lock()
	ours := make(map[int64]*model.Day, len(b.dirty))
	for _, t := range b.tasks {
		if b.dirty[t.ID] {
			ours[t.ID] = copyDay(t.CalendarDay)
		}
	}
	seen := make(map[int64]*model.Day, len(ours))
	for id := range ours {
		seen[id] = b.seen[id]
	}
	b.mu.Unlock()

	found := make(map[int64]bool, len(ours))
	for i := range fresh {
		t := &fresh[i]
		day, changed := ours[t.ID]
		if !changed {
			continue
		}
		found[t.ID] = true
		if !model.SameDay(t.CalendarDay, seen[t.ID]) {
			res.Conflicts = append(res.Conflicts, Conflict{
				ID:     t.ID,
				Text:   t.Text,
				Ours:   day,
				Theirs: copyDay(t.CalendarDay),
			})
			continue
		}
		t.CalendarDay = day
		res.Updated = append(res.Updated, t.ID)
	}
	for id := range ours {
		if !found[id] {
			res.Missing = append(res.Missing, id)
		}
	}
	slices.Sort(res.Missing)

	if len(res.Updated) > 0 {
		for i := range fresh {
			fresh[i].CalendarDay = normalizeDay(fresh[i].CalendarDay)
		}
		if err := b.store.SaveTodos(ctx, fresh); err != nil {
			b.log.WithError(err).Errorw("saving calendar assignments failed")
			return SaveResult{}, fmt.Errorf("saving calendar assignments: %w", err)
		}
	}
	if len(res.Conflicts) > 0 || len(res.Missing) > 0 {
		b.log.Warnw("calendar save skipped records",
			"conflicts", len(res.Conflicts), "missing", len(res.Missing))
	}

	b.mu.Lock()
	b.dirty = make(map[int64]bool)
	b.mu.Unlock()
	if err := b.Load(ctx); err != nil {
		b.log.WithError(err).Warnw("reloading calendar after save failed")
	}

	if len(res.Updated) > 0 && b.bus != nil {
		b.bus.Emit(Origin, events.CalendarAssignmentsUpdated, events.CalendarPayload{UpdatedTasks: res.Updated})
		b.bus.Emit(Origin, events.TodosUpdated, nil)
	}
	b.log.Infow("calendar saved", "updated", len(res.Updated))
	return res, nil
}

func (b *Board) indexLocked(id int64) int {
	return slices.IndexFunc(b.tasks, func(t model.Task) bool { return t.ID == id })
}

func columnOf(t model.Task) model.Day {
	if t.CalendarDay == nil {
		return Unassigned
	}
	return *t.CalendarDay
}

func dayPtr(d model.Day) *model.Day {
	if d == Unassigned {
		return nil
	}
	return &d
}

// normalizeDay maps a stored day onto one of the seven columns. A value
// naming no day, such as hand-edited text, counts as unassigned.
func normalizeDay(d *model.Day) *model.Day {
	if d == nil {
		return nil
	}
	day, ok := model.ParseDay(string(*d))
	if !ok {
		return nil
	}
	return day
}

func copyDay(d *model.Day) *model.Day {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
