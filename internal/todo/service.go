// Package todo owns the in-memory task list, category tree and trash for
// one screen set. Every mutation builds the new list, writes it through the
// store in full, commits it in memory and emits the matching event.
package todo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/logger"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/store"
)

// Sentinel errors returned by Service operations.
var (
	ErrEmptyText        = errors.New("task text must not be empty")
	ErrEmptyName        = errors.New("category name must not be empty")
	ErrInvalidColor     = errors.New("category color must be a #rgb or #rrggbb hex value")
	ErrInvalidDueDate   = errors.New("due date must be a YYYY-MM-DD date")
	ErrTodoNotFound     = errors.New("todo not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryCycle    = errors.New("category cannot be its own ancestor")
)

// DefaultOrigin is the event origin used when none is configured.
const DefaultOrigin = "list"

// Service is the state container shared by the list and trash screens.
type Service struct {
	store  store.Store
	bus    *events.Bus
	log    *logger.Logger
	origin string
	now    func() time.Time

	mu         sync.Mutex
	todos      []model.Task
	categories []model.Category
	trash      []model.Task
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOrigin sets the origin stamped on emitted events.
func WithOrigin(origin string) Option {
	return func(s *Service) { s.origin = origin }
}

// New creates a Service. bus and log may be nil.
func New(st store.Store, bus *events.Bus, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:  st,
		bus:    bus,
		log:    log.WithComponent("todo"),
		origin: DefaultOrigin,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Origin returns the origin stamped on this service's events.
func (s *Service) Origin() string {
	return s.origin
}

// Load reads all three lists. A list that fails to load is logged and
// replaced by an empty list; the combined error is still returned so the
// caller can surface it.
func (s *Service) Load(ctx context.Context) error {
	var errs []error

	todos, err := s.store.LoadTodos(ctx)
	if err != nil {
		s.log.WithError(err).Warnw("loading todos failed, starting empty")
		errs = append(errs, err)
		todos = []model.Task{}
	}
	sort.SliceStable(todos, func(i, j int) bool { return todos[i].Position < todos[j].Position })

	categories, err := s.store.LoadCategories(ctx)
	if err != nil {
		s.log.WithError(err).Warnw("loading categories failed, starting empty")
		errs = append(errs, err)
		categories = []model.Category{}
	}

	trash, err := s.store.LoadTrash(ctx)
	if err != nil {
		s.log.WithError(err).Warnw("loading trash failed, starting empty")
		errs = append(errs, err)
		trash = []model.Task{}
	}

	s.mu.Lock()
	s.todos, s.categories, s.trash = todos, categories, trash
	s.mu.Unlock()

	s.log.Debugw("loaded", "todos", len(todos), "categories", len(categories), "trash", len(trash))
	return errors.Join(errs...)
}

// Todos returns a copy of the task list in position order.
func (s *Service) Todos() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.todos)
}

// Trash returns a copy of the trash list.
func (s *Service) Trash() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.trash)
}

// Categories returns a copy of the flat category list.
func (s *Service) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCategories(s.categories)
}

// Todo returns the task with id.
func (s *Service) Todo(id int64) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := taskIndex(s.todos, id); i >= 0 {
		return s.todos[i].Clone(), true
	}
	return model.Task{}, false
}

// ItemsLeft counts active tasks.
func (s *Service) ItemsLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

// LoadPrefs reads the view preferences, falling back to defaults.
func (s *Service) LoadPrefs(ctx context.Context) model.Prefs {
	prefs, err := s.store.LoadPrefs(ctx)
	if err != nil {
		s.log.WithError(err).Warnw("loading preferences failed, using defaults")
		return model.DefaultPrefs()
	}
	return prefs
}

// SavePrefs persists the view preferences.
func (s *Service) SavePrefs(ctx context.Context, prefs model.Prefs) error {
	if err := s.store.SavePrefs(ctx, prefs.Normalize()); err != nil {
		s.log.WithError(err).Errorw("saving preferences failed")
		return err
	}
	return nil
}

func (s *Service) emit(name string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(s.origin, name, payload)
}

// nextID returns the current millisecond timestamp, bumped past taken ids.
func nextID(now time.Time, maxTaken int64) int64 {
	id := now.UnixMilli()
	if id <= maxTaken {
		id = maxTaken + 1
	}
	return id
}

func taskIndex(tasks []model.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneCategories(cats []model.Category) []model.Category {
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		out[i] = c
		if c.ParentID != nil {
			p := *c.ParentID
			out[i].ParentID = &p
		}
	}
	return out
}
