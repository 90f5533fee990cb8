// Package events carries "data changed, reload" notifications between the
// screens of one process, and between processes via the file watcher or the
// host's event stream. Delivery is best effort: a slow subscriber loses
// events rather than blocking the emitter.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names.
const (
	TodosUpdated               = "todos-updated"
	CategoriesUpdated          = "categories-updated"
	CalendarAssignmentsUpdated = "calendar-assignments-updated"
)

// subscriberBuffer is the channel capacity of each subscription.
const subscriberBuffer = 16

// Event is a single named notification with an optional payload.
type Event struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Origin  string    `json:"origin,omitempty"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// CalendarPayload is attached to calendar-assignments-updated.
type CalendarPayload struct {
	UpdatedTasks []int64 `json:"updatedTasks"`
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Subscription receives the events it was registered for on C.
type Subscription struct {
	C <-chan Event

	ch    chan Event
	names map[string]bool
	bus   *Bus
	id    int
	once  sync.Once
}

// Listen subscribes to the named events, or to everything when no names
// are given. Call Close when done.
func (b *Bus) Listen(names ...string) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	if len(names) > 0 {
		sub.names = make(map[string]bool, len(names))
		for _, n := range names {
			sub.names[n] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	sub.id = b.nextID
	b.nextID++
	b.subs[sub.id] = sub
	return sub
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *Subscription) wants(name string) bool {
	return s.names == nil || s.names[name]
}

// Emit publishes an event named name on behalf of origin.
func (b *Bus) Emit(origin, name string, payload any) Event {
	ev := Event{
		ID:      uuid.NewString(),
		Name:    name,
		Origin:  origin,
		Payload: payload,
		At:      time.Now(),
	}
	b.Publish(ev)
	return ev
}

// Publish delivers an already built event, e.g. one relayed from another
// process. Subscribers whose buffer is full miss it.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.wants(ev.Name) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Close ends every current subscription.
func (b *Bus) Close() {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// UpdatedTasks extracts the task ids of a calendar-assignments-updated
// payload, whether it was emitted locally or decoded from the host's
// event stream.
func UpdatedTasks(payload any) []int64 {
	switch p := payload.(type) {
	case nil:
		return nil
	case CalendarPayload:
		return p.UpdatedTasks
	case *CalendarPayload:
		return p.UpdatedTasks
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var p CalendarPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return p.UpdatedTasks
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
