package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/host"
)

type fakeRemote struct {
	mu        gosync.Mutex
	streams   int
	published []events.Event
}

func (f *fakeRemote) Stream(ctx context.Context, bus *events.Bus) error {
	f.mu.Lock()
	f.streams++
	n := f.streams
	f.mu.Unlock()
	if n == 1 {
		return errors.New("connection refused")
	}
	bus.Publish(events.Event{ID: "e1", Name: events.TodosUpdated, Origin: host.RelayPrefix + "other"})
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeRemote) Publish(_ context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeRemote) snapshot() (int, []events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams, append([]events.Event(nil), f.published...)
}

func TestRelayReconnectsAndRepublishes(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Listen(events.TodosUpdated)
	defer sub.Close()

	remote := &fakeRemote{}
	r := New(remote, bus, nil)
	r.SetRetry(10 * time.Millisecond)
	cmd := r.Start()
	require.NotNil(t, cmd)
	defer r.Stop()

	msg, ok := cmd().(RelayStatusMsg)
	require.True(t, ok)
	assert.Equal(t, RelayStreaming, msg.Status.State)

	select {
	case ev := <-sub.C:
		assert.Equal(t, "e1", ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("relayed event not delivered")
	}

	streams, _ := remote.snapshot()
	assert.Equal(t, 2, streams)
	assert.Nil(t, r.Start())
}

func TestRelayForwardsOnlyLocalCalendarEvents(t *testing.T) {
	bus := events.NewBus()
	remote := &fakeRemote{}
	r := New(remote, bus, nil)
	r.SetRetry(time.Hour)
	r.Start()
	defer r.Stop()

	bus.Emit(host.RelayPrefix+"client-x", events.CalendarAssignmentsUpdated, nil)
	bus.Emit("calendar", events.CalendarAssignmentsUpdated, events.CalendarPayload{UpdatedTasks: []int64{9}})
	bus.Emit("list", events.TodosUpdated, nil)

	require.Eventually(t, func() bool {
		_, published := remote.snapshot()
		return len(published) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, published := remote.snapshot()
	assert.Equal(t, "calendar", published[0].Origin)
	assert.Equal(t, []int64{9}, events.UpdatedTasks(published[0].Payload))
}
