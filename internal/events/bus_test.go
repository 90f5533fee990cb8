package events

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenFiltersByName(t *testing.T) {
	bus := NewBus()
	todos := bus.Listen(TodosUpdated)
	all := bus.Listen()
	defer todos.Close()
	defer all.Close()

	bus.Emit("list", CategoriesUpdated, nil)
	bus.Emit("list", TodosUpdated, nil)

	ev := <-todos.C
	assert.Equal(t, TodosUpdated, ev.Name)
	assert.Equal(t, "list", ev.Origin)
	assert.NotEmpty(t, ev.ID)
	assert.Len(t, todos.C, 0)

	assert.Equal(t, CategoriesUpdated, (<-all.C).Name)
	assert.Equal(t, TodosUpdated, (<-all.C).Name)
}

func TestEmitDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Listen()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.Emit("x", TodosUpdated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full subscriber")
	}
	assert.Len(t, sub.C, subscriberBuffer)
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Listen()
	sub.Close()
	sub.Close()

	bus.Emit("x", TodosUpdated, nil)
	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestBusCloseEndsSubscriptions(t *testing.T) {
	bus := NewBus()
	a := bus.Listen()
	b := bus.Listen(TodosUpdated)
	bus.Close()

	_, ok := <-a.C
	assert.False(t, ok)
	_, ok = <-b.C
	assert.False(t, ok)
	b.Close()
}

func TestWaitForEvent(t *testing.T) {
	bus := NewBus()
	sub := bus.Listen()
	payload := CalendarPayload{UpdatedTasks: []int64{1, 2}}
	bus.Emit("calendar", CalendarAssignmentsUpdated, payload)

	msg := WaitForEvent(sub)()
	got, ok := msg.(Msg)
	require.True(t, ok)
	assert.Equal(t, CalendarAssignmentsUpdated, got.Name)
	assert.Equal(t, payload, got.Payload)

	sub.Close()
	assert.Nil(t, WaitForEvent(sub)())
}

func TestWatcherReportsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sub := bus.Listen()
	defer sub.Close()

	w, err := NewWatcher(bus, dir, map[string]string{"todos.json": TodosUpdated})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "todos.json"), []byte("[]"), 0o644))

	select {
	case ev := <-sub.C:
		assert.Equal(t, TodosUpdated, ev.Name)
		assert.Equal(t, WatcherOrigin, ev.Origin)
	case <-time.After(3 * time.Second):
		t.Fatal("no event for external write")
	}
}

func TestWatcherIgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sub := bus.Listen()
	defer sub.Close()

	w, err := NewWatcher(bus, dir, map[string]string{"trash.json": TodosUpdated})
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "trash.json")
	w.IgnoreWrite(path, []byte("[]"))
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0o644))

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %s", ev.Name)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherReportsForeignWriteRightAfterOwnWrite(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sub := bus.Listen()
	defer sub.Close()

	w, err := NewWatcher(bus, dir, map[string]string{"todos.json": TodosUpdated})
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "todos.json")
	w.IgnoreWrite(path, []byte(`[{"id":1}]`))
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1}]`), 0o644))
	// Another process saves before the debounce settles.
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1},{"id":2}]`), 0o644))

	select {
	case ev := <-sub.C:
		assert.Equal(t, TodosUpdated, ev.Name)
	case <-time.After(3 * time.Second):
		t.Fatal("foreign write was swallowed")
	}
}

func TestWatcherOwnContentStaysQuietAfterRewrite(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sub := bus.Listen()
	defer sub.Close()

	w, err := NewWatcher(bus, dir, map[string]string{"todos.json": TodosUpdated})
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "todos.json")
	for _, body := range []string{`[]`, `[{"id":3}]`} {
		w.IgnoreWrite(path, []byte(body))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %s", ev.Name)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherConcurrentClose(t *testing.T) {
	w, err := NewWatcher(NewBus(), t.TempDir(), map[string]string{"todos.json": TodosUpdated})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Close()
		}()
	}
	wg.Wait()
	assert.NoError(t, w.Close())
}

func TestUpdatedTasks(t *testing.T) {
	assert.Equal(t, []int64{3}, UpdatedTasks(CalendarPayload{UpdatedTasks: []int64{3}}))
	assert.Equal(t, []int64{4, 5}, UpdatedTasks(map[string]any{"updatedTasks": []any{4, 5}}))
	assert.Nil(t, UpdatedTasks(nil))
	assert.Nil(t, UpdatedTasks("garbage"))
}
