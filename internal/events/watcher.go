package events

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOrigin is the origin of events raised by the file watcher.
const WatcherOrigin = "watcher"

const debounce = 150 * time.Millisecond

// Watcher turns changes to the data files made by other processes into
// bus events. A change is ours when the file still holds exactly the bytes
// this process last wrote to it.
type Watcher struct {
	bus   *Bus
	fsw   *fsnotify.Watcher
	dir   string
	files map[string]string // base name -> event name

	mu      sync.Mutex
	own     map[string][sha256.Size]byte
	changed map[string]map[string]struct{} // event name -> base names
	pending map[string]*time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher watches dir. files maps a file's base name to the event it
// should raise, e.g. "todos.json" -> TodosUpdated.
func NewWatcher(bus *Bus, dir string, files map[string]string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		bus:     bus,
		fsw:     fsw,
		dir:     dir,
		files:   files,
		own:     make(map[string][sha256.Size]byte),
		changed: make(map[string]map[string]struct{}),
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// IgnoreWrite records data as this process's content for path. Wire it to
// the store's write hook so our own saves are not echoed back.
func (w *Watcher) IgnoreWrite(path string, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.own[filepath.Base(path)] = sha256.Sum256(data)
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, t := range w.pending {
			t.Stop()
		}
		w.mu.Unlock()

		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
		return
	}
	base := filepath.Base(ev.Name)
	name, ok := w.files[base]
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.changed[name] == nil {
		w.changed[name] = make(map[string]struct{})
	}
	w.changed[name][base] = struct{}{}

	if t, ok := w.pending[name]; ok {
		t.Reset(debounce)
		return
	}
	w.pending[name] = time.AfterFunc(debounce, func() { w.fire(name) })
}

// fire emits name unless every file that changed since the last emit still
// holds this process's own content.
func (w *Watcher) fire(name string) {
	w.mu.Lock()
	bases := w.changed[name]
	delete(w.changed, name)
	delete(w.pending, name)
	own := make(map[string][sha256.Size]byte, len(bases))
	for base := range bases {
		if sum, ok := w.own[base]; ok {
			own[base] = sum
		}
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	for base := range bases {
		sum, ok := own[base]
		if !ok {
			w.bus.Emit(WatcherOrigin, name, nil)
			return
		}
		data, err := os.ReadFile(filepath.Join(w.dir, base))
		if err != nil || sha256.Sum256(data) != sum {
			w.bus.Emit(WatcherOrigin, name, nil)
			return
		}
	}
}
