// Package backend opens the storage selected in the configuration,
// including the remote host client, and wires the data-dir watcher.
package backend

import (
	"context"
	"fmt"

	"github.com/nhle/todo-board/internal/credential"
	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/host"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/store"
)

// Backend is an opened store plus the concrete pieces some callers need.
type Backend struct {
	Store store.Store

	// Remote is set for the remote backend.
	Remote *host.Client

	// Files is set for the JSON file backend.
	Files *store.FileStore
}

// secretFunc returns the shared token secret; replaced in tests.
var secretFunc = credential.SigningSecret

// Open opens the backend named by cfg.Backend.
func Open(ctx context.Context, cfg model.StorageConfig) (*Backend, error) {
	if cfg.Backend == model.BackendRemote {
		if cfg.HostURL == "" {
			return nil, fmt.Errorf("storage.host_url is required for the remote backend")
		}
		secret, err := secretFunc()
		if err != nil {
			return nil, fmt.Errorf("reading host secret: %w", err)
		}
		c := host.NewClient(cfg.HostURL, secret)
		return &Backend{Store: c, Remote: c}, nil
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b := &Backend{Store: st}
	if fs, ok := st.(*store.FileStore); ok {
		b.Files = fs
	}
	return b, nil
}

// Watch starts a watcher on the file backend's data dir so edits made by
// other processes reach bus. It returns nil for other backends.
func (b *Backend) Watch(bus *events.Bus) (*events.Watcher, error) {
	if b.Files == nil {
		return nil, nil
	}
	w, err := events.NewWatcher(bus, b.Files.Dir(), map[string]string{
		store.TodosFile:      events.TodosUpdated,
		store.TrashFile:      events.TodosUpdated,
		store.CategoriesFile: events.CategoriesUpdated,
	})
	if err != nil {
		return nil, err
	}
	b.Files.OnWrite(w.IgnoreWrite)
	return w, nil
}

// Close closes the store.
func (b *Backend) Close() error {
	return b.Store.Close()
}

// Check opens cfg's backend and makes one read, or pings the host.
func Check(ctx context.Context, cfg model.StorageConfig) error {
	b, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.Remote != nil {
		return b.Remote.Ping(ctx)
	}
	if _, err := b.Store.LoadTodos(ctx); err != nil {
		return fmt.Errorf("reading todos: %w", err)
	}
	return nil
}
