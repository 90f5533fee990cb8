package testutil

import (
	"testing"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/store"
)

// NewTestStore creates an in-memory KVStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.KVStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestFileStore creates a FileStore rooted in a fresh temp directory.
func NewTestFileStore(t *testing.T) *store.FileStore {
	t.Helper()

	s, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	return s
}

// Task builds an active task with the given id and text.
func Task(id int64, text string) model.Task {
	return model.Task{
		ID:        id,
		Text:      text,
		CreatedAt: "2024-01-01T00:00:00.000Z",
	}
}

// Category builds a root category.
func Category(id int64, name string) model.Category {
	return model.Category{ID: id, Name: name, Color: "#55aaff"}
}

// Child builds a category under parent.
func Child(id int64, name string, parent int64) model.Category {
	c := Category(id, name)
	c.ParentID = &parent
	return c
}
