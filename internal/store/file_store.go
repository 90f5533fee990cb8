package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/nhle/todo-board/internal/model"
)

// File names inside the data directory.
const (
	TodosFile      = "todos.json"
	CategoriesFile = "categories.json"
	TrashFile      = "trash.json"
	PrefsFile      = "prefs.json"
	lockFile       = ".lock"
)

// FileStore keeps each list in its own JSON file. There is no caching:
// every call reads or writes the files while holding an exclusive flock on
// the data directory's lock file, so several processes can share a
// directory without interleaving read-modify-write cycles.
type FileStore struct {
	dir string

	mu      sync.Mutex
	onWrite func(path string, data []byte)
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// OnWrite registers fn to be called with the path and content of every file
// about to be written. The change watcher uses it to ignore this process's
// own writes.
func (s *FileStore) OnWrite(fn func(path string, data []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = fn
}

// Close is a no-op; files are not held open between calls.
func (s *FileStore) Close() error {
	return nil
}

// LoadTodos reads todos.json.
func (s *FileStore) LoadTodos(ctx context.Context) ([]model.Task, error) {
	var todos []model.Task
	err := s.withLock(ctx, func() error {
		var err error
		todos, err = readList[model.Task](s.path(TodosFile))
		return err
	})
	return todos, err
}

// SaveTodos writes todos.json with positions renumbered to match order.
func (s *FileStore) SaveTodos(ctx context.Context, todos []model.Task) error {
	return s.withLock(ctx, func() error {
		return writeList(s, TodosFile, sequenced(todos))
	})
}

// LoadCategories reads categories.json.
func (s *FileStore) LoadCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := s.withLock(ctx, func() error {
		var err error
		cats, err = readList[model.Category](s.path(CategoriesFile))
		return err
	})
	return cats, err
}

// SaveCategories writes categories.json.
func (s *FileStore) SaveCategories(ctx context.Context, categories []model.Category) error {
	return s.withLock(ctx, func() error {
		return writeList(s, CategoriesFile, categories)
	})
}

// LoadTrash reads trash.json.
func (s *FileStore) LoadTrash(ctx context.Context) ([]model.Task, error) {
	var trash []model.Task
	err := s.withLock(ctx, func() error {
		var err error
		trash, err = readList[model.Task](s.path(TrashFile))
		return err
	})
	return trash, err
}

// SaveTrash writes trash.json.
func (s *FileStore) SaveTrash(ctx context.Context, trash []model.Task) error {
	return s.withLock(ctx, func() error {
		return writeList(s, TrashFile, trash)
	})
}

// RestoreTodoItem moves id from trash.json to the end of todos.json.
func (s *FileStore) RestoreTodoItem(ctx context.Context, id int64) error {
	return s.withLock(ctx, func() error {
		trash, err := readList[model.Task](s.path(TrashFile))
		if err != nil {
			return err
		}
		todos, err := readList[model.Task](s.path(TodosFile))
		if err != nil {
			return err
		}

		todos, trash, err = restoreItem(todos, trash, id)
		if err != nil {
			return err
		}

		if err := writeList(s, TrashFile, trash); err != nil {
			return err
		}
		return writeList(s, TodosFile, sequenced(todos))
	})
}

// DeleteTodoItemPermanently removes id from trash.json.
func (s *FileStore) DeleteTodoItemPermanently(ctx context.Context, id int64) error {
	return s.withLock(ctx, func() error {
		trash, err := readList[model.Task](s.path(TrashFile))
		if err != nil {
			return err
		}
		trash, err = purgeItem(trash, id)
		if err != nil {
			return err
		}
		return writeList(s, TrashFile, trash)
	})
}

// EmptyTrashBin writes an empty trash.json.
func (s *FileStore) EmptyTrashBin(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		return writeList(s, TrashFile, []model.Task{})
	})
}

// LoadPrefs reads prefs.json; a missing file yields the defaults.
func (s *FileStore) LoadPrefs(ctx context.Context) (model.Prefs, error) {
	prefs := model.DefaultPrefs()
	err := s.withLock(ctx, func() error {
		data, err := os.ReadFile(s.path(PrefsFile))
		if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", PrefsFile, err)
		}
		if err := json.Unmarshal(data, &prefs); err != nil {
			return fmt.Errorf("parsing %s: %w", PrefsFile, err)
		}
		return nil
	})
	return prefs.Normalize(), err
}

// SavePrefs writes prefs.json.
func (s *FileStore) SavePrefs(ctx context.Context, prefs model.Prefs) error {
	return s.withLock(ctx, func() error {
		data, err := json.MarshalIndent(prefs, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", PrefsFile, err)
		}
		return s.writeFile(PrefsFile, data)
	})
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// withLock runs fn while holding an exclusive flock on the lock file.
func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path(lockFile), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("locking data directory: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return fn()
}

// readList loads a JSON array file. A missing or empty file is an empty list.
func readList[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return decodeList[T](data, filepath.Base(path))
}

func writeList[T any](s *FileStore, name string, items []T) error {
	data, err := encodeList(items, name)
	if err != nil {
		return err
	}
	return s.writeFile(name, data)
}

// writeFile replaces name atomically via a temp file and rename.
func (s *FileStore) writeFile(name string, data []byte) error {
	target := s.path(name)

	s.mu.Lock()
	hook := s.onWrite
	s.mu.Unlock()
	if hook != nil {
		hook(target, data)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
