package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nhle/todo-board/internal/model"
)

// Open returns the local backend selected by cfg. The remote backend lives
// in the host package and is not handled here.
func Open(ctx context.Context, cfg model.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case model.BackendFile, "":
		return NewFileStore(cfg.DataDir)
	case model.BackendSQLite:
		path := cfg.DSN
		if path == "" {
			path = filepath.Join(cfg.DataDir, "todo-board.db")
		}
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
		return NewSQLiteStore(path)
	case model.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("storage backend %q cannot be opened locally", cfg.Backend)
	}
}
