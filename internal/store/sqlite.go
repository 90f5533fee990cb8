package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nhle/todo-board/internal/model"
)

// KVStore is the fallback backend: every list is JSON-encoded under a fixed
// key in a single key/value table, mirroring the flat string storage the
// screens use when no host is available. It runs on sqlite or postgres.
type KVStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*KVStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database lives only as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return newKVStore(db)
}

// NewPostgresStore connects to postgres with dsn and runs migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*KVStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return newKVStore(db)
}

func newKVStore(db *sqlx.DB) (*KVStore, error) {
	s := &KVStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *KVStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *KVStore) runMigrations() error {
	if _, err := s.db.Exec(
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)",
	); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	currentVersion := 0
	err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration v%d: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("applying migration v%d: %w", m.version, err)
			}
		}
		if _, err := tx.Exec(
			tx.Rebind("INSERT INTO schema_version (version) VALUES (?)"), m.version,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// === Todos ===

// LoadTodos decodes the todos key.
func (s *KVStore) LoadTodos(ctx context.Context) ([]model.Task, error) {
	return loadList[model.Task](ctx, s.db, model.KeyTodos)
}

// SaveTodos encodes todos under the todos key with positions renumbered.
func (s *KVStore) SaveTodos(ctx context.Context, todos []model.Task) error {
	return saveList(ctx, s.db, model.KeyTodos, sequenced(todos))
}

// === Categories ===

// LoadCategories decodes the categories key.
func (s *KVStore) LoadCategories(ctx context.Context) ([]model.Category, error) {
	return loadList[model.Category](ctx, s.db, model.KeyCategories)
}

// SaveCategories encodes categories under the categories key.
func (s *KVStore) SaveCategories(ctx context.Context, categories []model.Category) error {
	return saveList(ctx, s.db, model.KeyCategories, categories)
}

// === Trash ===

// LoadTrash decodes the trash key.
func (s *KVStore) LoadTrash(ctx context.Context) ([]model.Task, error) {
	return loadList[model.Task](ctx, s.db, model.KeyTrash)
}

// SaveTrash encodes trash under the trash key.
func (s *KVStore) SaveTrash(ctx context.Context, trash []model.Task) error {
	return saveList(ctx, s.db, model.KeyTrash, trash)
}

// RestoreTodoItem moves id from trash to todos in one transaction.
func (s *KVStore) RestoreTodoItem(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		trash, err := loadList[model.Task](ctx, tx, model.KeyTrash)
		if err != nil {
			return err
		}
		todos, err := loadList[model.Task](ctx, tx, model.KeyTodos)
		if err != nil {
			return err
		}

		todos, trash, err = restoreItem(todos, trash, id)
		if err != nil {
			return err
		}

		if err := saveList(ctx, tx, model.KeyTrash, trash); err != nil {
			return err
		}
		return saveList(ctx, tx, model.KeyTodos, sequenced(todos))
	})
}

// DeleteTodoItemPermanently removes id from trash.
func (s *KVStore) DeleteTodoItemPermanently(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		trash, err := loadList[model.Task](ctx, tx, model.KeyTrash)
		if err != nil {
			return err
		}
		trash, err = purgeItem(trash, id)
		if err != nil {
			return err
		}
		return saveList(ctx, tx, model.KeyTrash, trash)
	})
}

// EmptyTrashBin stores an empty trash list.
func (s *KVStore) EmptyTrashBin(ctx context.Context) error {
	return saveList(ctx, s.db, model.KeyTrash, []model.Task{})
}

// === Preferences ===

// LoadPrefs reads the individual preference keys. Missing keys keep their
// defaults; malformed values are ignored.
func (s *KVStore) LoadPrefs(ctx context.Context) (model.Prefs, error) {
	prefs := model.DefaultPrefs()

	keys := []string{
		model.KeyFilter, model.KeySortBy, model.KeySortDirection,
		model.KeySortTarget, model.KeyGroupByCategory, model.KeyFoldedCategories,
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		v, ok, err := getValue(ctx, s.db, key)
		if err != nil {
			return prefs, err
		}
		if ok {
			values[key] = v
		}
	}

	if v, ok := values[model.KeyFilter]; ok {
		prefs.Filter = model.Filter(v)
	}
	if v, ok := values[model.KeySortBy]; ok {
		prefs.SortBy = model.SortBy(v)
	}
	if v, ok := values[model.KeySortDirection]; ok {
		prefs.SortDirection = model.SortDirection(v)
	}
	if v, ok := values[model.KeySortTarget]; ok {
		prefs.SortTarget = model.SortTarget(v)
	}
	if v, ok := values[model.KeyGroupByCategory]; ok {
		prefs.GroupByCategory, _ = strconv.ParseBool(v)
	}
	if v, ok := values[model.KeyFoldedCategories]; ok {
		var folded []string
		if err := json.Unmarshal([]byte(v), &folded); err == nil {
			prefs.FoldedCategories = folded
		}
	}

	return prefs.Normalize(), nil
}

// SavePrefs writes every preference key in one transaction.
func (s *KVStore) SavePrefs(ctx context.Context, prefs model.Prefs) error {
	folded, err := json.Marshal(prefs.FoldedCategories)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", model.KeyFoldedCategories, err)
	}
	if prefs.FoldedCategories == nil {
		folded = []byte("[]")
	}

	values := map[string]string{
		model.KeyFilter:           string(prefs.Filter),
		model.KeySortBy:           string(prefs.SortBy),
		model.KeySortDirection:    string(prefs.SortDirection),
		model.KeySortTarget:       string(prefs.SortTarget),
		model.KeyGroupByCategory:  strconv.FormatBool(prefs.GroupByCategory),
		model.KeyFoldedCategories: string(folded),
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for key, value := range values {
			if err := setValue(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *KVStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func getValue(ctx context.Context, q sqlx.ExtContext, key string) (string, bool, error) {
	var value string
	err := sqlx.GetContext(ctx, q, &value,
		q.Rebind("SELECT value FROM kv_entries WHERE name = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting key %s: %w", key, err)
	}
	return value, true, nil
}

func setValue(ctx context.Context, q sqlx.ExtContext, key, value string) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO kv_entries (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`),
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting key %s: %w", key, err)
	}
	return nil
}

func loadList[T any](ctx context.Context, q sqlx.ExtContext, key string) ([]T, error) {
	value, ok, err := getValue(ctx, q, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	return decodeList[T]([]byte(value), key)
}

func saveList[T any](ctx context.Context, q sqlx.ExtContext, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return setValue(ctx, q, key, string(data))
}
