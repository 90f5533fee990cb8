package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nhle/todo-board/internal/backend"
	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/logger"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/todo"
)

// cliOrigin stamps events emitted by one-shot commands.
const cliOrigin = "cli"

// env is everything a command needs, opened from the config file.
type env struct {
	cfg     *model.AppConfig
	log     *logger.Logger
	backend *backend.Backend
	bus     *events.Bus
}

// openEnv loads the config, the logger and the storage backend. Scripting
// commands log warnings to stderr; the UI logs to the configured output.
func openEnv(ctx context.Context, opts *options, toStderr bool) (*env, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if toStderr {
		logCfg.Output = "stderr"
		if logCfg.Level != "debug" {
			logCfg.Level = "warn"
		}
	}
	log, err := logger.New(logCfg)
	if err != nil {
		log = logger.Nop()
	}

	b, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}

	return &env{cfg: cfg, log: log, backend: b, bus: events.NewBus()}, nil
}

// service opens the task service for a scripting command.
func (e *env) service(ctx context.Context) (*todo.Service, error) {
	svc := todo.New(e.backend.Store, e.bus, e.log, todo.WithOrigin(cliOrigin))
	if err := svc.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}
	return svc, nil
}

// Close releases the store and flushes the log.
func (e *env) Close() error {
	e.bus.Close()
	err := e.backend.Close()
	_ = e.log.Close()
	return err
}

// withService opens an env and a loaded service, runs fn and closes both.
func withService(ctx context.Context, opts *options, fn func(ctx context.Context, svc *todo.Service) error) error {
	e, err := openEnv(ctx, opts, true)
	if err != nil {
		return err
	}
	defer e.Close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
