package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/todo-board/internal/app"
	"github.com/nhle/todo-board/internal/calendar"
	"github.com/nhle/todo-board/internal/model"
	appsync "github.com/nhle/todo-board/internal/sync"
	"github.com/nhle/todo-board/internal/todo"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "todo-board",
		Short: "A to-do list with categories, a trash bin and a weekly board",
		Long: `todo-board keeps an ordered to-do list with nested categories, a trash bin
and a seven-day calendar board. Run it without arguments for the terminal UI,
or use the subcommands for scripting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "path to the config file")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newDoneCmd(opts),
		newEditCmd(opts),
		newMoveCmd(opts),
		newTrashCmd(opts),
		newCategoryCmd(opts),
		newCalendarCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// runTUI launches the terminal UI. Logs go to the configured file so the
// screen stays clean.
func runTUI(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, opts, false)
	if err != nil {
		return err
	}
	defer e.Close()

	svc := todo.New(e.backend.Store, e.bus, e.log)
	if err := svc.Load(ctx); err != nil {
		e.log.WithError(err).Warnw("initial load incomplete")
	}
	board := calendar.New(e.backend.Store, e.bus, e.log, e.cfg.Display.WeekStart)

	w, err := e.backend.Watch(e.bus)
	if err != nil {
		e.log.WithError(err).Warnw("watching data dir failed; changes from other processes will need a manual reload")
	}
	if w != nil {
		defer w.Close()
	}

	var relay *appsync.Relay
	if e.backend.Remote != nil {
		relay = appsync.New(e.backend.Remote, e.bus, e.log)
		defer relay.Stop()
	}

	m := app.New(app.Options{
		Service:    svc,
		Board:      board,
		Bus:        e.bus,
		Relay:      relay,
		Config:     *e.cfg,
		ConfigPath: opts.configPath,
		Log:        e.log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
