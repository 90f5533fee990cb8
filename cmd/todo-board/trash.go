package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/todo"
)

func newTrashCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and manage the trash bin",
	}
	cmd.AddCommand(
		newTrashListCmd(opts),
		newTrashAddCmd(opts),
		newTrashRestoreCmd(opts),
		newTrashPurgeCmd(opts),
		newTrashEmptyCmd(opts),
	)
	return cmd
}

func newTrashListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trashed tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				items := svc.Trash()
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Trash is empty.")
					return nil
				}
				render.SortTrash(items, model.SortByDate, model.SortDesc)
				now := time.Now()
				for _, t := range items {
					age := "unknown"
					if t.TrashedAt != nil {
						if at, err := model.ParseTime(*t.TrashedAt); err == nil {
							age = humanize.RelTime(at, now, "ago", "from now")
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  trashed %s\n", formatTask(t, now), age)
				}
				return nil
			})
		},
	}
}

func newTrashAddCmd(opts *options) *cobra.Command {
	var completed bool

	cmd := &cobra.Command{
		Use:   "add ID...",
		Short: "Move tasks to the trash",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && len(args) > 0 {
				return errors.New("--completed takes no ids")
			}
			if !completed && len(args) == 0 {
				return errors.New("give task ids or --completed")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				if completed {
					n, err := svc.ClearCompleted(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Moved %d completed task(s) to the trash\n", n)
					return nil
				}
				for _, id := range ids {
					if err := svc.TrashTodo(ctx, id); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d task(s) to the trash\n", len(ids))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "trash every completed task")
	return cmd
}

func newTrashRestoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID...",
		Short: "Put trashed tasks back at the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				return reportBulk(cmd, svc.RestoreMany(ctx, ids))
			})
		},
	}
}

func newTrashPurgeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "purge ID...",
		Short: "Delete trashed tasks permanently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				return reportBulk(cmd, svc.PurgeMany(ctx, ids))
			})
		},
	}
}

func newTrashEmptyCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "empty",
		Short: "Delete everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to empty the trash without --yes")
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				n := len(svc.Trash())
				if err := svc.EmptyTrash(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d trashed task(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}

// reportBulk prints the summary and fails when any item failed.
func reportBulk(cmd *cobra.Command, res todo.BulkResult) error {
	fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d item(s) failed", len(res.Failed), len(res.Failed)+len(res.Succeeded))
	}
	return nil
}
