package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/todo"
)

func newAddCmd(opts *options) *cobra.Command {
	var due string
	var category int64

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task at the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := todo.NewTodo{Text: strings.Join(args, " "), DueDate: due}
			if cmd.Flags().Changed("category") {
				in.CategoryID = &category
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				t, err := svc.AddTodo(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", t.ID, t.Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var filter, sortBy string
	var desc, group bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  `List tasks with the same filter, sort and grouping rules as the main screen.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := model.DefaultPrefs()
			prefs.Filter = model.Filter(filter)
			prefs.SortBy = model.SortBy(sortBy)
			if desc {
				prefs.SortDirection = model.SortDesc
			}
			prefs.GroupByCategory = group
			if n := prefs.Normalize(); n.Filter != prefs.Filter || n.SortBy != prefs.SortBy {
				return fmt.Errorf("unknown filter %q or sort key %q", filter, sortBy)
			}

			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				rows := render.Project(svc.Todos(), svc.Categories(), prefs)
				printRows(cmd.OutOrStdout(), rows, time.Now())
				_, active, _ := render.Counts(svc.Todos())
				fmt.Fprintf(cmd.OutOrStdout(), "%d items left\n", active)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", string(model.FilterAll), "all, active or completed")
	cmd.Flags().StringVar(&sortBy, "sort", string(model.SortByPosition), "name, date or position")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&group, "group", false, "group by category")
	return cmd
}

func printRows(w io.Writer, rows []render.Row, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, r := range rows {
		indent := strings.Repeat("  ", r.Depth)
		if r.Kind == render.RowHeader {
			fmt.Fprintf(w, "%s%s (%d/%d)\n", indent, r.Label, r.Done, r.Count)
			continue
		}
		fmt.Fprintf(w, "%s%s\n", indent, formatTask(*r.Task, now))
	}
}

func formatTask(t model.Task, now time.Time) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%s #%d %s", box, t.ID, t.Text)
	if t.Category != nil {
		line += " (" + t.Category.Name + ")"
	}
	if due := t.Due(); due != "" {
		line += " due " + due
		if t.IsOverdue(now) {
			line += " OVERDUE"
		}
	}
	if t.CalendarDay != nil {
		line += " @" + string(*t.CalendarDay)
	}
	return line
}

func newDoneCmd(opts *options) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done ID...",
		Short: "Mark tasks completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				for _, id := range ids {
					if err := svc.SetCompleted(ctx, id, !undo); err != nil {
						return err
					}
				}
				verb := "Completed"
				if undo {
					verb = "Reopened"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d task(s)\n", verb, len(ids))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark active again")
	return cmd
}

func newEditCmd(opts *options) *cobra.Command {
	var text, due, color string
	var category int64
	var noCategory bool

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's text, due date or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				t, ok := svc.Todo(id)
				if !ok {
					return fmt.Errorf("editing todo %d: %w", id, todo.ErrTodoNotFound)
				}

				// Unchanged flags keep the current values.
				up := todo.TodoUpdate{Text: t.Text, DueDate: t.Due()}
				if cid, ok := t.CategoryID(); ok {
					up.CategoryID = &cid
				}
				flags := cmd.Flags()
				if flags.Changed("text") {
					up.Text = text
				}
				if flags.Changed("due") {
					up.DueDate = due
				}
				if flags.Changed("category") {
					up.CategoryID = &category
				}
				if noCategory {
					up.CategoryID = nil
				}
				up.CategoryColor = color

				if err := svc.UpdateTodo(ctx, id, up); err != nil {
					return err
				}
				updated, _ := svc.Todo(id)
				fmt.Fprintln(cmd.OutOrStdout(), formatTask(updated, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD), empty clears it")
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	cmd.Flags().BoolVar(&noCategory, "no-category", false, "remove the category")
	cmd.Flags().StringVar(&color, "color", "", "recolour the task's category")
	cmd.MarkFlagsMutuallyExclusive("category", "no-category")
	return cmd
}

func newMoveCmd(opts *options) *cobra.Command {
	var before int64

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a task before another one, or to the end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var beforeID *int64
			if cmd.Flags().Changed("before") {
				beforeID = &before
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				if err := svc.MoveBefore(ctx, id, beforeID); err != nil {
					return err
				}
				t, _ := svc.Todo(id)
				fmt.Fprintf(cmd.OutOrStdout(), "Moved #%d to position %d\n", id, t.Position)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&before, "before", 0, "id of the task to move in front of; omit to move to the end")
	return cmd
}
