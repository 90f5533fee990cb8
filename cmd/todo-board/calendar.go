package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/todo-board/internal/calendar"
	"github.com/nhle/todo-board/internal/model"
)

func newCalendarCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show or change weekday assignments",
	}
	cmd.AddCommand(newCalendarShowCmd(opts), newCalendarAssignCmd(opts))
	return cmd
}

func newCalendarShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board column by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			board := calendar.New(e.backend.Store, e.bus, e.log, e.cfg.Display.WeekStart)
			if err := board.Load(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, day := range board.Columns() {
				tasks := board.Column(day)
				label := string(day)
				if day == calendar.Unassigned {
					label = "Unassigned"
				}
				fmt.Fprintf(out, "%s (%d)\n", label, len(tasks))
				for _, t := range tasks {
					box := "[ ]"
					if t.Completed {
						box = "[x]"
					}
					fmt.Fprintf(out, "  %s #%d %s\n", box, t.ID, t.Text)
				}
			}
			return nil
		},
	}
}

func newCalendarAssignCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign ID DAY",
		Short: "Put a task on a weekday",
		Long:  "DAY is one of " + dayList() + " (or its first three letters), or \"none\" to unassign.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			day, ok := model.ParseDay(args[1])
			if !ok {
				return fmt.Errorf("unknown day %q", args[1])
			}
			column := calendar.Unassigned
			if day != nil {
				column = *day
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, opts, true)
			if err != nil {
				return err
			}
			defer e.Close()

			board := calendar.New(e.backend.Store, e.bus, e.log, e.cfg.Display.WeekStart)
			if err := board.Load(ctx); err != nil {
				return err
			}
			if err := board.Assign(id, column); err != nil {
				return err
			}
			res, err := board.Save(ctx)
			if err != nil {
				return err
			}
			if len(res.Updated) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d is already on %s\n", id, model.DayLabel(day))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned #%d to %s\n", id, model.DayLabel(day))
			return nil
		},
	}
}

// dayList names the accepted days for help text.
func dayList() string {
	names := make([]string, 0, len(model.Days))
	for _, d := range model.Days {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}
