package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/todo-board/internal/render"
	"github.com/nhle/todo-board/internal/todo"
)

func newCategoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage the category tree",
	}
	cmd.AddCommand(
		newCategoryListCmd(opts),
		newCategoryAddCmd(opts),
		newCategoryEditCmd(opts),
		newCategoryDeleteCmd(opts),
	)
	return cmd
}

func newCategoryListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				entries := render.Tree(svc.Categories())
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No categories.")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s#%d %s %s\n",
						strings.Repeat("  ", e.Depth), e.Category.ID, e.Category.Name, e.Category.Color)
				}
				return nil
			})
		},
	}
}

func newCategoryAddCmd(opts *options) *cobra.Command {
	var color string
	var parent int64

	cmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := todo.NewCategory{Name: strings.Join(args, " "), Color: color}
			if cmd.Flags().Changed("parent") {
				in.ParentID = &parent
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				c, err := svc.AddCategory(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category #%d %s %s\n", c.ID, c.Name, c.Color)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "hex colour; random when empty")
	cmd.Flags().Int64Var(&parent, "parent", 0, "parent category id")
	return cmd
}

func newCategoryEditCmd(opts *options) *cobra.Command {
	var name, color string
	var parent int64
	var root bool

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Rename, recolour or reparent a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				c, ok := svc.Category(id)
				if !ok {
					return fmt.Errorf("editing category %d: %w", id, todo.ErrCategoryNotFound)
				}

				up := todo.CategoryUpdate{Name: c.Name, Color: c.Color, ParentID: c.ParentID}
				flags := cmd.Flags()
				if flags.Changed("name") {
					up.Name = name
				}
				if flags.Changed("color") {
					up.Color = color
				}
				if flags.Changed("parent") {
					up.ParentID = &parent
				}
				if root {
					up.ParentID = nil
				}

				if err := svc.UpdateCategory(ctx, id, up); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated category #%d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new hex colour")
	cmd.Flags().Int64Var(&parent, "parent", 0, "new parent id")
	cmd.Flags().BoolVar(&root, "root", false, "make it a root category")
	cmd.MarkFlagsMutuallyExclusive("parent", "root")
	return cmd
}

func newCategoryDeleteCmd(opts *options) *cobra.Command {
	var all, yes bool

	cmd := &cobra.Command{
		Use:   "delete [ID]",
		Short: "Delete a category with its subcategories, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("give one category id or --all")
			}
			if all && !yes {
				return errors.New("refusing to delete every category without --yes")
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *todo.Service) error {
				if all {
					n := len(svc.Categories())
					if err := svc.DeleteAllCategories(ctx); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d categories\n", n)
					return nil
				}

				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				removed, err := svc.DeleteCategory(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d categories\n", len(removed))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every category")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm --all")
	return cmd
}
