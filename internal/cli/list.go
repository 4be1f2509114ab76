package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage document lists",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a document list",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			list, err := a.lists.Create(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\n", list.ID, list.Name)
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a document list",
		Args:  cobra.ExactArgs(2),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			list, err := a.lists.Rename(ctx, id, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\n", list.ID, list.Name)
			return nil
		}),
	}

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a list, its documents, and its upload directory",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.lists.Delete(ctx, id, a.files.RemoveListDir)
		}),
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List document lists",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, _ []string) error {
			lists, err := a.lists.List(ctx)
			if err != nil {
				return err
			}
			for _, list := range lists {
				fmt.Printf("%d\t%s\n", list.ID, list.Name)
			}
			return nil
		}),
	}

	cmd.AddCommand(add, rename, rm, ls)
	return cmd
}
