package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/entity"
)

func conditionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "condition",
		Short: "Manage extraction conditions (named sets of field names)",
	}

	var items []string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a condition",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			cond, err := a.conditions.Create(ctx, args[0], items)
			if err != nil {
				return err
			}
			printCondition(cond)
			return nil
		}),
	}
	add.Flags().StringArrayVar(&items, "item", nil, "data item name (repeatable)")

	var updItems []string
	var updName string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Rename a condition and replace its items",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			name := updName
			if name == "" {
				cond, err := a.conditions.Get(ctx, id)
				if err != nil {
					return err
				}
				name = cond.Name
			}
			cond, err := a.conditions.Update(ctx, id, name, updItems)
			if err != nil {
				return err
			}
			printCondition(cond)
			return nil
		}),
	}
	update.Flags().StringVar(&updName, "name", "", "new condition name (unchanged when omitted)")
	update.Flags().StringArrayVar(&updItems, "item", nil, "replacement data item name (repeatable)")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a condition (removes its items and its scan history)",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.conditions.Delete(ctx, id)
		}),
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List conditions",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, _ []string) error {
			conds, err := a.conditions.List(ctx)
			if err != nil {
				return err
			}
			for _, cond := range conds {
				printCondition(cond)
			}
			return nil
		}),
	}

	cmd.AddCommand(add, update, rm, ls)
	return cmd
}

func printCondition(cond *entity.Condition) {
	fmt.Printf("%d\t%s\t[%s]\n", cond.ID, cond.Name, strings.Join(cond.FieldNames(), ", "))
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, common.ValidationErrorf("invalid id %q", s)
	}
	return uint(id), nil
}
