package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/export"
)

func exportCmd() *cobra.Command {
	var listID uint
	var out, formatStr string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a list's scan results to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, _ []string) error {
			if listID == 0 {
				return common.ValidationErrorf("--list is required")
			}
			list, err := a.lists.Get(ctx, listID)
			if err != nil {
				return err
			}

			if formatStr == "" {
				formatStr = a.cfg.Export.Format
			}
			format, err := export.ParseFormat(formatStr)
			if err != nil {
				return common.ValidationErrorf("%v", err)
			}
			if out == "" {
				out = strings.ReplaceAll(list.Name, " ", "_") + "." + format.Ext()
			}

			svc := export.NewService(a.documents, a.logger)
			if err := svc.ExportFile(ctx, listID, format, out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		}),
	}
	cmd.Flags().UintVar(&listID, "list", 0, "list id")
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to <list name>.<ext>)")
	cmd.Flags().StringVar(&formatStr, "format", "", "csv or xlsx (defaults to configuration)")
	return cmd
}
