package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/extract/gemini"
	"github.com/ksugimori/docscan/internal/scan"
)

func scanCmd() *cobra.Command {
	var documentID, conditionID uint
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one extraction for a document against a condition",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, _ []string) error {
			if documentID == 0 {
				return common.ValidationErrorf("--document is required")
			}

			client := gemini.NewClient(gemini.Config{
				APIKey:   a.cfg.Extractor.APIKey,
				BaseURL:  a.cfg.Extractor.BaseURL,
				Model:    a.cfg.Extractor.Model,
				Timeout:  a.cfg.Extractor.Timeout,
				JSONMode: a.cfg.Extractor.JSONMode,
			}, a.logger)

			svc := scan.NewService(a.documents, a.conditions, a.results, a.files, client, a.logger)
			outcome, err := svc.Scan(ctx, documentID, conditionID)
			if err != nil {
				return err
			}

			for _, fv := range outcome.Fields {
				fmt.Printf("%s: %s\n", fv.Name, fv.Value)
			}
			if len(outcome.Dropped) > 0 {
				fmt.Printf("(discarded %d undeclared key(s))\n", len(outcome.Dropped))
			}
			return nil
		}),
	}
	cmd.Flags().UintVar(&documentID, "document", 0, "document id")
	cmd.Flags().UintVar(&conditionID, "condition", 0, "condition id")
	return cmd
}
