package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ksugimori/docscan/constants"
	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/filestore"
)

func fileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Manage uploaded documents",
	}

	var uploadList uint
	upload := &cobra.Command{
		Use:   "upload PATH...",
		Short: "Copy files into a list's storage and record them",
		Args:  cobra.MinimumNArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			if uploadList == 0 {
				return common.ValidationErrorf("--list is required")
			}
			if _, err := a.lists.Get(ctx, uploadList); err != nil {
				return err
			}
			for _, src := range args {
				name := filepath.Base(src)
				rel, kind, err := a.files.SaveUpload(uploadList, src, name)
				if err != nil {
					return err
				}
				doc, err := a.documents.Create(ctx, uploadList, name, rel, kind)
				if err != nil {
					_ = a.files.Remove(rel)
					return err
				}
				fmt.Printf("%d\t%s\t%s\n", doc.ID, doc.Filename, doc.StoragePath)
				if kind == constants.KindPDF {
					if abs, rerr := a.files.Resolve(rel); rerr == nil {
						if pages, perr := filestore.PDFPageCount(abs); perr == nil {
							fmt.Printf("warning: PDF with %d page(s); convert pages to images before scanning\n", pages)
						}
					}
				}
			}
			return nil
		}),
	}
	upload.Flags().UintVar(&uploadList, "list", 0, "target list id")

	rm := &cobra.Command{
		Use:   "rm ID...",
		Short: "Delete documents and their physical files",
		Args:  cobra.MinimumNArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, s := range args {
				id, err := parseID(s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			deleted, err := a.documents.DeleteBatch(ctx, ids, a.files.Remove)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d document(s)\n", deleted)
			return nil
		}),
	}

	var lsList uint
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List documents in a list",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(ctx context.Context, a *app, _ []string) error {
			if lsList == 0 {
				return common.ValidationErrorf("--list is required")
			}
			docs, err := a.documents.ListByList(ctx, lsList)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				status := "unscanned"
				if doc.IsScanned {
					status = "scanned"
				}
				fmt.Printf("%d\t%s\t%s\t%s\n", doc.ID, doc.Filename, doc.FileKind, status)
			}
			return nil
		}),
	}
	ls.Flags().UintVar(&lsList, "list", 0, "list id")

	cmd.AddCommand(upload, rm, ls)
	return cmd
}
