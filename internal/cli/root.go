// Package cli wires the cobra command tree. Every command is one logical
// operation: it opens the storage handle, does its work, and releases it
// before returning control.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/filestore"
	"github.com/ksugimori/docscan/internal/repository"
)

var (
	flagDataDir string
	flagAPIKey  string
)

var rootCmd = &cobra.Command{
	Use:           "docscan",
	Short:         "Manage document-scanning workflows: conditions, lists, uploads, scans, exports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", ".", "directory holding the database and upload root")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "extraction API key (or DOCSCAN_API_KEY)")

	rootCmd.AddCommand(conditionCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(fileCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// app bundles the opened stores for one command invocation.
type app struct {
	cfg        *common.Config
	db         *gorm.DB
	conditions repository.ConditionRepository
	lists      repository.DocumentListRepository
	documents  repository.DocumentRepository
	results    repository.ExtractionResultRepository
	files      *filestore.Store
	logger     *slog.Logger
}

// openApp loads configuration and opens the record and file stores. The
// returned closer must run before the command exits.
func openApp(ctx context.Context) (*app, func(), error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := common.LoadConfig(flagDataDir)
	if err != nil {
		return nil, nil, err
	}
	if flagAPIKey != "" {
		cfg.Extractor.APIKey = flagAPIKey
	}
	if cfg.Extractor.APIKey == "" {
		cfg.Extractor.APIKey = os.Getenv("DOCSCAN_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := repository.Open(ctx, repository.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		return nil, nil, err
	}
	files, err := filestore.New(cfg.Storage.UploadRoot, logger)
	if err != nil {
		repository.Close(db, logger)
		return nil, nil, err
	}

	a := &app{
		cfg:        cfg,
		db:         db,
		conditions: repository.NewConditionRepository(db, logger),
		lists:      repository.NewDocumentListRepository(db, logger),
		documents:  repository.NewDocumentRepository(db, logger),
		results:    repository.NewExtractionResultRepository(db, logger),
		files:      files,
		logger:     logger,
	}
	return a, func() { repository.Close(db, logger) }, nil
}

// runWithApp wraps a command body with store lifecycle management.
func runWithApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, closer, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closer()
		return fn(ctx, a, args)
	}
}
