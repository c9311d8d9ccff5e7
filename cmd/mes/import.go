package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tzlun5274/mes-system/internal/catalog/service"
	"github.com/tzlun5274/mes-system/internal/imports"
	"github.com/tzlun5274/mes-system/internal/imports/storage"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import work orders from an .xlsx or .csv sheet",
	Long: `Stores the sheet with the configured storage driver, then upserts every
valid row. Rejected rows are listed with their row number.

Example:
  mes import --file orders.xlsx`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "sheet to import (.xlsx or .csv)")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	driver, err := storage.NewFromConfig(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	svc := imports.NewService(driver, service.NewCatalogService(db), logger)
	result, err := svc.Import(ctx, filepath.Base(importFile), f, "")
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(result)
}
