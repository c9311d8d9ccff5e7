package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tzlun5274/mes-system/internal/catalog/service"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load work orders and resource lists from a YAML file",
	Long: `Upserts the work orders, operators, processes and equipment listed in a
YAML catalog file.

Example:
  mes seed --file catalog.yaml`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog file")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	seed, err := service.DecodeSeed(f)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	result, err := service.NewCatalogService(db).Seed(cmd.Context(), seed)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded",
		zap.String("file", seedFile),
		zap.Int("workorders", result.WorkOrders),
		zap.Int("operators", result.Operators),
		zap.Int("processes", result.Processes),
		zap.Int("equipment", result.Equipment),
	)
	return nil
}
