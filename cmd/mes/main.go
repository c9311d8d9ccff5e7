package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tzlun5274/mes-system/internal/catalog/model"
	"github.com/tzlun5274/mes-system/internal/config"
	"github.com/tzlun5274/mes-system/internal/csrf"
	"github.com/tzlun5274/mes-system/internal/database"
	"github.com/tzlun5274/mes-system/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mes",
	Short: "MES fill-work catalog server and tools",
	Long: `mes serves the fill-work catalog API (work orders, products, operators,
processes, equipment) used by production report forms, and provides tools to
migrate, seed and import the catalog and to resolve form selections from the
command line.

Configuration is read from environment variables (DB_DRIVER, DB_HOST,
SERVER_PORT, STORAGE_TYPE, LOG_LEVEL, RESOLVER_BASE_URL, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, importCmd, resolveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// models lists every table the server owns.
func models() []any {
	return append(model.All(), &csrf.Token{})
}

// openDatabase connects, health-checks and migrates the configured database.
func openDatabase() (*gorm.DB, error) {
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.HealthCheck(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	if err := database.Migrate(db, models()...); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}
}
