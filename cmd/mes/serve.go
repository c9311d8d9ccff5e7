package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tzlun5274/mes-system/internal/catalog/router"
	"github.com/tzlun5274/mes-system/internal/catalog/service"
	"github.com/tzlun5274/mes-system/internal/csrf"
	"github.com/tzlun5274/mes-system/internal/database"
	"github.com/tzlun5274/mes-system/internal/imports"
	"github.com/tzlun5274/mes-system/internal/imports/storage"
	"github.com/tzlun5274/mes-system/internal/middleware"
)

const (
	shutdownTimeout    = 30 * time.Second
	tokenPurgeInterval = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fill-work catalog API server",
	Long: `Starts the HTTP server. The catalog endpoints, the csrf-token endpoint and
the work-order import endpoints are mounted under API_PREFIX; Prometheus
metrics are served on /metrics.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("server configuration",
		zap.Int("port", cfg.Server.Port),
		zap.String("api_prefix", cfg.Server.APIPrefix),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_type", cfg.Storage.Type),
	)
	logger.Info("CORS configuration",
		zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins),
		zap.Strings("allowed_methods", cfg.CORS.AllowedMethods),
		zap.Bool("allow_credentials", cfg.CORS.AllowCredentials),
	)

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	driver, err := storage.NewFromConfig(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	catalogService := service.NewCatalogService(db)
	tokens := csrf.NewService(db, cfg.Server.CSRFTTL, logger)
	importService := imports.NewService(driver, catalogService, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newEngine(db, catalogService, tokens, importService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go purgeTokens(ctx, tokens)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}

func newEngine(db *gorm.DB, catalogService *service.CatalogService, tokens *csrf.Service, importService *imports.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CORS(&cfg.CORS),
		middleware.Metrics(),
		middleware.Logger(logger),
	)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		if err := database.HealthCheck(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	api := engine.Group(cfg.Server.APIPrefix)
	api.GET("/csrf-token", tokens.HandleIssueToken)
	router.NewCatalogRouter(catalogService, logger).Register(api)

	protected := api.Group("", csrf.Middleware(tokens))
	imports.NewHTTPHandler(importService).Register(protected)
	return engine
}

// purgeTokens drops expired CSRF tokens until ctx is done.
func purgeTokens(ctx context.Context, tokens *csrf.Service) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired csrf tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged expired csrf tokens", zap.Int64("count", n))
			}
		}
	}
}
