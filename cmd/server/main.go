package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inventra/asset-management-api/internal/router"
	"github.com/inventra/asset-management-api/internal/system/config"
	"github.com/inventra/asset-management-api/internal/system/database"
	"github.com/inventra/asset-management-api/internal/system/database/provider"
	"github.com/inventra/asset-management-api/internal/system/log"
	"github.com/inventra/asset-management-api/internal/system/stores"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// .env is optional; real deployments configure through deployment.yaml
	// and ASSET_MGT_* environment variables.
	_ = godotenv.Load()

	logger := log.GetLogger()
	logger.Info("Starting Asset Management API Server",
		log.String("version", version),
		log.String("build_date", buildDate))

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", log.Error(err))
	}
	log.SetLevel(cfg.Logging.Level)

	db, err := database.Initialize(&cfg.Database.Asset)
	if err != nil {
		logger.Fatal("Failed to initialize database", log.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		logger.Fatal("Database health check failed", log.Error(err))
	}
	logger.Info("Database connection established")

	provider.InitDBProvider(db, cfg.Database.Asset.Type)
	dbClient, err := provider.GetDBProvider().GetAssetDBClient()
	if err != nil {
		logger.Fatal("Failed to get database client", log.Error(err))
	}

	registry := stores.InitRegistry(dbClient)
	engine := router.New(cfg, db, registry)

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("Starting HTTP server", log.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", log.Error(err))
	}

	logger.Info("Server stopped")
}
