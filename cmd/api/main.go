package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"door-catalog/internal/blob"
	"door-catalog/internal/cache"
	"door-catalog/internal/config"
	"door-catalog/internal/database"
	"door-catalog/internal/handlers"
	"door-catalog/internal/importer"
	"door-catalog/internal/logger"
	"door-catalog/internal/metrics"
	"door-catalog/internal/models"
	"door-catalog/internal/repository"
	"door-catalog/internal/routes"
	"door-catalog/internal/settings"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.Init(logger.Options{Level: cfg.LogLevel, Production: cfg.IsProduction(), File: cfg.LogFile})
	if err != nil {
		log.Fatalf("❌ Could not initialise logger: %v", err)
	}
	defer zlog.Sync()

	metrics.Register()

	ctx := context.Background()
	products, settingsRepo, cleanup := openStores(ctx, cfg)
	defer cleanup()

	registry := settings.NewRegistry(settingsRepo, seedSettings(cfg.SettingsSeedFile))
	if _, err := registry.Load(ctx); err != nil {
		zap.L().Fatal("Could not load settings", zap.Error(err))
	}

	blobs, err := blob.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		zap.L().Fatal("Could not prepare blob storage", zap.Error(err))
	}

	memCache := cache.New(cfg.CacheTTL, time.Minute)
	defer memCache.Close()

	pipeline := importer.NewPipeline(products, registry, blobs, importer.Options{
		PlaceholderImage: cfg.PlaceholderImage,
		UploadWorkers:    cfg.UploadWorkers,
	})
	tracker := importer.NewTracker(pipeline, memCache)

	productHandler := handlers.NewProductHandler(products, registry, memCache)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(), metrics.Middleware())
	router.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	routes.RegisterRoutes(router, routes.Handlers{
		Products:   productHandler,
		Settings:   handlers.NewSettingsHandler(registry, productHandler),
		Imports:    handlers.NewImportHandler(pipeline, tracker, productHandler, cfg.MaxUploadMB),
		UploadsDir: blobs.Dir(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zap.L().Info("🚀 Server running", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	// las importaciones en curso no se cancelan
	tracker.Wait()
}

// openStores elige el almacenamiento según STORE_DRIVER
func openStores(ctx context.Context, cfg *config.Config) (repository.ProductRepository, repository.SettingsRepository, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		zap.L().Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryProductRepository(), repository.NewMemorySettingsRepository(), func() {}
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		zap.L().Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	db := client.Database(cfg.MongoDB)

	products := repository.NewMongoProductRepository(db.Collection("products"))
	if err := products.EnsureIndexes(ctx); err != nil {
		zap.L().Fatal("Could not create indexes", zap.Error(err))
	}

	return products, repository.NewMongoSettingsRepository(db.Collection("settings")), func() {
		database.Disconnect(client)
	}
}

func seedSettings(path string) models.Settings {
	if path == "" {
		return settings.DefaultSettings()
	}
	seed, err := settings.LoadSeed(path)
	if err != nil {
		zap.L().Warn("Could not read settings seed, using defaults", zap.String("file", path), zap.Error(err))
		return settings.DefaultSettings()
	}
	return seed
}
