package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"recipe-extractor/internal/api"
	aicache "recipe-extractor/internal/core/ai/cache"
	"recipe-extractor/internal/core/ai/extract"
	"recipe-extractor/internal/core/ai/openrouter"
	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/image"
	"recipe-extractor/internal/core/pipeline"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
	storagecache "recipe-extractor/internal/storage/cache"
	"recipe-extractor/internal/storage/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("configuration loaded",
		zap.Bool("ai_enabled", cfg.OpenRouter.Enabled),
		zap.String("openrouter_api_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("sqlite_path", cfg.Storage.SQLitePath),
		zap.Bool("redis_enabled", cfg.Storage.RedisEnabled),
	)

	cacheManager := aicache.NewManager(cfg)
	if cfg.Cache.Enabled && cacheManager == nil {
		common.LogFatal("Failed to initialize cache manager")
	}
	defer cacheManager.Close()

	aiService := extract.NewService(cfg, openrouter.NewClient(cfg), cacheManager)

	fetcher := fetch.New(&cfg.Fetch)
	defer fetcher.Close()

	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		common.LogFatal("Failed to open recipe store", zap.Error(err))
	}
	defer store.Close()

	recipes, err := storagecache.NewService(&cfg.Storage)
	if err != nil {
		common.LogFatal("Failed to connect recipe cache", zap.Error(err))
	}
	defer recipes.Close()

	orch := pipeline.New(fetcher, aiService, image.NewService(cfg))

	router := api.SetupRouter(api.Deps{
		Config:       cfg,
		Orchestrator: orch,
		Store:        store,
		Recipes:      recipes,
		AICache:      cacheManager,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("starting server",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("server exited")
}
