// Package api wires the HTTP surface: middleware chain, routes and the
// request timeout envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	extractHandler "recipe-extractor/internal/api/handlers/extract"
	"recipe-extractor/internal/api/handlers/health"
	"recipe-extractor/internal/api/middleware"
	aicache "recipe-extractor/internal/core/ai/cache"
	"recipe-extractor/internal/core/pipeline"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
	storagecache "recipe-extractor/internal/storage/cache"
	"recipe-extractor/internal/storage/sqlite"
)

const (
	// One envelope for the whole pipeline: rendered fetch plus a model call.
	timeoutDuration = 120 * time.Second
	// Request body cap (16MB: a 10MB image grows ~37% in base64).
	maxBodySize = 16 << 20
)

// Deps is everything the router needs, assembled in main.
type Deps struct {
	Config       *config.Config
	Orchestrator *pipeline.Orchestrator
	Store        *sqlite.Store
	Recipes      *storagecache.Service
	AICache      *aicache.Manager
}

// SetupRouter builds the gin engine with the full middleware chain and routes.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Deduplication(cfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// Timeout envelope around every request.
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	})

	var cacheStats health.CacheStats
	if deps.AICache != nil {
		cacheStats = deps.AICache
	}
	router.GET("/health", health.HealthCheck(cfg, cacheStats))
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	h := extractHandler.NewHandler(deps.Orchestrator, deps.Store, deps.Recipes)

	api := router.Group("/api/v1")
	{
		api.POST("/extract", h.HandleExtract)
		api.POST("/extract/image", h.HandleExtractImage)
		api.GET("/recipes/:id", h.HandleGetRecipe)
		api.GET("/recipes", h.HandleListRecipes)
		api.DELETE("/recipes/:id", h.HandleDeleteRecipe)
	}

	common.LogInfo("Router setup completed",
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}
