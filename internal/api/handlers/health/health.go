// Package health serves liveness and readiness probes.
package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	AICache   *CacheStatus           `json:"ai_cache,omitempty"`
}

// CacheStatus reports AI response cache counters.
type CacheStatus struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// CacheStats is the counter source, satisfied by the AI cache manager.
type CacheStats interface {
	Stats() (hits, misses, evictions int64)
}

// HealthCheck reports service status, runtime stats and cache counters.
func HealthCheck(cfg *config.Config, cacheStats CacheStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   cfg.App.Version,
			Runtime: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc":       m.Alloc,
					"total_alloc": m.TotalAlloc,
					"sys":         m.Sys,
					"num_gc":      m.NumGC,
				},
			},
		}

		if cacheStats != nil {
			hits, misses, evictions := cacheStats.Stats()
			response.AICache = &CacheStatus{Hits: hits, Misses: misses, Evictions: evictions}
		}

		common.LogDebug("Health check request",
			zap.String("client_ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
		)

		c.JSON(http.StatusOK, response)
	}
}

// ReadinessCheck reports whether the service can take traffic.
func ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck reports whether the process is alive.
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
