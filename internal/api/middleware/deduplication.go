package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

var (
	// Fingerprints of recent POST bodies, for collapsing accidental
	// double-submits of the same extraction.
	requestCache = struct {
		sync.RWMutex
		requests map[string]time.Time
	}{
		requests: make(map[string]time.Time),
	}

	cleanupOnce sync.Once
)

func startDeduplicationCleanup(cfg *config.Config) {
	cleanupOnce.Do(func() {
		interval := 10 * time.Minute
		window := 1 * time.Second
		if cfg != nil && cfg.DedupWindow > 0 {
			window = cfg.DedupWindow
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				now := time.Now()
				requestCache.Lock()
				for k, t := range requestCache.requests {
					if now.Sub(t) > 10*window {
						delete(requestCache.requests, k)
					}
				}
				requestCache.Unlock()
			}
		}()
	})
}

// Deduplication rejects a POST identical to one seen within the dedup window.
func Deduplication(cfg *config.Config) gin.HandlerFunc {
	startDeduplicationCleanup(cfg)
	return func(c *gin.Context) {
		dedupWindow := 1 * time.Second
		if cfg != nil && cfg.DedupWindow > 0 {
			dedupWindow = cfg.DedupWindow
		}

		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}

			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// Hand the body back to the handler chain.
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		now := time.Now()
		requestCache.RLock()
		if lastTime, exists := requestCache.requests[fingerprint]; exists {
			if now.Sub(lastTime) <= dedupWindow {
				requestCache.RUnlock()
				c.JSON(429, gin.H{
					"error": "Request too frequent",
					"code":  "TOO_MANY_REQUESTS",
				})
				c.Abort()
				return
			}
		}
		requestCache.RUnlock()

		requestCache.Lock()
		requestCache.requests[fingerprint] = now
		requestCache.Unlock()

		c.Next()
	}
}
