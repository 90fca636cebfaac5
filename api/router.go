package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitegrade/api/handler"
	"github.com/use-agent/sitegrade/api/middleware"
	"github.com/use-agent/sitegrade/browser"
	"github.com/use-agent/sitegrade/cache"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/pipeline"
	"github.com/use-agent/sitegrade/progress"
	"github.com/use-agent/sitegrade/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(runner *pipeline.Runner, pool *browser.Pool, st *store.Store,
	tracker *progress.Tracker, cc *cache.Cache, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(pool, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scan
	protected.POST("/scan", handler.PostScan(runner, st, cc))
	protected.GET("/scan/:id", handler.GetScan(st, tracker))
	protected.GET("/scan/:id/report", handler.GetReport(st))

	return r
}
