package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"laundrospin-backend/config"
	"laundrospin-backend/internal/mw"
	"laundrospin-backend/internal/session"
	"laundrospin-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. cacheStore is
// shared with the lifecycle poller, which flushes it on status changes.
func NewRouter(cfg *config.ServerConfig, s store.Store, manager *session.Manager, cacheStore *cache.Cache) *gin.Engine {
	r := gin.Default()

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	handler := NewHandler(s, manager, cacheStore)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/machines", caching, handler.ListMachines)
		api.GET("/machines/:id", caching, handler.GetMachine)
		api.PATCH("/machines/:id/status", handler.SetMachineStatus)

		api.POST("/sessions", handler.StartSession)
		api.PATCH("/sessions/:id/end", handler.EndSession)

		api.GET("/pricing", handler.GetPricing)
	}

	return r
}
