package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/attendance"
	"gym-occupancy-backend/internal/live"
	"gym-occupancy-backend/internal/mw"
	"gym-occupancy-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, tracker *attendance.Tracker, liveSvc *live.Service, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, tracker, liveSvc, webpushOptions, cfg.Occupancy.Heartbeat)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// Short-lived cache for the polled facility listing; dashboards poll
	// aggressively and the SSE stream carries the fresh data anyway.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/attendance/checkin", handler.CheckIn)
		api.POST("/attendance/:session_id/facility", handler.SelectFacility)
		api.POST("/attendance/:session_id/checkout", handler.CheckOut)
		api.GET("/attendance", handler.GetAttendance)

		api.GET("/facilities", caching, GetFacilities(liveSvc))
		api.GET("/facilities/stream", handler.StreamFacilities)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
