package http

import (
	"os"
	"strconv"
	"time"

	"tictactoe_online/internal/http/handlers"
	"tictactoe_online/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the API, the WebSocket endpoint and the health
// probes onto the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler) {
	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	r.GET("/api/health", health.Liveness)
	r.GET("/api/health/ready", health.Readiness)

	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	{
		api.POST("/auth/guest", h.Guest)
		api.GET("/leaderboard", h.GetLeaderboard)
		api.GET("/matches", h.GetRecentMatches)
		api.GET("/matches/:uid", h.GetPlayerMatches)
	}

	r.GET("/ws", h.WS())
}
