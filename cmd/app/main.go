package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tictactoe_online/internal/config"
	"tictactoe_online/internal/db"
	httpServer "tictactoe_online/internal/http"
	"tictactoe_online/internal/http/handlers"
	"tictactoe_online/internal/http/middleware"
	"tictactoe_online/internal/leaderboard"
	"tictactoe_online/internal/logger"
	"tictactoe_online/internal/matchmaking"
	"tictactoe_online/internal/repository"
	"tictactoe_online/internal/service"
	"tictactoe_online/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	cfg := config.Load()
	service.InitJWT()

	st, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connect failed", "addr", cfg.RedisAddr, "error", err)
	}
	defer st.Close()
	logger.Info("store connected", "addr", cfg.RedisAddr)

	var matches *repository.MatchRepository
	var health *handlers.HealthHandler
	if cfg.DatabaseURL != "" {
		dbPool := db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
		matches = repository.NewMatchRepository(dbPool)
		health = handlers.NewHealthHandler(st, dbPool, version())
	} else {
		logger.Warn("DATABASE_URL not set, match history archive disabled")
		health = handlers.NewHealthHandler(st, nil, version())
	}

	board := leaderboard.New(st)
	stats := service.NewStatsService(board, matches)
	queue := matchmaking.NewQueue(st, matchmaking.Options{
		Timeout:  cfg.QueueTimeout,
		MinDelay: cfg.MatchMinDelay,
		MaxDelay: cfg.MatchMaxDelay,
	})

	h := handlers.NewHandler(st, queue, board, matches, stats, cfg.TurnTimeout)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(st.Client())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, h, health)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}
