package config

import (
	"os"
	"strconv"
	"time"

	"tictactoe_online/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	JWTSecret   string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	DatabaseURL string // optional; empty disables the match history archive

	// Protocol timings
	TurnTimeout   time.Duration
	QueueTimeout  time.Duration
	MatchMinDelay time.Duration
	MatchMaxDelay time.Duration
}

// Load reads configuration from the environment
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Fatal("REDIS_ADDR is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			redisDB = n
		}
	}

	return &Config{
		AppPort:       port,
		JWTSecret:     jwtSecret,
		RedisAddr:     redisAddr,
		RedisPass:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		TurnTimeout:   durationEnv("TURN_TIMEOUT_SECONDS", 15*time.Second),
		QueueTimeout:  durationEnv("QUEUE_TIMEOUT_SECONDS", 20*time.Second),
		MatchMinDelay: durationEnv("MATCH_MIN_DELAY_SECONDS", 2*time.Second),
		MatchMaxDelay: durationEnv("MATCH_MAX_DELAY_SECONDS", 4*time.Second),
	}
}

func durationEnv(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
