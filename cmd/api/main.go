package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/iamasit07/drop4/internal/config"
	"github.com/iamasit07/drop4/internal/event"
	"github.com/iamasit07/drop4/internal/repository/redis"
	"github.com/iamasit07/drop4/internal/service/bot"
	"github.com/iamasit07/drop4/internal/service/cleanup"
	"github.com/iamasit07/drop4/internal/service/game"
	"github.com/iamasit07/drop4/internal/service/oracle"
	transportHttp "github.com/iamasit07/drop4/internal/transport/http"
	"github.com/iamasit07/drop4/internal/transport/websocket"
	"github.com/iamasit07/drop4/pkg/logger"
)

type namedOracle interface {
	game.Oracle
	Name() string
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			logger.Info("CONFIG", "No .env file found, using the environment")
		}
	}

	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("CONFIG", "Invalid configuration: %v", err)
	}

	// 1. Optional infrastructure
	if err := redis.InitRedis(cfg.RedisURL, cfg.RedisPassword); err != nil {
		logger.Error("REDIS", "Failed to initialize Redis: %v", err)
	}
	defer redis.CloseRedis()

	var events game.EventSink
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := event.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaUser, cfg.KafkaPassword)
		if err != nil {
			logger.Warn("KAFKA", "Game events disabled: %v", err)
		} else {
			events = producer
			defer producer.Close()
		}
	}

	// 2. The move oracle
	moveOracle := newOracle(cfg)
	logger.Info("ORACLE", "Using %s (fallback %s, %d attempts, %s timeout)",
		moveOracle.Name(), cfg.Oracle.Fallback, cfg.Oracle.MaxAttempts, cfg.Oracle.Timeout)

	policy := game.OraclePolicy{
		Timeout:     cfg.Oracle.Timeout,
		MaxAttempts: cfg.Oracle.MaxAttempts,
		Fallback:    cfg.Oracle.Fallback,
	}

	// 3. Games and their transports
	sessionManager := game.NewSessionManager(moveOracle, policy, events)
	connManager := websocket.NewConnectionManager()
	sessionManager.OnRemove(func(gameID string) {
		connManager.DisconnectGame(gameID, "Game closed")
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	cleanup.NewWorker(sessionManager, cfg.CleanupInterval, cfg.GameIdleTTL).Start(ctx)

	wsHandler := websocket.NewHandler(connManager, sessionManager, cfg.JWTSecret, cfg.AllowedOrigins)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transportHttp.NewRouter(transportHttp.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		Games:          transportHttp.NewGameHandler(sessionManager, cfg.JWTSecret, cfg.GameTokenTTL),
		Health:         transportHttp.NewHealthHandler(sessionManager, moveOracle.Name(), redis.IsRedisEnabled),
		WebSocket:      wsHandler.HandleWebSocket,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("SERVER", "Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("SERVER", "Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("SERVER", "Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop()
	connManager.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("SERVER", "Server forced to shutdown: %v", err)
	}
	sessionManager.Close()

	logger.Info("SERVER", "Server exited gracefully")
}

func newOracle(cfg *config.Config) namedOracle {
	if cfg.Oracle.Provider != "openai" {
		return bot.NewOracle(cfg.Oracle.Difficulty)
	}

	var cache oracle.Cache
	if redis.IsRedisEnabled() && redis.RedisClient != nil {
		cache = redis.NewMoveCache(redis.RedisClient)
	}

	return oracle.NewClient(oracle.Options{
		APIKey:        cfg.Oracle.APIKey,
		BaseURL:       cfg.Oracle.BaseURL,
		Model:         cfg.Oracle.Model,
		Timeout:       cfg.Oracle.Timeout,
		RatePerSecond: cfg.Oracle.RatePerSecond,
		Burst:         cfg.Oracle.Burst,
		Cache:         cache,
		CacheTTL:      cfg.Oracle.CacheTTL,
	})
}
