package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/drop4/internal/transport/http/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      string
	Games          *GameHandler
	Health         *HealthHandler
	WebSocket      http.HandlerFunc
	Quiet          bool // skip the request log, for tests
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if !cfg.Quiet {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	api := router.Group("/api")
	api.GET("/health", cfg.Health.Health)

	// Public game routes
	api.POST("/games", cfg.Games.CreateGame)
	api.GET("/games", cfg.Games.ListGames)
	api.GET("/games/:id", cfg.Games.GetGame)

	// Routes that need the game's token
	owned := api.Group("/games/:id")
	owned.Use(middleware.GameTokenMiddleware(cfg.JWTSecret))
	{
		owned.POST("/moves", cfg.Games.PlayMove)
		owned.PUT("/mode", cfg.Games.SelectMode)
		owned.POST("/reset", cfg.Games.ResetGame)
		owned.DELETE("", cfg.Games.DeleteGame)
	}

	// auth for the socket happens in its init message
	if cfg.WebSocket != nil {
		router.GET("/ws", gin.WrapF(cfg.WebSocket))
	}

	return router
}
