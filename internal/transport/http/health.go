package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/drop4/internal/service/game"
)

type HealthHandler struct {
	SessionManager *game.SessionManager
	Oracle         string
	CacheEnabled   func() bool
	startedAt      time.Time
}

func NewHealthHandler(sm *game.SessionManager, oracle string, cacheEnabled func() bool) *HealthHandler {
	return &HealthHandler{SessionManager: sm, Oracle: oracle, CacheEnabled: cacheEnabled, startedAt: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	cache := false
	if h.CacheEnabled != nil {
		cache = h.CacheEnabled()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"oracle":      h.Oracle,
		"cache":       cache,
		"activeGames": h.SessionManager.ActiveSessions(),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	})
}
