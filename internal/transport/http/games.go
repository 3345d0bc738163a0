package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/drop4/internal/domain"
	"github.com/iamasit07/drop4/internal/service/game"
	"github.com/iamasit07/drop4/pkg/auth"
	"github.com/iamasit07/drop4/pkg/logger"
)

type GameHandler struct {
	SessionManager *game.SessionManager
	JWTSecret      string
	TokenTTL       time.Duration
}

func NewGameHandler(sm *game.SessionManager, jwtSecret string, tokenTTL time.Duration) *GameHandler {
	return &GameHandler{SessionManager: sm, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

type modeRequest struct {
	Mode         string `json:"mode"`
	OraclePlayer string `json:"oracle_player"`
}

type moveRequest struct {
	Column *int `json:"column"`
}

type createGameResponse struct {
	Game  game.Snapshot `json:"game"`
	Token string        `json:"token"`
}

// CreateGame starts a game and returns the token that controls it. An empty
// body starts a human-vs-human game.
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req modeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	mode, err := domain.ModeFromWire(req.Mode, req.OraclePlayer)
	if err != nil {
		writeError(c, err)
		return
	}

	session := h.SessionManager.CreateSession(mode)
	token, err := auth.GenerateGameToken(session.GameID, h.JWTSecret, h.TokenTTL)
	if err != nil {
		logger.Error("HTTP", "Failed to sign token for %s: %v", session.GameID, err)
		h.SessionManager.RemoveSession(session.GameID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}

	c.JSON(http.StatusCreated, createGameResponse{Game: session.Controller.Snapshot(), Token: token})
}

func (h *GameHandler) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.SessionManager.LiveGames())
}

func (h *GameHandler) GetGame(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Controller.Snapshot())
}

// PlayMove drops a disc for the human whose turn it is. The response carries
// the state right after the move; an oracle reply arrives later.
func (h *GameHandler) PlayMove(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Column == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
		return
	}

	session.Touch()
	if err := session.Controller.Click(*req.Column); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Controller.Snapshot())
}

func (h *GameHandler) SelectMode(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	mode, err := domain.ModeFromWire(req.Mode, req.OraclePlayer)
	if err != nil {
		writeError(c, err)
		return
	}

	session.Touch()
	if err := session.Controller.SelectMode(mode); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Controller.Snapshot())
}

func (h *GameHandler) ResetGame(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Touch()
	session.Controller.Reset()
	c.JSON(http.StatusOK, session.Controller.Snapshot())
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	if err := h.SessionManager.RemoveSession(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) session(c *gin.Context) (*game.Session, bool) {
	session, ok := h.SessionManager.GetSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return nil, false
	}
	return session, true
}

// writeError maps domain errors to status codes. Rejected intents never
// change the game, so they are client errors.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrIllegalMove):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotYourTurn),
		errors.Is(err, domain.ErrGameFinished),
		errors.Is(err, domain.ErrOracleInFlight):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnknownMode):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
