package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iamasit07/drop4/internal/domain"
	"github.com/iamasit07/drop4/internal/service/game"
	"github.com/iamasit07/drop4/pkg/auth"
	"github.com/iamasit07/drop4/pkg/logger"
	"github.com/iamasit07/drop4/pkg/uid"
)

const initTimeout = 10 * time.Second

type Handler struct {
	ConnManager    *ConnectionManager
	SessionManager *game.SessionManager
	JWTSecret      string
	Upgrader       websocket.Upgrader
}

// NewHandler accepts sockets from allowedOrigins; requests without an Origin
// header are accepted as well.
func NewHandler(cm *ConnectionManager, sm *game.SessionManager, jwtSecret string, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		ConnManager:    cm,
		SessionManager: sm,
		JWTSecret:      jwtSecret,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WS", "Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn)
}

func (h *Handler) handleConnection(conn *websocket.Conn) {
	// 1. The first message binds the socket to a game.
	conn.SetReadDeadline(time.Now().Add(initTimeout))
	session, ok := h.readInit(conn)
	if !ok {
		conn.Close()
		return
	}

	client := newClient(uid.GenerateConnectionID(), session.GameID, conn)
	h.ConnManager.AddConnection(client)
	go client.writePump()

	logger.Info("WS", "Connection %s joined game %s", client.ID, session.GameID)

	// 2. Every state change of the game is pushed, starting with the current one.
	unsubscribe := session.Controller.Subscribe(func(snap game.Snapshot) {
		client.Send(stateMessage(snap))
	})

	defer func() {
		unsubscribe()
		h.ConnManager.RemoveConnection(client.ID)
		client.Close()
		logger.Info("WS", "Connection %s left game %s", client.ID, session.GameID)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 3. Main message loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WS", "Connection %s dropped: %v", client.ID, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.Send(errorMessage("Invalid message format"))
			continue
		}

		session.Touch()
		h.processMessage(client, session, msg)
	}
}

func (h *Handler) readInit(conn *websocket.Conn) (*game.Session, bool) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		logger.Debug("WS", "Read error during init: %v", err)
		return nil, false
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "init" || msg.GameID == "" {
		logger.Debug("WS", "Missing or malformed init message")
		h.reject(conn, "Expected init message with gameId and token")
		return nil, false
	}

	if err := auth.AuthorizeGame(msg.Token, h.JWTSecret, msg.GameID); err != nil {
		logger.Warn("WS", "Rejected token for game %s: %v", msg.GameID, err)
		h.reject(conn, "Invalid game token")
		return nil, false
	}

	session, ok := h.SessionManager.GetSession(msg.GameID)
	if !ok {
		h.reject(conn, "Game not found")
		return nil, false
	}
	return session, true
}

// reject writes directly; no writer goroutine exists yet.
func (h *Handler) reject(conn *websocket.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(errorMessage(reason))
}

// processMessage routes one intent to the controller. Intents the game
// rejects leave it unchanged and are dropped; the next state push shows the
// client where things stand.
func (h *Handler) processMessage(client *Client, session *game.Session, msg ClientMessage) {
	switch msg.Type {
	case "click", "make_move":
		if msg.Column == nil {
			client.Send(errorMessage("column is required"))
			return
		}
		if err := session.Controller.Click(*msg.Column); err != nil {
			logger.Debug("WS", "Dropped click on column %d in %s: %v", *msg.Column, session.GameID, err)
		}

	case "select_mode":
		mode, err := domain.ModeFromWire(msg.Mode, msg.OraclePlayer)
		if err != nil {
			client.Send(errorMessage(err.Error()))
			return
		}
		if err := session.Controller.SelectMode(mode); err != nil {
			if errors.Is(err, domain.ErrOracleInFlight) {
				logger.Debug("WS", "Mode switch refused in %s: oracle is thinking", session.GameID)
				return
			}
			client.Send(errorMessage(err.Error()))
		}

	case "reset":
		session.Controller.Reset()

	case "state":
		client.Send(stateMessage(session.Controller.Snapshot()))

	default:
		client.Send(errorMessage("Unknown message type"))
	}
}
