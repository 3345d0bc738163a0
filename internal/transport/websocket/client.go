package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iamasit07/drop4/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 32
)

// Client is one socket bound to one game. All writes go through writePump,
// since gorilla connections allow a single concurrent writer.
type Client struct {
	ID     string
	GameID string

	conn      *websocket.Conn
	send      chan ServerMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id, gameID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		GameID: gameID,
		conn:   conn,
		send:   make(chan ServerMessage, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send queues msg. A client that cannot keep up is disconnected rather than
// allowed to stall the game.
func (c *Client) Send(msg ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		logger.Warn("WS", "Client %s is too slow, closing", c.ID)
		c.Close()
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
			if msg.Type == "closed" {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, msg.Message),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// ConnectionManager tracks open sockets by connection and by game.
type ConnectionManager struct {
	clients map[string]*Client            // connID → Client
	games   map[string]map[string]*Client // gameID → connID → Client
	mu      sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
		games:   make(map[string]map[string]*Client),
	}
}

func (cm *ConnectionManager) AddConnection(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.clients[c.ID] = c
	if cm.games[c.GameID] == nil {
		cm.games[c.GameID] = make(map[string]*Client)
	}
	cm.games[c.GameID][c.ID] = c
}

func (cm *ConnectionManager) RemoveConnection(connID string) {
	cm.mu.Lock()
	c, exists := cm.clients[connID]
	if exists {
		delete(cm.clients, connID)
		delete(cm.games[c.GameID], connID)
		if len(cm.games[c.GameID]) == 0 {
			delete(cm.games, c.GameID)
		}
	}
	cm.mu.Unlock()

	if exists {
		c.Close()
	}
}

// DisconnectGame tells every socket on gameID why it is closing. Each socket
// closes once the notice has been written.
func (cm *ConnectionManager) DisconnectGame(gameID, reason string) {
	cm.mu.Lock()
	targets := cm.games[gameID]
	delete(cm.games, gameID)
	for id := range targets {
		delete(cm.clients, id)
	}
	cm.mu.Unlock()

	for _, c := range targets {
		c.Send(ServerMessage{Type: "closed", Message: reason})
	}
}

func (cm *ConnectionManager) GameConnections(gameID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.games[gameID])
}

func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	ids := make([]string, 0, len(cm.clients))
	for id := range cm.clients {
		ids = append(ids, id)
	}
	cm.mu.RUnlock()

	for _, id := range ids {
		cm.RemoveConnection(id)
	}
}
