package websocket

import "github.com/iamasit07/drop4/internal/service/game"

// ClientMessage is any message a browser sends. Column is a pointer so that
// a missing column is told apart from column 0.
type ClientMessage struct {
	Type         string `json:"type"`
	GameID       string `json:"gameId,omitempty"`
	Token        string `json:"token,omitempty"`
	Column       *int   `json:"column,omitempty"`
	Mode         string `json:"mode,omitempty"`
	OraclePlayer string `json:"oraclePlayer,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"`
	Game    *game.Snapshot `json:"game,omitempty"`
	Message string         `json:"message,omitempty"`
}

func stateMessage(snap game.Snapshot) ServerMessage {
	return ServerMessage{Type: "state", Game: &snap}
}

func errorMessage(msg string) ServerMessage {
	return ServerMessage{Type: "error", Message: msg}
}
