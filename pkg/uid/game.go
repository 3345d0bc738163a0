package uid

import "github.com/google/uuid"

// GenerateGameID returns a random UUID for a new game.
func GenerateGameID() string {
	return uuid.New().String()
}

// GenerateConnectionID tags one websocket connection in logs and registries.
func GenerateConnectionID() string {
	return "conn-" + uuid.New().String()[:8]
}
