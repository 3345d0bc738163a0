package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongGame    = errors.New("token belongs to another game")
)

// GameClaims grant control of one game to whoever holds the token.
type GameClaims struct {
	GameID string `json:"game_id"`
	jwt.RegisteredClaims
}

// GenerateGameToken signs a token for gameID that expires after ttl.
func GenerateGameToken(gameID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &GameClaims{
		GameID: gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   gameID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateGameToken checks the signature and expiry and returns the claims.
func ValidateGameToken(tokenString, secret string) (*GameClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &GameClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*GameClaims); ok && token.Valid && claims.GameID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// AuthorizeGame validates tokenString and requires it to name gameID.
func AuthorizeGame(tokenString, secret, gameID string) error {
	claims, err := ValidateGameToken(tokenString, secret)
	if err != nil {
		return err
	}
	if claims.GameID != gameID {
		return ErrWrongGame
	}
	return nil
}
