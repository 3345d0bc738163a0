package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/drop4/pkg/auth"
)

// GameTokenMiddleware requires "Authorization: Bearer <token>" where the
// token was issued for the game in the :id path parameter.
func GameTokenMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing game token"})
			return
		}

		if err := auth.AuthorizeGame(token, secret, c.Param("id")); err != nil {
			if errors.Is(err, auth.ErrWrongGame) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token does not match this game"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid game token"})
			return
		}

		c.Next()
	}
}
