package middleware

import (
	"strings"

	"github.com/chachabrian/carpool-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie the login handler sets. Browser clients carry
// the session this way; API clients may use a Bearer header instead.
const SessionCookie = "carpool_session"

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// First try to get token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Then the session cookie
		if tokenString == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				tokenString = cookie
			}
		}

		// Finally a query parameter (for WebSocket)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Please log in first", "redirect": "/login"})
			c.Abort()
			return
		}

		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid or expired session", "redirect": "/login"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid session claims", "redirect": "/login"})
			c.Abort()
			return
		}

		c.Set("userId", uint(claims["id"].(float64)))
		c.Set("userName", claims["name"].(string))
		c.Next()
	}
}
