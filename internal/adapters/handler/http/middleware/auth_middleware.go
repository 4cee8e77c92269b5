package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hearthschool/goaltrack/internal/core/services"
)

const (
	authorizationHeader    = "Authorization"
	authorizationType      = "Bearer"
	ContextPersonIDKey     = "personID"
	ContextHomeschoolIDKey = "homeschoolID"
)

func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || fields[0] != authorizationType {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := fields[1]

		claims, err := tokenService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextPersonIDKey, claims.PersonID)
		c.Set(ContextHomeschoolIDKey, claims.HomeschoolID)

		c.Next()
	}
}

func GetPersonID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextPersonIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}

func GetHomeschoolID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextHomeschoolIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}
