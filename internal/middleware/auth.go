package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ndarenkov/pollwise/internal/services/auth"
)

type AuthMiddleware struct {
	authService *auth.Auth
}

func NewAuthMiddleware(authService *auth.Auth) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Require rejects requests without a valid access token.
func (m *AuthMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractTokenFromHeader(c.GetHeader("Authorization"))
		if accessToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		userID, email, err := m.authService.ValidateToken(c.Request.Context(), accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("userID", userID)
		c.Set("userEmail", email)
		c.Next()
	}
}

// Identify resolves the current user when a valid token is present and
// otherwise lets the request through anonymously. Public reads use this so
// the read model can surface "current user id or none".
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractTokenFromHeader(c.GetHeader("Authorization"))
		if accessToken != "" {
			if userID, email, err := m.authService.ValidateToken(c.Request.Context(), accessToken); err == nil {
				c.Set("userID", userID)
				c.Set("userEmail", email)
			}
		}
		c.Next()
	}
}

func extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
