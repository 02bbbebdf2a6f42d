package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PulsaGit/promo_api/internal/cache"
	"github.com/PulsaGit/promo_api/internal/utils"
)

type JWTMiddleware struct {
	blacklist *cache.TokenBlacklist
}

func NewJWTMiddleware(blacklist *cache.TokenBlacklist) *JWTMiddleware {
	return &JWTMiddleware{blacklist: blacklist}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			// EventSource cannot set headers; SSE clients send the
			// token as a query parameter instead.
			token = c.Query("token")
		}
		if token == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		if m.blacklist != nil && m.blacklist.IsRevoked(c.Request.Context(), token) {
			utils.Error(c, 401, "INVALID_TOKEN", "Token has been revoked")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("token", token)
		if claims.ExpiresAt != nil {
			c.Set("token_expires_at", claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
