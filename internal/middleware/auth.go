package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shivansh47201/vartalap/pkg/jwt"
	"github.com/Shivansh47201/vartalap/pkg/response"
)

// TokenValidator checks a session token's signature and revocation status.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// Auth validates the bearer token on every request and stores the caller's
// identity in the Gin context under "user_id" and "username".
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}
