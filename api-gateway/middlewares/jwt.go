package middlewares

import (
	"net/http"
	"strings"

	"github.com/yashrajoria/freelance-marketplace/services/common/auth"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"

	"github.com/gin-gonic/gin"
)

// StripIdentityHeaders drops any X-User-* header the client sent. Identity
// headers reaching a service must come from JWTMiddleware.
func StripIdentityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k := range c.Request.Header {
			if strings.HasPrefix(strings.ToLower(k), "x-user-") {
				c.Request.Header.Del(k)
			}
		}
		c.Next()
	}
}

// JWTMiddleware verifies the bearer token and stores the caller's identity
// for the forwarder.
func JWTMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			return
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		id, err := verifier.ParseAndValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(middleware.UserContextKey, id.UserID)
		c.Set(middleware.RoleContextKey, id.Role)
		c.Set(middleware.TokenContextKey, tokenString)
		c.Next()
	}
}

// AdminRoleMiddleware must run after JWTMiddleware.
func AdminRoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.GetRole(c) != middleware.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
