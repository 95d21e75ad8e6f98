package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	TokenContextKey = "bearer"

	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Role ids as issued by the auth service.
const (
	RoleCustomer = 1
	RoleProvider = 2
	RoleAdmin    = 3
)

// AuthMiddleware trusts the identity headers injected by the api-gateway.
// Services are never exposed publicly, so the headers are authoritative here.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userIDInt, err := strconv.ParseInt(userID, 10, 64)
		if err != nil || userIDInt <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID format"})
			return
		}

		role, _ := strconv.Atoi(c.GetHeader(HeaderUserRole))

		c.Set(UserContextKey, userIDInt)
		c.Set(RoleContextKey, role)
		if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			c.Set(TokenContextKey, token)
		}
		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// AdminOnly is RequireRole(RoleAdmin).
func AdminOnly() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

func GetUserID(c *gin.Context) int64 {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(int64); ok {
			return id
		}
	}
	return 0
}

func GetRole(c *gin.Context) int {
	if val, ok := c.Get(RoleContextKey); ok {
		if role, ok := val.(int); ok {
			return role
		}
	}
	return 0
}

// GetBearerToken returns the caller's token, used when a service calls a peer
// on the caller's behalf.
func GetBearerToken(c *gin.Context) string {
	return c.GetString(TokenContextKey)
}
