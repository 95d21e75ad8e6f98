package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yashrajoria/freelance-marketplace/api-gateway/middlewares"
	"github.com/yashrajoria/freelance-marketplace/services/common/auth"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(v *auth.Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.StripIdentityHeaders(), middlewares.JWTMiddleware(v))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":   middleware.GetUserID(c),
			"role":   middleware.GetRole(c),
			"token":  middleware.GetBearerToken(c),
			"header": c.GetHeader(middleware.HeaderUserID),
		})
	})
	r.GET("/admin", middlewares.AdminRoleMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestJWTMiddleware_SetsIdentity(t *testing.T) {
	v := auth.NewVerifier("k")
	tok, err := v.IssueToken(auth.Identity{UserID: 77, Role: middleware.RoleProvider}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set(middleware.HeaderUserID, "1")
	w := httptest.NewRecorder()
	setupRouter(v).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":77,"role":2,"token":"`+tok+`","header":""}`, w.Body.String())
}

func TestJWTMiddleware_Expired(t *testing.T) {
	v := auth.NewVerifier("k")
	tok, err := v.IssueToken(auth.Identity{UserID: 1, Role: 1}, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	setupRouter(v).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoleMiddleware(t *testing.T) {
	v := auth.NewVerifier("k")
	r := setupRouter(v)

	for role, want := range map[int]int{
		middleware.RoleCustomer: http.StatusForbidden,
		middleware.RoleProvider: http.StatusForbidden,
		middleware.RoleAdmin:    http.StatusNoContent,
	} {
		tok, err := v.IssueToken(auth.Identity{UserID: 1, Role: role}, time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %d", role)
	}
}
