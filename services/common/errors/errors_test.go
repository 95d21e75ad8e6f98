package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("accept: %w", apperrors.Conflict("The order has already been accepted"))

	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.True(t, stderrors.Is(err, apperrors.ErrConflict))
	assert.False(t, stderrors.Is(err, apperrors.ErrNotFound))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(stderrors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[apperrors.Kind]int{
		apperrors.KindValidation:          http.StatusBadRequest,
		apperrors.KindNotFound:            http.StatusNotFound,
		apperrors.KindPermission:          http.StatusForbidden,
		apperrors.KindConflict:            http.StatusConflict,
		apperrors.KindUpstreamUnavailable: http.StatusServiceUnavailable,
		apperrors.KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, apperrors.HTTPStatus(kind), kind)
	}
}

func TestErrorMiddleware_RendersKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(apperrors.Permission("not your order"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(stderrors.New("db password in here"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"not your order"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}
