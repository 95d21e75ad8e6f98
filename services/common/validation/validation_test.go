package validation_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteRequest struct {
	Title  string           `json:"title" binding:"notblank,max=10"`
	Amount decimal.Decimal  `json:"amount" binding:"gt=0"`
	Tip    *decimal.Decimal `json:"tip" binding:"omitempty,gt=0"`
	Tier   string           `json:"tier" binding:"oneof=basic pro"`
}

func TestStruct_Messages(t *testing.T) {
	valid := func() quoteRequest {
		return quoteRequest{Title: "Paint", Amount: decimal.NewFromInt(10), Tier: "pro"}
	}
	tip := decimal.NewFromInt(-1)

	tests := []struct {
		name   string
		mutate func(*quoteRequest)
		msg    string
	}{
		{"blank", func(r *quoteRequest) { r.Title = " \t" }, "Title cannot be empty"},
		{"too long", func(r *quoteRequest) { r.Title = strings.Repeat("a", 11) }, "Title must be at most 10 characters"},
		{"zero amount", func(r *quoteRequest) { r.Amount = decimal.Zero }, "Amount must be positive"},
		{"negative pointer", func(r *quoteRequest) { r.Tip = &tip }, "Tip must be positive"},
		{"oneof uses json name", func(r *quoteRequest) { r.Tier = "gold" }, "Invalid tier: gold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := validation.Struct(&req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	req := valid()
	assert.NoError(t, validation.Struct(&req))
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/quote", func(c *gin.Context) {
		var req quoteRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount.String()})
	})

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"ok", `{"title":"Paint","amount":"12.50","tier":"basic"}`, http.StatusOK, `{"amount":"12.5"}`},
		{"rule", `{"title":"Paint","amount":"0","tier":"basic"}`, http.StatusBadRequest, `{"error":"Amount must be positive"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(`{"title":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request: ")
}
