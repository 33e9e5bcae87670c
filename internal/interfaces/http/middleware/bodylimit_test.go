package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func newBodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), BodyLimit(limit))
	r.POST("/basket/items", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, err.Error()))
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	r.GET("/basket", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestBodyLimit(t *testing.T) {
	t.Run("body within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/basket/items", strings.NewReader(`{"quantity":1}`))
		newBodyLimitRouter(64).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "14", w.Body.String())
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/basket/items", strings.NewReader(strings.Repeat("x", 200)))
		newBodyLimitRouter(100).ServeHTTP(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodePayloadTooLarge)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("undeclared length is capped while reading", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/basket/items", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		newBodyLimitRouter(50).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requests without body pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		newBodyLimitRouter(1).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/basket", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
