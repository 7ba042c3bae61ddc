package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(BodyLimit(64))
	router.POST("/orders/1/printful/create", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusBadRequest, "limit %d", tooLarge.Limit)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})

	tests := []struct {
		name          string
		size          int
		contentLength int64 // -1 streams the body without a declared length
		wantStatus    int
		wantBody      string
	}{
		{"within limit", 10, 10, http.StatusOK, "10"},
		{"exactly at limit", 64, 64, http.StatusOK, "64"},
		{"declared length too large", 200, 200, http.StatusRequestEntityTooLarge,
			`{"success":false,"message":"Request body exceeds maximum allowed size"}`},
		{"streamed body capped", 100, -1, http.StatusBadRequest, "limit 64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/orders/1/printful/create", strings.NewReader(strings.Repeat("x", tt.size)))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}
