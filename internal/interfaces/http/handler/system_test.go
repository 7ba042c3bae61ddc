package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshop/backend/internal/interfaces/http/dto"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   dto.HealthResponse
	}{
		{
			name:       "database reachable",
			wantStatus: http.StatusOK,
			wantBody:   dto.HealthResponse{Status: "healthy", Database: "ok"},
		},
		{
			name:       "database down",
			pingErr:    errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   dto.HealthResponse{Status: "unhealthy", Database: "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler(stubPinger{err: tt.pingErr}, "test")
			engine := gin.New()
			engine.GET("/health", h.Health)

			w := doRequest(engine, http.MethodGet, "/health", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody.Status, resp.Status)
			assert.Equal(t, tt.wantBody.Database, resp.Database)
			_, err := time.Parse(time.RFC3339, resp.Time)
			assert.NoError(t, err)
		})
	}
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(stubPinger{}, "1.2.3")
	engine := gin.New()
	engine.GET("/system/info", h.GetSystemInfo)

	w := doRequest(engine, http.MethodGet, "/system/info", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp SystemInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dshop backend", resp.Name)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
	assert.NotEmpty(t, resp.Uptime)
}
