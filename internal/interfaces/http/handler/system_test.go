package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		srv := newTestServer(t)

		w := srv.do(t, http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		health := decodeData[HealthResponse](t, w)
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, "ok", health.Database)
		assert.NotEmpty(t, health.Uptime)
	})

	t.Run("database unreachable", func(t *testing.T) {
		h := NewSystemHandler(fakePinger{err: errors.New("connection refused")}, "storefront", "test")
		c, w := newTestContext(http.MethodGet, "/health")

		h.Health(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "degraded", data["status"])
		assert.Equal(t, "unreachable", data["database"])
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(fakePinger{}, "storefront", "1.4.2")
	c, w := newTestContext(http.MethodGet, "/api/v1/system/info")

	h.GetSystemInfo(c)

	require.Equal(t, http.StatusOK, w.Code)
	info := decodeData[SystemInfoResponse](t, w)
	assert.Equal(t, "storefront", info.Name)
	assert.Equal(t, "1.4.2", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
