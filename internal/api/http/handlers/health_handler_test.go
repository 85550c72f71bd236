package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func readiness(t *testing.T, deps map[string]Pinger) (int, map[string]any) {
	t.Helper()
	h := NewHealthHandler("storefront-auth", "test", deps)
	app := fiber.New()
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthHandler_Ready(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	status, body := readiness(t, map[string]Pinger{"postgres": ok, "redis": ok})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = readiness(t, map[string]Pinger{"postgres": down, "redis": ok})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["success"])
	data := body["data"].(map[string]any)
	deps := data["dependencies"].(map[string]any)
	assert.Equal(t, "connection refused", deps["postgres"])
	assert.Equal(t, "ok", deps["redis"])
}

func TestHealthHandler_Live(t *testing.T) {
	app := fiber.New()
	app.Get("/live", NewHealthHandler("storefront-auth", "1.2.3", nil).Live)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/live", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alive", body.Data["status"])
	assert.Equal(t, "1.2.3", body.Data["version"])
}
