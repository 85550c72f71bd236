package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func post(t *testing.T, app *fiber.App, size int) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(bytes.Repeat([]byte("a"), size)))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, decodeBody(resp, &body))
	}
	return resp.StatusCode, body
}

func TestMaxBodySize(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), nil, 1)})
	app.Use(MaxBodySize(1))
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	status, _ := post(t, app, 1024*1024)
	assert.Equal(t, http.StatusNoContent, status)

	status, body := post(t, app, 1024*1024+1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "Request body too large. Maximum size is 1MB", body.Message)
}

func TestMaxBodySize_Default(t *testing.T) {
	app := fiber.New(fiber.Config{
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: ErrorHandler(zap.NewNop(), nil, 0),
	})
	app.Use(MaxBodySize(0))
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	status, body := post(t, app, 10*1024*1024+1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "Request body too large. Maximum size is 10MB", body.Message)
}

func TestNotFound(t *testing.T) {
	app := fiber.New()
	app.Get("/known", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Use(NotFound)

	status, body := call(t, app, "/api/unknown?page=2")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Route /api/unknown?page=2 not found", body.Message)
}
