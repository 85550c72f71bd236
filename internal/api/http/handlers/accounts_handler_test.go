package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-auth/internal/validation"
)

func TestAccountInputsComeFromPayload(t *testing.T) {
	app := fiber.New()
	app.Use(validation.Sanitize())
	app.Get("/users/:id", func(c *fiber.Ctx) error {
		return c.SendString(accountID(c))
	})
	app.Get("/users", func(c *fiber.Ctx) error {
		return c.JSON([]int{queryInt(c, "page", 1), queryInt(c, "limit", 10)})
	})

	get := func(path string) string {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(raw)
	}

	assert.Equal(t, "8f8e4b36-1b2c-4f5e-9a43-0c2d5a9b1e11", get("/users/8f8e4b36-1b2c-4f5e-9a43-0c2d5a9b1e11"))
	assert.Equal(t, "[3,25]", get("/users?page=3&limit=25"))
	assert.Equal(t, "[1,10]", get("/users?page=0&limit=%3Cscript%3E5%3C%2Fscript%3E"))
}
