package response

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h fiber.Handler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestStatusFamilies(t *testing.T) {
	tests := []struct {
		name    string
		handler fiber.Handler
		status  int
		message string
	}{
		{"unauthorized", func(c *fiber.Ctx) error { return Unauthorized(c, "") }, 401, "Unauthorized"},
		{"forbidden", func(c *fiber.Ctx) error { return Forbidden(c, "Admin access required") }, 403, "Admin access required"},
		{"not found", func(c *fiber.Ctx) error { return NotFound(c, "") }, 404, "Resource not found"},
		{"conflict", func(c *fiber.Ctx) error { return Conflict(c, "email already exists") }, 409, "email already exists"},
		{"too large", func(c *fiber.Ctx) error { return PayloadTooLarge(c, "") }, 413, "Request body too large"},
		{"unavailable", func(c *fiber.Ctx) error { return ServiceUnavailable(c, "Database connection error") }, 503, "Database connection error"},
		{"generic", func(c *fiber.Ctx) error { return Error(c, "", 0, "") }, 500, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serve(t, tt.handler)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestOK(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return OK(c, fiber.Map{"id": "1"}, "")
	})
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Success", body["message"])
	assert.Equal(t, map[string]any{"id": "1"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestValidationErrorJoinsMessages(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return ValidationError(c, []string{"First name is required", "Please provide a valid email"})
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "Validation Error", body["message"])
	assert.Equal(t, "First name is required, Please provide a valid email", body["error"])
}

func TestPaginated(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return Paginated(c, []string{"a", "b"}, 21, 2, 10, "")
	})
	assert.Equal(t, 200, status)
	assert.Equal(t, map[string]any{
		"total": float64(21),
		"page":  float64(2),
		"limit": float64(10),
		"pages": float64(3),
	}, body["meta"])
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, int64(0), NewMeta(0, 1, 10).Pages)
	assert.Equal(t, int64(1), NewMeta(10, 1, 10).Pages)
	assert.Equal(t, int64(2), NewMeta(11, 1, 10).Pages)
	assert.Equal(t, int64(0), NewMeta(11, 1, 0).Pages)
}
