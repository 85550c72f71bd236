package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics_RecordRequestAndError(t *testing.T) {
	m := NewMetrics("storefront")
	m.RecordRequest("/api/auth/me", http.MethodGet, 200, 20*time.Millisecond)
	m.RecordRequest("/api/auth/me", http.MethodGet, 200, 30*time.Millisecond)
	m.RecordError("/api/auth/me", http.MethodGet, "TOKEN_EXPIRED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/auth/me", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/api/auth/me", http.MethodGet, "TOKEN_EXPIRED")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
		m.RecordError("/", http.MethodGet, "X")
	})
}

func TestRequestLogger_UsesErrorHandlerStatus(t *testing.T) {
	m := NewMetrics("storefront")
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.Status(http.StatusTeapot).SendString(err.Error())
	}})
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/boom", http.MethodGet, "418")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `storefront_http_requests_total{method="GET",route="/boom",status="418"} 1`), string(raw))
}
