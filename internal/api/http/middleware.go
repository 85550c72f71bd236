package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/api/response"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/internal/validation"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// RegisterMiddlewares attaches the global stages every request passes through:
// request logging, panic recovery, the request deadline, the body-size ceiling
// and sanitization. Authentication, authorization and validation are attached
// per route.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg config.AppConfig) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(Recover())
	if cfg.RequestTimeoutSeconds > 0 {
		app.Use(requestTimeoutMiddleware(time.Duration(cfg.RequestTimeoutSeconds) * time.Second))
	}
	app.Use(MaxBodySize(cfg.MaxBodyMB))
	app.Use(validation.Sanitize())
}

// requestTimeoutMiddleware bounds the request context; identity lookups and
// storage calls made with c.UserContext() are abandoned when it expires.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// MaxBodySize rejects requests whose declared Content-Length exceeds maxMB
// megabytes. A non-positive maxMB means config.DefaultMaxBodyMB.
func MaxBodySize(maxMB int) fiber.Handler {
	limit := config.AppConfig{MaxBodyMB: maxMB}.MaxBodyBytes()
	if maxMB <= 0 {
		maxMB = config.DefaultMaxBodyMB
	}
	return func(c *fiber.Ctx) error {
		if c.Request().Header.ContentLength() > limit {
			return errorutil.NewPayloadTooLarge(maxMB)
		}
		return c.Next()
	}
}

// NotFound answers any request no route matched. Register it last.
func NotFound(c *fiber.Ctx) error {
	return response.NotFound(c, "Route "+c.OriginalURL()+" not found")
}
