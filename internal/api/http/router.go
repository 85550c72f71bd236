package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/internal/validation"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Accounts      *handlers.AccountsHandler
	Authenticator *auth.Authenticator
	Metrics       *observability.Metrics
}

// RegisterRoutes wires HTTP routes. After the global stages each route runs
// validation, then authentication, then its role gate, then the handler. The
// catch-all 404 is registered last.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")
	required := cfg.Authenticator.Required()

	authGroup := api.Group("/auth")
	authGroup.Post("/register", validation.Validate(validation.Registration()), cfg.Auth.Register)
	authGroup.Post("/login", validation.Validate(validation.Login()), cfg.Auth.Login)
	authGroup.Post("/refresh", validation.Validate(validation.RefreshToken()), cfg.Auth.Refresh)
	authGroup.Post("/password/reset/request", validation.Validate(validation.PasswordResetRequest()), cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", validation.Validate(validation.PasswordResetConfirm()), cfg.Auth.ConfirmPasswordReset)
	authGroup.Get("/me", required, cfg.Auth.Me)

	api.Get("/session", cfg.Authenticator.Optional(), cfg.Accounts.Session)

	accountID := validation.Validate(validation.Identifier("id"))
	users := api.Group("/users")
	users.Get("", validation.Validate(validation.Pagination()), required, auth.AdminOnly(), cfg.Accounts.List)
	users.Get("/:id", accountID, required, auth.SellerOrAdmin(), cfg.Accounts.Get)
	users.Patch("/:id/verify", accountID, required, auth.AdminOnly(), cfg.Accounts.Verify)

	app.Use(NotFound)
}
