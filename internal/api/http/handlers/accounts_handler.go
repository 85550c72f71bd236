package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/api/response"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/service"
	"github.com/spec-kit/storefront-auth/internal/validation"
)

// AccountsHandler exposes account lookups behind the role gates.
type AccountsHandler struct {
	auth *service.AuthService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(authService *service.AuthService) *AccountsHandler {
	return &AccountsHandler{auth: authService}
}

// List handles GET /api/users.
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	accounts, total, err := h.auth.ListAccounts(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, accounts, total, page, limit, "")
}

// Get handles GET /api/users/:id.
func (h *AccountsHandler) Get(c *fiber.Ctx) error {
	identity, err := h.auth.GetAccount(c.UserContext(), accountID(c))
	if err != nil {
		return err
	}
	return response.OK(c, identity, "")
}

// Verify handles PATCH /api/users/:id/verify.
func (h *AccountsHandler) Verify(c *fiber.Ctx) error {
	identity, err := h.auth.VerifyAccount(c.UserContext(), accountID(c))
	if err != nil {
		return err
	}
	return response.OK(c, identity, "Account verified")
}

// Session handles GET /api/session. It sits behind optional authentication,
// so an anonymous caller gets a 200 too.
func (h *AccountsHandler) Session(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	return response.OK(c, dto.SessionProbeResponse{Authenticated: ok, User: identity}, "")
}

// accountID reads the :id parameter from the sanitized payload.
func accountID(c *fiber.Ctx) string {
	return validation.PayloadFromContext(c).Params["id"]
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := validation.PayloadFromContext(c).Query[key]
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
