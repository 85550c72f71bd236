package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/response"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// RequireRoles ensures the authenticated identity holds one of the allowed
// roles. message is returned with the 403; empty means "Insufficient permissions".
// It must run after Authenticator.Required or Authenticator.Optional.
func RequireRoles(message string, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	if message == "" {
		message = errorutil.ErrRoleForbidden.Message
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return response.Forbidden(c, message)
		}
		return c.Next()
	}
}

// Authorize gates on roles with the generic forbidden message.
func Authorize(allowed ...domain.Role) fiber.Handler {
	return RequireRoles("", allowed...)
}

// AdminOnly admits administrators.
func AdminOnly() fiber.Handler {
	return RequireRoles("Admin access required", domain.RoleAdmin)
}

// SellerOrAdmin admits sellers and administrators.
func SellerOrAdmin() fiber.Handler {
	return RequireRoles("Seller or admin access required", domain.RoleSeller, domain.RoleAdmin)
}
