package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/response"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

const (
	identityKey  = "auth_identity"
	bearerPrefix = "Bearer "
)

type identityCtxKey struct{}

// IdentityResolver loads the current state of an account. Implementations
// must never return credential material and must report a missing account
// with errorutil.ErrIdentityNotFound.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id string) (*domain.Identity, error)
}

// Authenticator validates bearer tokens and binds the resolved identity to the request.
type Authenticator struct {
	tokens     *TokenManager
	identities IdentityResolver
}

// NewAuthenticator constructs middleware.
func NewAuthenticator(tokens *TokenManager, identities IdentityResolver) *Authenticator {
	return &Authenticator{tokens: tokens, identities: identities}
}

// Required rejects the request with 401 unless a verified identity is resolved.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := a.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if rejected(err) {
				return response.Unauthorized(c, errorutil.ToDomainError(err).Message)
			}
			return err
		}
		BindIdentity(c, identity)
		return c.Next()
	}
}

// Optional attaches an identity when one can be established and otherwise
// lets the request through anonymously.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, err := a.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization)); err == nil {
			BindIdentity(c, identity)
		}
		return c.Next()
	}
}

// Authenticate runs extraction, verification, resolution and the
// verification-flag check for an Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*domain.Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, errorutil.ErrTokenMissing
	}

	claims, err := a.tokens.Verify(domain.TokenKindAccess, token)
	if err != nil {
		return nil, err
	}

	identity, err := a.identities.ResolveIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, errorutil.ErrIdentityNotFound) {
			return nil, errorutil.ErrIdentityNotFound
		}
		return nil, errorutil.NewInternalError("Authentication failed", err)
	}
	if !identity.IsVerified {
		return nil, errorutil.ErrIdentityUnverified
	}
	return identity, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFromContext retrieves the authenticated identity bound by the middleware.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// IdentityFromUserContext retrieves the identity from a request-derived context.
func IdentityFromUserContext(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return identity, ok && identity != nil
}

// ContextWithIdentity returns a copy of ctx carrying identity.
func ContextWithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// BindIdentity attaches identity to the request locals and its context.
func BindIdentity(c *fiber.Ctx, identity *domain.Identity) {
	c.Locals(identityKey, identity)
	c.SetUserContext(ContextWithIdentity(c.UserContext(), identity))
}

// rejected reports whether err is a credential or account failure the
// middleware answers itself rather than handing to the error boundary.
func rejected(err error) bool {
	switch errorutil.KindOf(err) {
	case errorutil.KindTokenMissing,
		errorutil.KindTokenExpired,
		errorutil.KindTokenMalformed,
		errorutil.KindTokenAudienceMismatch,
		errorutil.KindIdentityNotFound,
		errorutil.KindIdentityUnverified:
		return true
	}
	return false
}
