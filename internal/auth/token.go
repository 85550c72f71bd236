package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// Audience tags. Each token kind gets its own so that a token minted for one
// purpose never verifies as another.
const (
	AudienceAccess        = "ecommerce-users"
	AudienceRefresh       = "ecommerce-refresh"
	AudiencePasswordReset = "password-reset"
)

var audiences = map[domain.TokenKind]string{
	domain.TokenKindAccess:        AudienceAccess,
	domain.TokenKindRefresh:       AudienceRefresh,
	domain.TokenKindPasswordReset: AudiencePasswordReset,
}

// TokenClaims is what a caller asks to be embedded in a new token.
// Email and Role are only carried by access tokens. ID becomes the jti; a
// random one is generated when it is empty.
type TokenClaims struct {
	ID        string
	SubjectID string
	Email     string
	Role      domain.Role
}

// Claims describes JWT payload.
type Claims struct {
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenClaims returns the caller-facing subset of the payload.
func (c *Claims) TokenClaims() TokenClaims {
	return TokenClaims{ID: c.ID, SubjectID: c.Subject, Email: c.Email, Role: c.Role}
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttls   map[domain.TokenKind]time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// NewTokenManager builds a new manager from immutable auth configuration.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) *TokenManager {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = config.DefaultIssuer
	}
	tm := &TokenManager{
		secret: []byte(cfg.JWTSecret),
		issuer: issuer,
		ttls: map[domain.TokenKind]time.Duration{
			domain.TokenKindAccess:        orDefault(cfg.AccessTokenTTL, config.DefaultAccessTokenTTL),
			domain.TokenKindRefresh:       orDefault(cfg.RefreshTokenTTL, config.DefaultRefreshTokenTTL),
			domain.TokenKindPasswordReset: orDefault(cfg.PasswordResetTTL, config.DefaultPasswordResetTTL),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// TTL returns the default lifetime for kind.
func (tm *TokenManager) TTL(kind domain.TokenKind) time.Duration {
	return tm.ttls[kind]
}

// Issue builds and signs a token of the given kind with its default lifetime.
func (tm *TokenManager) Issue(kind domain.TokenKind, claims TokenClaims) (string, time.Time, error) {
	return tm.IssueWithTTL(kind, claims, 0)
}

// IssueWithTTL builds and signs a token; a non-positive ttl means the kind's default.
func (tm *TokenManager) IssueWithTTL(kind domain.TokenKind, claims TokenClaims, ttl time.Duration) (string, time.Time, error) {
	audience, ok := audiences[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}
	if claims.SubjectID == "" {
		return "", time.Time{}, fmt.Errorf("token subject is required")
	}
	if ttl <= 0 {
		ttl = tm.ttls[kind]
	}

	jti := claims.ID
	if jti == "" {
		jti = uuid.NewString()
	}

	now := tm.now()
	expiresAt := now.Add(ttl)
	payload := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   claims.SubjectID,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if kind == domain.TokenKindAccess {
		payload.Email = claims.Email
		payload.Role = claims.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates tokenStr as a token of the given kind.
//
// The audience and issuer are compared before the signature is checked, so a
// token minted for another purpose reports ErrTokenAudienceMismatch whether or
// not it was signed with the current key. Only authentic tokens can report
// ErrTokenExpired; everything else is ErrTokenMalformed.
func (tm *TokenManager) Verify(kind domain.TokenKind, tokenStr string) (*Claims, error) {
	audience, ok := audiences[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token kind %q", errorutil.ErrTokenMalformed, kind)
	}

	var unverified Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &unverified); err != nil {
		return nil, fmt.Errorf("%w: %w", errorutil.ErrTokenMalformed, err)
	}
	if !slices.Contains(unverified.Audience, audience) || unverified.Issuer != tm.issuer {
		return nil, fmt.Errorf("%w: want audience %q", errorutil.ErrTokenAudienceMismatch, audience)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", errorutil.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", errorutil.ErrTokenMalformed, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token claims", errorutil.ErrTokenMalformed)
	}
	return &claims, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
