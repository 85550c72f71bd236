package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/repository"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// ErrResetTokenSpent is returned when a password reset token was already used
// or its ledger entry is gone.
var ErrResetTokenSpent = errorutil.NewDomainError(errorutil.KindInvalidCredentials,
	"Reset token is invalid or has already been used", http.StatusUnauthorized)

// IdentityForgetter drops cached identities after an account changes.
type IdentityForgetter interface {
	Forget(ctx context.Context, id string)
}

// AuthDependencies encapsulates what the auth service needs.
type AuthDependencies struct {
	Users      repository.UserRepository
	Resets     repository.PasswordResetRepository
	Tokens     *auth.TokenManager
	Identities auth.IdentityResolver
	Cache      IdentityForgetter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	Now        func() time.Time
}

// AuthService coordinates registration, login and the token flows built on
// the token service.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokens     *auth.TokenManager
	identities auth.IdentityResolver
	cache      IdentityForgetter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.Users,
		resets:     deps.Resets,
		tokens:     deps.Tokens,
		identities: deps.Identities,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
		now:        deps.Now,
	}
	if s.identities == nil {
		s.identities = deps.Users
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RegisterInput is a validated registration payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// Session is the outcome of a successful login or registration.
type Session struct {
	Identity         *domain.Identity
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Register creates an unverified account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errorutil.NewConflict("email already exists")
	} else if errorutil.KindOf(err) != errorutil.KindNotFound {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventAccountRegistered,
		AccountID: user.ID,
		Email:     user.Email,
		Payload:   events.AccountRegisteredPayload{FirstName: user.FirstName, Role: string(user.Role)},
	})
	return s.session(user.Identity())
}

// Login checks credentials and issues an access/refresh pair. Unknown email
// and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errorutil.KindOf(err) == errorutil.KindNotFound {
		return nil, errorutil.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.session(user.Identity())
}

// Refresh exchanges a refresh token for a new access token. The account is
// resolved again so a deleted or unverified account cannot keep a session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.Verify(domain.TokenKindRefresh, refreshToken)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.ResolveIdentity(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !identity.IsVerified {
		return nil, errorutil.ErrIdentityUnverified
	}

	access, accessExp, err := s.tokens.Issue(domain.TokenKindAccess, accessClaims(identity))
	if err != nil {
		return nil, err
	}
	return &Session{
		Identity:         identity,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RequestPasswordReset issues a single-use reset token for email and hands it
// to the notifier. An unknown email is not an error, so callers cannot probe
// for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errorutil.KindOf(err) == errorutil.KindNotFound {
		s.logger.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	jti := uuid.NewString()
	token, expiresAt, err := s.tokens.Issue(domain.TokenKindPasswordReset, auth.TokenClaims{ID: jti, SubjectID: user.ID})
	if err != nil {
		return err
	}
	if err := s.resets.Create(ctx, &repository.PasswordResetToken{JTI: jti, UserID: user.ID, ExpiresAt: expiresAt}); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventPasswordResetRequested,
		AccountID: user.ID,
		Email:     user.Email,
		Payload:   events.PasswordResetRequestedPayload{Token: token, ExpiresAt: expiresAt},
	})
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token. Each token
// works once; a failed password write leaves the token unspent.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.Verify(domain.TokenKindPasswordReset, resetToken)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	redeemed, err := s.resets.Redeem(ctx, claims.ID, claims.Subject, hash)
	if err != nil {
		return err
	}
	if !redeemed {
		return ErrResetTokenSpent
	}

	s.publish(ctx, events.Event{Type: events.EventPasswordChanged, AccountID: claims.Subject})
	return nil
}

// Me returns the identity the authentication stage bound to ctx.
func (s *AuthService) Me(ctx context.Context) (*domain.Identity, error) {
	identity, ok := auth.IdentityFromUserContext(ctx)
	if !ok {
		return nil, errorutil.NewUnauthorized("Authentication required")
	}
	return identity, nil
}

// ListAccounts returns one page of account identities, newest first.
func (s *AuthService) ListAccounts(ctx context.Context, page, limit int) ([]domain.Identity, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.users.List(ctx, page, limit)
}

// GetAccount returns the identity of one account.
func (s *AuthService) GetAccount(ctx context.Context, id string) (*domain.Identity, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// VerifyAccount marks an account's email as verified.
func (s *AuthService) VerifyAccount(ctx context.Context, id string) (*domain.Identity, error) {
	if err := s.users.MarkVerified(ctx, id); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Forget(ctx, id)
	}
	return s.GetAccount(ctx, id)
}

func (s *AuthService) session(identity *domain.Identity) (*Session, error) {
	access, accessExp, err := s.tokens.Issue(domain.TokenKindAccess, accessClaims(identity))
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.Issue(domain.TokenKindRefresh, auth.TokenClaims{SubjectID: identity.ID})
	if err != nil {
		return nil, err
	}
	return &Session{
		Identity:         identity,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// publish emits an account event. Notification failures never fail the flow
// that produced them.
func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("publish account event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func accessClaims(identity *domain.Identity) auth.TokenClaims {
	return auth.TokenClaims{SubjectID: identity.ID, Email: identity.Email, Role: identity.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
