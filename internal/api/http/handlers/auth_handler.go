package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/api/response"
	"github.com/spec-kit/storefront-auth/internal/service"
)

// AuthHandler exposes the account auth endpoints. Payloads reach it already
// sanitized and validated.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return response.Created(c, sessionResponse(session), "User registered successfully")
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return response.OK(c, sessionResponse(session), "Login successful")
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return response.OK(c, sessionResponse(session), "Token refreshed successfully")
}

// RequestPasswordReset handles POST /api/auth/password/reset/request. The
// answer is the same whether or not the email belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return response.Success(c, http.StatusAccepted, nil, "If the email exists, a reset link has been sent")
}

// ConfirmPasswordReset handles POST /api/auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}
	return response.OK(c, nil, "Password reset successful")
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := h.auth.Me(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, identity, "")
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	out := dto.SessionResponse{
		User: session.Identity,
		Tokens: dto.TokenPair{
			AccessToken:     session.AccessToken,
			AccessExpiresAt: session.AccessExpiresAt,
			RefreshToken:    session.RefreshToken,
		},
	}
	if !session.RefreshExpiresAt.IsZero() {
		exp := session.RefreshExpiresAt
		out.Tokens.RefreshExpiresAt = &exp
	}
	return out
}
